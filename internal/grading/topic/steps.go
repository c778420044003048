package topic

// fallbackExpectedSteps applies to unknown topics and out-of-range difficulties.
const fallbackExpectedSteps = 4

// expectedSteps is indexed by difficulty-1. Every entry is at least 2.
var expectedSteps = map[Topic][MaxDifficulty]int{
	Algebra:        {2, 3, 5, 6, 7},
	Ekvationer:     {2, 3, 4, 5, 6},
	Procent:        {2, 3, 4, 5, 6},
	Statistik:      {2, 3, 4, 6, 7},
	Funktioner:     {2, 3, 4, 6, 7},
	Geometri:       {3, 4, 5, 6, 8},
	Problemlosning: {3, 4, 5, 7, 8},
}

// ExpectedSteps returns how many solution steps a complete answer should show.
func ExpectedSteps(t Topic, difficulty int) int {
	row, ok := expectedSteps[t]
	if !ok || difficulty < MinDifficulty || difficulty > MaxDifficulty {
		return fallbackExpectedSteps
	}
	return row[difficulty-1]
}
