package scoring

// rubricMaxPoints is the total of the four rubric buckets.
const rubricMaxPoints = 10

// RubricPoints converts four rubric criteria into a 0-100 percentage.
// Method and calculations are worth 3 points each, explanation and units 2 each.
func RubricPoints(method float64, computationalErrors int, clarity, units float64) int {
	points := ternaryPoints(method, 3) + calculationPoints(computationalErrors) +
		ternaryPoints(clarity, 2) + ternaryPoints(units, 2)
	return points * 100 / rubricMaxPoints
}

// ternaryPoints awards full marks for 1.0, one point for 0.5 and nothing otherwise.
func ternaryPoints(value float64, full int) int {
	switch value {
	case 1:
		return full
	case 0.5:
		return 1
	default:
		return 0
	}
}

func calculationPoints(count int) int {
	switch {
	case count <= 0:
		return 3
	case count == 1:
		return 1
	default:
		return 0
	}
}
