package topic

import (
	"regexp"
	"strings"
)

const (
	// MinDifficulty is the easiest rating.
	MinDifficulty = 1
	// MaxDifficulty is the hardest rating.
	MaxDifficulty = 5
	// DefaultDifficulty is used when no signal fires.
	DefaultDifficulty = 3
	// EmptyDifficulty is used when there is no description to rate.
	EmptyDifficulty = MinDifficulty
)

var difficultyKeywords = []weightedKeyword{
	// very easy
	{"add", 1}, {"subtract", 1}, {"simple", 1}, {"basic", 1},
	{"straightforward", 1}, {"arithmetic", 1}, {"2+2", 1},
	{"förenkla", 1}, {"uttryck", 1}, {"enkel", 1}, {"plus", 1}, {"minus", 1},
	{"grundläggande", 1}, {"rakt på sak", 1}, {"räkna ut", 1},
	{"medelvärde", 1}, {"snitt", 1}, {"average", 1},
	{"enkel ekvation", 1}, {"simple equation", 1}, {"1-stegs ekvation", 1},
	{"one step equation", 1}, {"basic equation", 1},

	// easy
	{"slightly", 2}, {"easy", 2}, {"steps", 2},
	{"procent", 2}, {"percentage", 2},

	// medium
	{"multi-step", 3}, {"solve", 3}, {"equation", 3}, {"ekvation", 3},
	{"linear", 3}, {"fractions", 3}, {"factoring", 3}, {"algebra", 3},
	{"flera steg", 3}, {"linjär", 3}, {"bråk", 3}, {"faktorisera", 3}, {"lös", 3},

	// hard
	{"challenging", 4}, {"requires reasoning", 4}, {"geometry", 4},
	{"probability", 4}, {"trigonometry", 4},
	{"utmanande", 4}, {"geometri", 4}, {"sannolikhet", 4},
	{"trigonometri", 4}, {"kräver resonemang", 4},

	// very hard
	{"complex", 5}, {"real-world", 5}, {"modeling", 5},
	{"quadratic", 5}, {"formula", 5}, {"complex roots", 5},
	{"nonlinear", 5}, {"system of equations", 5},
	{"komplex", 5}, {"modellering", 5}, {"andragradsekvation", 5},
	{"formel", 5}, {"icke-linjär", 5}, {"ekvationssystem", 5}, {"x^2", 5},
}

type weightedPattern struct {
	pattern *regexp.Regexp
	weight  int
}

var difficultyPatterns = []weightedPattern{
	// simple arithmetic
	{regexp.MustCompile(`\b\d+\s*[\+\-]\s*\d+\b`), 1},
	// percent of number
	{regexp.MustCompile(`\d+%\s+av\s+\d+`), 1},
	// one-step equation
	{regexp.MustCompile(`\b\d*x\s*[\+\-]\s*\d+\s*=\s*\d+\b`), 1},
	// quadratic
	{regexp.MustCompile(`x\^2|x\*\*2|x²`), 5},
}

// Difficulty rates an assignment description from 1 (very easy) to 5 (very hard).
// Any very-hard signal wins, then any very-easy signal, then the highest remaining weight.
// A blank description rates as very easy.
func Difficulty(description string) int {
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return EmptyDifficulty
	}

	fired := make(map[int]bool)
	for _, kw := range difficultyKeywords {
		if strings.Contains(desc, kw.keyword) {
			fired[kw.weight] = true
		}
	}
	for _, p := range difficultyPatterns {
		if p.pattern.MatchString(desc) {
			fired[p.weight] = true
		}
	}

	switch {
	case len(fired) == 0:
		return DefaultDifficulty
	case fired[MaxDifficulty]:
		return MaxDifficulty
	case fired[MinDifficulty]:
		return MinDifficulty
	}

	highest := 0
	for weight := range fired {
		if weight > highest {
			highest = weight
		}
	}
	return highest
}
