package textfeatures

import (
	"math/big"
	"regexp"
	"strings"
)

var calculationPattern = regexp.MustCompile(`(\d+)\s*([\+\-\*/])\s*(\d+)\s*=\s*(\d+)`)

var conceptualErrorPhrases = []string{
	"wrong formula", "incorrect theorem", "misunderstood definition",
	"used pythagoras incorrectly", "wrong method", "misapplied rule",
	"fel formel", "fel metod", "missförstått definitionen", "använde pythagoras fel",
}

var solvingVerbs = []string{
	"add", "subtract", "divide", "multiply", "simplify", "solve",
	"addera", "subtrahera", "dividera", "multiplicera", "förenkla", "lös",
}

// ComputationalErrors recomputes every "a op b = c" with integer operands and
// counts the wrong ones. Division by zero is skipped; division is exact.
func ComputationalErrors(text string) int {
	if isBlank(text) {
		return 0
	}

	errs := 0
	for _, m := range calculationPattern.FindAllStringSubmatch(text, -1) {
		a, okA := new(big.Int).SetString(m[1], 10)
		b, okB := new(big.Int).SetString(m[3], 10)
		c, okC := new(big.Int).SetString(m[4], 10)
		if !okA || !okB || !okC {
			continue
		}

		var correct bool
		switch m[2] {
		case "+":
			correct = new(big.Int).Add(a, b).Cmp(c) == 0
		case "-":
			correct = new(big.Int).Sub(a, b).Cmp(c) == 0
		case "*":
			correct = new(big.Int).Mul(a, b).Cmp(c) == 0
		case "/":
			if b.Sign() == 0 {
				continue
			}
			// a / b == c exactly iff a == b*c
			correct = new(big.Int).Mul(b, c).Cmp(a) == 0
		default:
			continue
		}

		if !correct {
			errs++
		}
	}

	return errs
}

// ConceptualErrors counts the distinct red-flag phrases present in text.
func ConceptualErrors(text string) int {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	count := 0
	for _, phrase := range conceptualErrorPhrases {
		if strings.Contains(lowered, phrase) {
			count++
		}
	}
	return count
}

// CorrectnessPct is 100 when the expected answer and a solving verb both
// appear, 50 when only one does and 0 otherwise.
func CorrectnessPct(text, expectedAnswer string) int {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	expected := strings.ToLower(strings.TrimSpace(expectedAnswer))
	answerPresent := expected != "" && strings.Contains(lowered, expected)
	solved := containsAny(lowered, solvingVerbs)

	switch {
	case answerPresent && solved:
		return 100
	case answerPresent || solved:
		return 50
	default:
		return 0
	}
}
