package textfeatures

import (
	"regexp"
	"strings"
)

var (
	mathOperators      = []string{"=", "+", "-", "*", "/", "^"}
	causalConnectors   = []string{"därför", "alltså", "sedan", "således", "därav", "therefore", "because", "hence", "thus"}
	explanatoryVerbs   = []string{"eftersom", "flyttar", "dividera", "addera", "förenkla", "löser", "since", "divide", "simplify", "we move", "solve"}
	methodNegations    = []string{"istället", "instead"}
	trialAndErrorWords = []string{"guess", "gissa", "trial", "provar"}
)

// methodRule is one category of plausible solution methods.
type methodRule struct {
	name  string
	match func(text, desc string) bool
	score float64
}

var (
	equationPattern    = regexp.MustCompile(`[0-9]*x[\+\-\*/]?[0-9]*\s*=\s*[0-9]`)
	meanFormulaPattern = regexp.MustCompile(`\(.+\)\s*/\s*\d+`)
	fractionPattern    = regexp.MustCompile(`^\d+/\d+`)
)

// methodRules are evaluated in order; the first match decides the score.
var methodRules = []methodRule{
	{name: "negated", score: 0, match: func(text, _ string) bool {
		return containsAny(text, methodNegations)
	}},
	{name: "trial_and_error", score: 0.5, match: func(text, _ string) bool {
		return containsAny(text, trialAndErrorWords)
	}},
	{name: "equation", score: 1, match: func(text, desc string) bool {
		return strings.Contains(desc, "ekvation") || equationPattern.MatchString(text)
	}},
	{name: "percent", score: 1, match: func(text, _ string) bool {
		return containsAny(text, []string{"%", "procent"})
	}},
	{name: "geometry", score: 1, match: func(text, _ string) bool {
		return containsAny(text, []string{"π", "area", "volym", "c²", "triangel", "cirkel", "kub", "radie", "diameter"})
	}},
	{name: "statistics", score: 1, match: func(text, _ string) bool {
		return containsAny(text, []string{"sannolikhet", "varians", "medelvärde", "mean", "average"}) ||
			meanFormulaPattern.MatchString(text) ||
			fractionPattern.MatchString(strings.TrimSpace(text))
	}},
	{name: "function", score: 1, match: func(text, _ string) bool {
		return containsAny(text, []string{"graf", "funktion", "plot", "y=", "f(x"})
	}},
	{name: "proportional", score: 1, match: func(text, _ string) bool {
		return containsAny(text, []string{"km", "tim", "hastighet", "tempo", "fart"})
	}},
}

const defaultMethodScore = 0.5

// ReasoningQuality scores how well the steps of a solution are connected, in [0, 1].
func ReasoningQuality(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	score := 0.0
	if containsAny(lowered, mathOperators) {
		score += 0.3
	}
	if containsAny(lowered, causalConnectors) {
		score += 0.3
	}
	if containsAny(lowered, explanatoryVerbs) {
		score += 0.3
	}
	if len(NonEmptyLines(lowered)) > 1 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return round2(score)
}

// MethodAppropriateness reports whether the submission used a plausible method
// for the assignment: 1 for a recognised method, 0.5 for trial and error or no
// signal, 0 when the student says they did something else instead.
func MethodAppropriateness(text, description string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	desc := strings.ToLower(description)
	for _, rule := range methodRules {
		if rule.match(lowered, desc) {
			return rule.score
		}
	}
	return defaultMethodScore
}
