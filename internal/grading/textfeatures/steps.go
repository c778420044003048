package textfeatures

import (
	"regexp"
	"strings"
)

// shortLineTokens is the token count at or below which a line is a single step.
const shortLineTokens = 4

// English "first" is not a connector: the grade model was trained without it.
var stepConnectors = []string{"först", "sedan", "därefter", "slutligen", "then", "finally"}

var stepConnectorPattern = regexp.MustCompile(`först|sedan|därefter|slutligen|finally|then`)

// StepsCount counts the solution steps in text. Each non-empty line is a step,
// except that a longer line using sequence connectors counts every connector
// and every non-blank stretch of text around them as a step of its own.
func StepsCount(text string) int {
	if isBlank(text) {
		return 0
	}

	steps := 0
	for _, line := range NonEmptyLines(strings.ToLower(text)) {
		if len(strings.Fields(line)) <= shortLineTokens || !containsAny(line, stepConnectors) {
			steps++
			continue
		}
		steps += connectorFragments(line)
	}

	return steps
}

func connectorFragments(line string) int {
	fragments := 0
	last := 0
	for _, loc := range stepConnectorPattern.FindAllStringIndex(line, -1) {
		if strings.TrimSpace(line[last:loc[0]]) != "" {
			fragments++
		}
		fragments++
		last = loc[1]
	}
	if strings.TrimSpace(line[last:]) != "" {
		fragments++
	}
	return fragments
}

// StepsCompleteness is the share of expected steps present, capped at 1 and rounded to 2 decimals.
func StepsCompleteness(steps, expected int) float64 {
	if expected <= 0 || steps <= 0 {
		return 0
	}
	ratio := float64(steps) / float64(expected)
	if ratio > 1 {
		ratio = 1
	}
	return round2(ratio)
}
