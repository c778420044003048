// Package textfeatures turns a free-form math solution into scalar signals.
// Every extractor is total: empty or malformed input yields a neutral value.
package textfeatures

import (
	"math"
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Words returns the lowercased word tokens of text, Swedish letters included.
func Words(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// NonEmptyLines returns the trimmed lines of text that contain anything.
func NonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// containsAny reports whether lowered contains one of the substrings.
func containsAny(lowered string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(lowered, needle) {
			return true
		}
	}
	return false
}

// hasWord reports whether one of the words appears as a whole token.
func hasWord(tokens map[string]struct{}, words []string) bool {
	for _, w := range words {
		if _, ok := tokens[w]; ok {
			return true
		}
	}
	return false
}

func tokenSet(text string) map[string]struct{} {
	words := Words(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
