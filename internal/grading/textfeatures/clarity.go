package textfeatures

import (
	"regexp"
	"strings"
)

var (
	representationWords   = []string{"diagram", "graph", "graf", "table", "tabell", "figur", "figure", "skiss", "sketch"}
	representationDefects = []string{"incorrect", "unclear", "felaktig", "otydlig"}
	sentencePunctuation   = []string{".", "?", "!"}
	mathLanguage          = []string{"add", "subtract", "divide", "multiply", "isolate", "solve", "equation", "addera", "subtrahera", "dividera", "multiplicera", "isolera", "lös", "ekvation"}
	unitConversionWords   = []string{"convert", "to", "from", "omvandla", "blir", "motsvarar"}
	unitErrorPhrases      = []string{"mixed units", "wrong units", "missing units", "fel enhet", "blandade enheter", "saknar enhet"}
	informalWords         = []string{"stuff", "thing", "did", "got", "move", "grej", "grejer", "typ", "liksom", "asså"}
	mathTerms             = []string{"factor", "variable", "simplify", "probability", "equation", "subtract", "add", "divide", "multiply", "faktor", "variabel", "förenkla", "sannolikhet", "ekvation", "subtrahera", "addera", "dividera", "multiplicera"}
	verificationMarkers   = []string{"kontroll", "check", "verif", "prövning", "sätter in", "insättning", "substitut"}
	specialCaseMarkers    = []string{"specialfall", "special case", "edge case", "negativ", "noll", "zero", "odefinierad", "undefined", "ej definierad"}
)

// minStepByStepLineBreaks is how many line breaks make an answer step by step.
const minStepByStepLineBreaks = 2

// unitPattern matches a unit as a whole word; a number may be glued in front.
var unitPattern = regexp.MustCompile(`(?:^|[^\p{L}])(?:cm|m|km|mm|kg|g|l|dl|cl|ml|s|sek|min|h|tim|kr|m²|cm²|m³|cm³)(?:[^\p{L}\p{N}]|$)`)

// RepresentationUse scores use of diagrams, graphs and tables: 1 when used
// cleanly, 0.5 when flagged as wrong or unclear, 0 when absent.
func RepresentationUse(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	if !containsAny(lowered, representationWords) {
		return 0
	}
	if containsAny(lowered, representationDefects) {
		return 0.5
	}
	return 1
}

// ExplanationClarity rewards full sentences, math vocabulary and a step-by-step layout.
func ExplanationClarity(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	sentences := containsAny(lowered, sentencePunctuation)
	vocabulary := containsAny(lowered, mathLanguage)
	stepByStep := strings.Count(text, "\n") >= minStepByStepLineBreaks

	switch {
	case sentences && vocabulary && stepByStep:
		return 1
	case sentences || vocabulary:
		return 0.5
	default:
		return 0
	}
}

// UnitsHandling scores whether units are present and converted without flagged mistakes.
func UnitsHandling(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	if !unitPattern.MatchString(lowered) {
		return 0
	}

	conversions := strings.Contains(lowered, "=") || hasWord(tokenSet(lowered), unitConversionWords)
	if conversions && !containsAny(lowered, unitErrorPhrases) {
		return 1
	}
	return 0.5
}

// LanguageQuality scores precise mathematical language in a structured answer.
func LanguageQuality(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	informal := hasWord(tokenSet(lowered), informalWords)
	terms := containsAny(lowered, mathTerms)
	structured := strings.Contains(text, ".") || strings.Contains(text, "\n")

	switch {
	case terms && structured && !informal:
		return 1
	case terms || structured:
		return 0.5
	default:
		return 0
	}
}

// EdgeCaseHandling scores whether the student checks the answer and considers special cases.
func EdgeCaseHandling(text string) float64 {
	if isBlank(text) {
		return 0
	}

	lowered := strings.ToLower(text)
	verifies := containsAny(lowered, verificationMarkers)
	special := containsAny(lowered, specialCaseMarkers)

	switch {
	case verifies && special:
		return 1
	case verifies || special:
		return 0.5
	default:
		return 0
	}
}
