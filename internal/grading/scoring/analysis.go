package scoring

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/noah-isme/edumate-go-api/internal/grading/textfeatures"
)

// Analysis holds the heuristic sub-scores of a submission, each in [0, 1].
type Analysis struct {
	Length                int     `json:"length"`
	WordCount             int     `json:"word_count"`
	ContentQuality        float64 `json:"content_quality"`
	MathematicalRigor     float64 `json:"mathematical_rigor"`
	StructureOrganization float64 `json:"structure_organization"`
	LanguageClarity       float64 `json:"language_clarity"`
	SubjectRelevance      float64 `json:"subject_relevance"`
	Completeness          float64 `json:"completeness"`
}

// Map renders the analysis the way it is persisted with a score.
func (a Analysis) Map() map[string]any {
	return map[string]any{
		"length":                 a.Length,
		"word_count":             a.WordCount,
		"content_quality":        a.ContentQuality,
		"mathematical_rigor":     a.MathematicalRigor,
		"structure_organization": a.StructureOrganization,
		"language_clarity":       a.LanguageClarity,
		"subject_relevance":      a.SubjectRelevance,
		"completeness":           a.Completeness,
	}
}

func mustCompileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

func countMatching(text string, patterns []*regexp.Regexp) int {
	found := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			found++
		}
	}
	return found
}

var (
	depthIndicators = mustCompileAll(
		`(?i)(därför|therefore|således|hence|consequently)`,
		`(?i)(eftersom|because|due to|på grund av)`,
		`(?i)(exempelvis|till exempel|for example|such as)`,
		`(?i)(kontroll|verification|check|verifi)`,
		`(?i)(analys|analysis|undersök|investigate)`,
		`(?i)(steg|step)`,
		`(?i)(lösning|solution)`,
		`(?i)(given|givet)`,
		`(?i)(slutsats|conclusion)`,
		`(?i)(identifiera|identify)`,
	)
	sentenceBreak = regexp.MustCompile(`[.!?]+`)

	mathSymbols = mustCompileAll(
		`[=≠<>≤≥≈]`,
		`[+\-×÷*/^]`,
		`∫|∑|∏|√|∆|∂`,
		`(?i)[αβγδεθλμπσφψω]`,
		`(?i)sin|cos|tan|log|ln|exp|lim`,
		`\d+[\.,]\d+`,
		`(?i)x\^?\d+|x²|x³|y²|y³`,
		`\d+`,
		`(?i)[xyz]`,
		`→|⇒`,
	)
	mathStructures = mustCompileAll(
		`(?i)(lösning|solution|svar|answer)`,
		`(?i)(bevis|proof|visa|show)`,
		`(?i)(given|givet|antag|assume)`,
		`(?i)(därför|therefore|thus|så)`,
		`(?i)(steg \d+|step \d+|\d+\))`,
		`(?i)(ekvation|equation)`,
		`(?i)(faktor|factor)`,
		`(?i)(andragrad|quadratic)`,
		`(?i)(standardform|standard form)`,
		`(?i)(nollprodukt|zero product)`,
	)
	approachBonuses = []struct {
		pattern *regexp.Regexp
		bonus   float64
	}{
		{regexp.MustCompile(`(?i)(kontroll|check|verifi)`), 0.08},
		{regexp.MustCompile(`(?i)(substitution|insättning|ersätt)`), 0.04},
		{regexp.MustCompile(`(?i)(multipliceras|adderas|×|\+)`), 0.04},
		{regexp.MustCompile(`(?i)(nollprodukt|zero product)`), 0.04},
	}

	numberedStep    = regexp.MustCompile(`(?i)(steg \d+|step \d+)`)
	letteredSection = regexp.MustCompile(`(a\)|b\)|c\)|d\))`)
	numberedSection = regexp.MustCompile(`(1\.|2\.|3\.|4\.)`)

	punctuation    = regexp.MustCompile(`[.!?]`)
	technicalTerms = regexp.MustCompile(`(?i)(ekvation|funktion|derivata|integral|gränsvärde|asymptot|koefficient)`)
	informalTerms  = map[string]struct{}{"typ": {}, "liksom": {}, "asså": {}, "kanske": {}}

	mathTopics = mustCompileAll(
		`(?i)(algebra|geometri|trigonometri|kalkyl|statistik)`,
		`(?i)(ekvation|funktion|graf|koordinat)`,
		`(?i)(sannolikhet|frekvens|medelvärde)`,
		`(?i)(derivata|integral|gränsvärde)`,
		`(?i)(vektor|matris|determinant)`,
		`(?i)(andragrad|kvadrat|faktor)`,
		`(\d+.*[×\*].*\d+|\d+.*\+.*\d+)`,
		`(?i)(lösning|solution|svar)`,
		`(?i)(multipliceras|adderas)`,
	)

	conclusionMarker = regexp.MustCompile(`(?i)(svar|answer|slutsats|conclusion|resultat|result):`)
	workMarker       = regexp.MustCompile(`(=|→|⇒|därför|så)`)
)

// Analyze runs every heuristic analyser over a submission.
func Analyze(text, subject string) Analysis {
	return Analysis{
		Length:                utf8.RuneCountInString(text),
		WordCount:             len(strings.Fields(text)),
		ContentQuality:        contentQuality(text),
		MathematicalRigor:     mathematicalRigor(text),
		StructureOrganization: structureOrganization(text),
		LanguageClarity:       languageClarity(text),
		SubjectRelevance:      subjectRelevance(text, subject),
		Completeness:          completeness(text),
	}
}

func contentQuality(text string) float64 {
	score := 0.2

	length := utf8.RuneCountInString(text)
	switch {
	case length >= 400 && length <= 2000:
		score += 0.4
	case (length >= 200 && length < 400) || (length > 2000 && length <= 3000):
		score += 0.3
	case length >= 100 && length < 200:
		score += 0.2
	case length > 50:
		score += 0.1
	}

	score += min(0.4, float64(countMatching(text, depthIndicators))*0.05)

	sentences := sentenceBreak.Split(text, -1)
	switch {
	case len(sentences) > 5:
		words := 0
		for _, s := range sentences {
			words += len(strings.Fields(s))
		}
		avg := float64(words) / float64(len(sentences))
		switch {
		case avg >= 8 && avg <= 25:
			score += 0.3
		case (avg >= 5 && avg < 8) || (avg > 25 && avg <= 35):
			score += 0.2
		default:
			score += 0.1
		}
	case len(sentences) > 2:
		score += 0.15
	}

	return min(1, score)
}

func mathematicalRigor(text string) float64 {
	score := 0.1
	score += min(0.4, float64(countMatching(text, mathSymbols))*0.02)
	score += min(0.4, float64(countMatching(text, mathStructures))*0.04)
	for _, b := range approachBonuses {
		if b.pattern.MatchString(text) {
			score += b.bonus
		}
	}
	return min(1, score)
}

func structureOrganization(text string) float64 {
	score := 0.1

	switch steps := len(numberedStep.FindAllString(text, -1)); {
	case steps >= 4:
		score += 0.3
	case steps >= 2:
		score += 0.2
	case steps >= 1:
		score += 0.1
	}

	if letteredSection.MatchString(text) {
		score += 0.1
	}
	if numberedSection.MatchString(text) {
		score += 0.1
	}

	switch equations := strings.Count(text, "="); {
	case equations >= 5:
		score += 0.3
	case equations >= 3:
		score += 0.2
	case equations >= 1:
		score += 0.1
	}

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}
	switch {
	case paragraphs >= 4:
		score += 0.2
	case paragraphs >= 2:
		score += 0.1
	}

	return min(1, score)
}

func languageClarity(text string) float64 {
	score := 0.5

	words := textfeatures.Words(text)
	if len(words) > 20 {
		score += 0.2
	}
	if punctuation.MatchString(text) {
		score += 0.15
	}
	if technicalTerms.MatchString(text) {
		score += 0.15
	}

	informal := 0
	for _, w := range words {
		if _, ok := informalTerms[w]; ok {
			informal++
		}
	}
	switch {
	case informal == 0:
		score += 0.1
	case informal > 3:
		score -= 0.1
	}

	return clamp01(score)
}

func subjectRelevance(text, subject string) float64 {
	if !isMathematics(subject) {
		return 0.5
	}
	return min(1, 0.5+float64(countMatching(text, mathTopics))*0.15)
}

func isMathematics(subject string) bool {
	s := strings.ToLower(strings.TrimSpace(subject))
	return s == "mathematics" || s == "matematik"
}

func completeness(text string) float64 {
	score := 0.0
	if conclusionMarker.MatchString(text) {
		score += 0.4
	}
	if workMarker.MatchString(text) {
		score += 0.3
	}
	if utf8.RuneCountInString(text) > 200 {
		score += 0.3
	}
	return min(1, score)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
