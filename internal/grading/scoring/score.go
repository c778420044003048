package scoring

import "strings"

var scoreWeights = []struct {
	value  func(Analysis) float64
	weight float64
}{
	{func(a Analysis) float64 { return a.ContentQuality }, 0.25},
	{func(a Analysis) float64 { return a.MathematicalRigor }, 0.30},
	{func(a Analysis) float64 { return a.StructureOrganization }, 0.20},
	{func(a Analysis) float64 { return a.LanguageClarity }, 0.10},
	{func(a Analysis) float64 { return a.SubjectRelevance }, 0.10},
	{func(a Analysis) float64 { return a.Completeness }, 0.05},
}

// effortBonuses is keyed on the weighted sum itself; only the first matching tier applies.
// Low and mid effort deliberately earn as much as excellent work.
var effortBonuses = []struct {
	above float64
	bonus float64
}{
	{0.70, 0.15},
	{0.50, 0.12},
	{0.35, 0.15},
	{0.25, 0.15},
	{0.15, 0.10},
}

const (
	comprehensiveThreshold = 0.8
	comprehensiveBonus     = 0.05
	mathEffortBonus        = 0.05
)

// FinalScore combines the sub-scores into a 0-100 score.
func FinalScore(a Analysis) float64 {
	score := 0.0
	for _, w := range scoreWeights {
		score += w.value(a) * w.weight
	}

	for _, tier := range effortBonuses {
		if score > tier.above {
			score += tier.bonus
			break
		}
	}

	if a.Completeness >= comprehensiveThreshold &&
		a.StructureOrganization >= comprehensiveThreshold &&
		a.MathematicalRigor >= comprehensiveThreshold {
		score += comprehensiveBonus
	}
	if a.MathematicalRigor >= 0.3 {
		score += mathEffortBonus
	}
	if a.MathematicalRigor >= 0.2 {
		score += mathEffortBonus
	}

	return clamp01(score) * 100
}

// Confidence estimates how much the heuristic score can be trusted, in [0, 1].
func Confidence(a Analysis, score float64) float64 {
	confidence := 0.5
	confidence += min(1, float64(a.Length)/1000) * 0.2
	confidence += a.MathematicalRigor * 0.2
	if score < 20 || score > 95 {
		confidence *= 0.8
	}
	confidence += a.StructureOrganization * 0.1
	return min(1, confidence)
}

type phraseTier struct {
	min    float64
	phrase string
}

func pickPhrase(value float64, tiers []phraseTier) string {
	for _, t := range tiers {
		if value >= t.min {
			return t.phrase
		}
	}
	return ""
}

var (
	contentPhrases = []phraseTier{
		{0.9, "exceptional content quality"},
		{0.7, "excellent content quality"},
		{0.5, "good content quality"},
		{0.3, "adequate content quality"},
		{0, "basic content quality"},
	}
	rigorPhrases = []phraseTier{
		{0.9, "exceptional mathematical rigor"},
		{0.7, "strong mathematical rigor"},
		{0.5, "good mathematical content"},
		{0.3, "adequate mathematical content"},
		{0, "limited mathematical content"},
	}
	structurePhrases = []phraseTier{
		{0.9, "exceptional organization"},
		{0.7, "excellent organization"},
		{0.5, "well-organized structure"},
		{0.3, "decent organization"},
		{0, "needs better organization"},
	}
	completenessPhrases = []phraseTier{
		{0.8, "comprehensive solution"},
		{0.6, "complete work shown"},
	}
)

// Explain renders a one-line, human-readable reason for a score.
func Explain(a Analysis) string {
	components := []string{
		pickPhrase(a.ContentQuality, contentPhrases),
		pickPhrase(a.MathematicalRigor, rigorPhrases),
		pickPhrase(a.StructureOrganization, structurePhrases),
	}
	if phrase := pickPhrase(a.Completeness, completenessPhrases); phrase != "" {
		components = append(components, phrase)
	}
	return "Score based on " + strings.Join(components, ", ")
}
