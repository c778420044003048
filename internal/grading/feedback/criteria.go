package feedback

import "github.com/noah-isme/edumate-go-api/internal/grading/features"

// DefaultTeacherComment is used when no generated comment is available.
const DefaultTeacherComment = "Bra försök! Fortsätt öva på att motivera varje steg tydligare."

// criterionThreshold is the score a criterion must exceed to count as met.
const criterionThreshold = 0.7

// Criteria lists which rubric criteria a submission met and what to improve.
type Criteria struct {
	Met          []string `json:"criteria_met"`
	Missed       []string `json:"criteria_missed"`
	Improvements []string `json:"improvement_suggestions"`
}

var criteriaRules = []struct {
	feature string
	met     string
	missed  string
}{
	{features.ReasoningQuality, "God resonemangsförmåga", "Bristande resonemang"},
	{features.ExplanationClarity, "Tydlig förklaring", "Förklaring behöver utvecklas"},
	{features.MethodAppropriateness, "Korrekt metodval", "Metodval behöver förbättras"},
}

var improvementRules = []struct {
	feature    string
	suggestion string
}{
	{features.ComputationalErrors, "Kontrollera beräkningarna – ett eller flera räknefel upptäcktes."},
	{features.ConceptualErrors, "Gå igenom de matematiska begreppen för att undvika missförstånd."},
}

const encouragement = "Fortsätt på samma sätt! Du visar tydligt förståelse."

// EvaluateCriteria thresholds the feature vector into met and missed criteria.
func EvaluateCriteria(v features.Vector) Criteria {
	c := Criteria{Met: []string{}, Missed: []string{}, Improvements: []string{}}

	for _, rule := range criteriaRules {
		if v.Value(rule.feature) > criterionThreshold {
			c.Met = append(c.Met, rule.met)
		} else {
			c.Missed = append(c.Missed, rule.missed)
		}
	}

	for _, rule := range improvementRules {
		if v.Value(rule.feature) > 0 {
			c.Improvements = append(c.Improvements, rule.suggestion)
		}
	}
	if len(c.Improvements) == 0 {
		c.Improvements = append(c.Improvements, encouragement)
	}

	return c
}
