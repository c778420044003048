// Package features assembles the per-submission feature vector consumed by the grade model.
package features

import (
	"math"
	"time"

	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
	"github.com/noah-isme/edumate-go-api/internal/grading/textfeatures"
	"github.com/noah-isme/edumate-go-api/internal/grading/topic"
)

// Column names shared with the training pipeline.
const (
	Topic                 = "topic"
	Difficulty            = "difficulty_1to5"
	StepsCount            = "steps_count"
	StepsCompleteness     = "steps_completeness"
	ReasoningQuality      = "reasoning_quality"
	MethodAppropriateness = "method_appropriateness"
	RepresentationUse     = "representation_use"
	ExplanationClarity    = "explanation_clarity"
	UnitsHandling         = "units_handling"
	EdgeCaseHandling      = "edge_case_handling"
	LanguageQuality       = "language_quality"
	ComputationalErrors   = "computational_errors"
	ConceptualErrors      = "conceptual_errors"
	CorrectnessPct        = "correctness_pct"
	TimeMinutes           = "time_minutes"
	ExternalAidSuspected  = "external_aid_suspected"
	OriginalityScore      = "originality_score"
	RubricPoints          = "rubric_points"
)

// Schema is the canonical column order used when the model was trained.
var Schema = []string{
	Topic,
	Difficulty,
	StepsCount,
	StepsCompleteness,
	ReasoningQuality,
	MethodAppropriateness,
	RepresentationUse,
	ExplanationClarity,
	UnitsHandling,
	EdgeCaseHandling,
	LanguageQuality,
	ComputationalErrors,
	ConceptualErrors,
	CorrectnessPct,
	TimeMinutes,
	ExternalAidSuspected,
	OriginalityScore,
	RubricPoints,
}

var schemaIndex = func() map[string]int {
	idx := make(map[string]int, len(Schema))
	for i, name := range Schema {
		idx[name] = i
	}
	return idx
}()

// aidThreshold is the aid score above which a submission is flagged.
const aidThreshold = 0.5

// Input carries everything needed to describe one submission.
type Input struct {
	Text           string
	Description    string
	ExpectedAnswer string
	// Context is computed from Description when left empty.
	Context     topic.Context
	StartedAt   *time.Time
	SubmittedAt *time.Time
	// History holds the student's earlier submission texts.
	History []string
}

// Vector is a feature vector in Schema order. The topic column is kept as its label.
type Vector struct {
	topic  topic.Topic
	values []float64
}

// Build runs every extractor over the input.
func Build(in Input) Vector {
	ctx := in.Context
	if ctx.Topic == "" {
		ctx = topic.Classify(in.Description)
	}

	steps := textfeatures.StepsCount(in.Text)
	method := textfeatures.MethodAppropriateness(in.Text, in.Description)
	clarity := textfeatures.ExplanationClarity(in.Text)
	units := textfeatures.UnitsHandling(in.Text)
	compErrors := textfeatures.ComputationalErrors(in.Text)

	aid := textfeatures.ExternalAidSuspected(in.Text, in.History)
	suspected := 0.0
	if aid > aidThreshold {
		suspected = 1
	}

	v := Vector{topic: ctx.Topic, values: make([]float64, len(Schema))}
	v.set(Difficulty, float64(ctx.Difficulty))
	v.set(StepsCount, float64(steps))
	v.set(StepsCompleteness, textfeatures.StepsCompleteness(steps, topic.ExpectedSteps(ctx.Topic, ctx.Difficulty)))
	v.set(ReasoningQuality, textfeatures.ReasoningQuality(in.Text))
	v.set(MethodAppropriateness, method)
	v.set(RepresentationUse, textfeatures.RepresentationUse(in.Text))
	v.set(ExplanationClarity, clarity)
	v.set(UnitsHandling, units)
	v.set(EdgeCaseHandling, textfeatures.EdgeCaseHandling(in.Text))
	v.set(LanguageQuality, textfeatures.LanguageQuality(in.Text))
	v.set(ComputationalErrors, float64(compErrors))
	v.set(ConceptualErrors, float64(textfeatures.ConceptualErrors(in.Text)))
	v.set(CorrectnessPct, float64(textfeatures.CorrectnessPct(in.Text, in.ExpectedAnswer)))
	v.set(TimeMinutes, float64(textfeatures.TimeMinutes(in.StartedAt, in.SubmittedAt)))
	v.set(ExternalAidSuspected, suspected)
	v.set(OriginalityScore, math.Round((1-aid)*100)/100)
	v.set(RubricPoints, float64(scoring.RubricPoints(method, compErrors, clarity, units)))
	return v
}

func (v *Vector) set(name string, value float64) {
	v.values[schemaIndex[name]] = value
}

// Topic returns the topic label of the vector.
func (v Vector) Topic() topic.Topic {
	return v.topic
}

// Get returns a numeric feature. The topic column is not numeric and reports false.
func (v Vector) Get(name string) (float64, bool) {
	i, ok := schemaIndex[name]
	if !ok || name == Topic || i >= len(v.values) {
		return 0, false
	}
	return v.values[i], true
}

// Value is Get without the presence flag.
func (v Vector) Value(name string) float64 {
	value, _ := v.Get(name)
	return value
}

// Names returns the column names in schema order.
func (v Vector) Names() []string {
	names := make([]string, len(Schema))
	copy(names, Schema)
	return names
}

// Map returns the vector keyed by column name, topic as a string and every
// other column as float64.
func (v Vector) Map() map[string]any {
	m := make(map[string]any, len(Schema))
	for i, name := range Schema {
		if name == Topic {
			m[name] = string(v.topic)
			continue
		}
		if i < len(v.values) {
			m[name] = v.values[i]
		}
	}
	return m
}
