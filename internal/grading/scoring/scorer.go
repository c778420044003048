package scoring

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/noah-isme/edumate-go-api/internal/grading/topic"
)

const (
	// DefaultMinLength is the shortest trimmed submission that is scored.
	DefaultMinLength = 50
	// DefaultModelName identifies the heuristic scorer in persisted results.
	DefaultModelName = "EduMate_Scorer_v1"
)

// Config tunes the heuristic scorer.
type Config struct {
	MinLength int
	ModelName string
}

// ScorePrediction is the outcome of scoring one submission. Score and Band are
// nil when the submission was disqualified.
type ScorePrediction struct {
	Score            *float64       `json:"score"`
	Band             *Band          `json:"band"`
	Confidence       float64        `json:"confidence"`
	Reason           string         `json:"reason"`
	ProcessingTimeMs float64        `json:"processing_time_ms"`
	AnalysisData     map[string]any `json:"analysis_data"`
	ModelUsed        string         `json:"model_used"`
}

// Disqualified reports whether the submission was rejected before analysis.
func (p ScorePrediction) Disqualified() bool {
	return p.Score == nil
}

// Equal compares two predictions, ignoring processing time.
func (p ScorePrediction) Equal(other ScorePrediction) bool {
	if (p.Score == nil) != (other.Score == nil) || (p.Band == nil) != (other.Band == nil) {
		return false
	}
	if p.Score != nil && *p.Score != *other.Score {
		return false
	}
	if p.Band != nil && *p.Band != *other.Band {
		return false
	}
	return p.Confidence == other.Confidence &&
		p.Reason == other.Reason &&
		p.ModelUsed == other.ModelUsed &&
		reflect.DeepEqual(p.AnalysisData, other.AnalysisData)
}

// Scorer produces heuristic scores. It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	cfg Config
}

// NewScorer constructs a scorer, filling unset configuration with defaults.
func NewScorer(cfg Config) *Scorer {
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinLength
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	return &Scorer{cfg: cfg}
}

// ModelName returns the identifier stored with each prediction.
func (s *Scorer) ModelName() string {
	return s.cfg.ModelName
}

// Score analyses a submission for a subject. description is optional; when set
// the assignment topic and difficulty are included in the analysis data.
func (s *Scorer) Score(text, subject, description string) ScorePrediction {
	started := time.Now()

	length := utf8.RuneCountInString(strings.TrimSpace(text))
	if length < s.cfg.MinLength {
		return ScorePrediction{
			Confidence:       0,
			Reason:           fmt.Sprintf("Submission too short (minimum %d characters required)", s.cfg.MinLength),
			ProcessingTimeMs: elapsedMs(started),
			AnalysisData:     map[string]any{"error": "insufficient_length", "length": length},
			ModelUsed:        s.cfg.ModelName,
		}
	}

	analysis := Analyze(text, subject)
	raw := FinalScore(analysis)
	score := math.Round(raw*10) / 10
	band := BandFor(score)

	data := analysis.Map()
	if strings.TrimSpace(description) != "" {
		ctx := topic.Classify(description)
		data["topic"] = string(ctx.Topic)
		data["difficulty"] = ctx.Difficulty
	}

	return ScorePrediction{
		Score:            &score,
		Band:             &band,
		Confidence:       math.Round(Confidence(analysis, raw)*100) / 100,
		Reason:           Explain(analysis),
		ProcessingTimeMs: elapsedMs(started),
		AnalysisData:     data,
		ModelUsed:        s.cfg.ModelName,
	}
}

func elapsedMs(started time.Time) float64 {
	return float64(time.Since(started).Microseconds()) / 1000
}
