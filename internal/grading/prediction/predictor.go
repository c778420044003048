package prediction

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// topicFeature is the one categorical column; it goes through the topic encoder.
const topicFeature = "topic"

// Result is a successful grade prediction.
type Result struct {
	Grade         string             `json:"grade"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"model_version"`
}

// Predictor applies a trained classifier under the encoding contract of its manifest.
// It is immutable and safe for concurrent use.
type Predictor struct {
	manifest   Manifest
	topics     *LabelEncoder
	grades     *LabelEncoder
	classifier Classifier
}

// NewPredictor pairs a manifest with a loaded classifier.
func NewPredictor(m Manifest, classifier Classifier) (*Predictor, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if classifier == nil {
		return nil, fmt.Errorf("classifier is nil")
	}

	grades, err := NewLabelEncoder(m.GradeClasses)
	if err != nil {
		return nil, fmt.Errorf("grade encoder: %w", err)
	}
	if classifier.NumClasses() != grades.Len() {
		return nil, fmt.Errorf("classifier scores %d classes, manifest lists %d grades", classifier.NumClasses(), grades.Len())
	}

	var topics *LabelEncoder
	if len(m.TopicClasses) > 0 {
		if topics, err = NewLabelEncoder(m.TopicClasses); err != nil {
			return nil, fmt.Errorf("topic encoder: %w", err)
		}
	}

	return &Predictor{manifest: m, topics: topics, grades: grades, classifier: classifier}, nil
}

// Manifest returns the artifact description the predictor was built from.
func (p *Predictor) Manifest() Manifest {
	return p.manifest
}

// TopicEncoder returns the topic encoder, nil when the model has no topic column.
func (p *Predictor) TopicEncoder() *LabelEncoder {
	return p.topics
}

// Vectorize projects a feature mapping onto the training column order. Missing
// columns and values that cannot be read as finite numbers become 0; a topic
// label the encoder has never seen becomes UnseenCategory.
func (p *Predictor) Vectorize(features map[string]any) []float64 {
	row := make([]float64, len(p.manifest.FeatureOrder))
	for i, name := range p.manifest.FeatureOrder {
		value, ok := features[name]
		if !ok || value == nil {
			continue
		}
		if name == topicFeature {
			if label, isLabel := asString(value); isLabel {
				row[i] = float64(p.encodeTopic(label))
				continue
			}
		}
		row[i] = coerce(value)
	}
	return row
}

func (p *Predictor) encodeTopic(label string) int {
	if p.topics == nil {
		return UnseenCategory
	}
	code, _ := p.topics.Transform(label)
	return code
}

// Predict runs the full pipeline for one feature mapping. Every failure,
// including a panic inside the classifier, comes back as *PredictionError.
func (p *Predictor) Predict(features map[string]any) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
			err = &PredictionError{Stage: "classify", Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	row := p.Vectorize(features)

	class, probs, err := p.classifier.Predict(row)
	if err != nil {
		return Result{}, &PredictionError{Stage: "classify", Err: err}
	}

	grade, err := p.grades.Inverse(class)
	if err != nil {
		return Result{}, &PredictionError{Stage: "decode", Err: err}
	}

	probabilities := make(map[string]float64, len(probs))
	for i, prob := range probs {
		if label, labelErr := p.grades.Inverse(i); labelErr == nil {
			probabilities[label] = prob
		}
	}

	return Result{
		Grade:         grade,
		Confidence:    probabilities[grade],
		Probabilities: probabilities,
		ModelVersion:  p.manifest.ModelVersion,
	}, nil
}

func asString(value any) (string, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

// coerce reads value as a finite float64, or 0 when that is not possible.
func coerce(value any) float64 {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case bool:
		if v {
			f = 1
		}
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	default:
		s, ok := asString(value)
		if !ok {
			return 0
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0
		}
		f = parsed
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
