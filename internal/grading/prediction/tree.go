package prediction

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Classifier maps a feature row to a class code and per-class probabilities.
type Classifier interface {
	Predict(x []float64) (class int, probs []float64, err error)
	NumClasses() int
}

type objective string

const (
	objectiveSoftprob objective = "multi:softprob"
	objectiveSoftmax  objective = "multi:softmax"
	objectiveLogistic objective = "binary:logistic"
)

// TreeEnsemble evaluates a gradient-boosted tree model saved in XGBoost's JSON format.
type TreeEnsemble struct {
	trees      []regressionTree
	treeClass  []int
	baseMargin []float64
	numClass   int
	numFeature int
	objective  objective
}

type regressionTree struct {
	left        []int
	right       []int
	feature     []int
	condition   []float64
	defaultLeft []bool
}

// LoadTreeEnsemble reads an XGBoost JSON model from path.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseTreeEnsemble(raw)
}

// ParseTreeEnsemble decodes an XGBoost JSON model.
func ParseTreeEnsemble(raw []byte) (*TreeEnsemble, error) {
	var doc xgbDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}

	learner := doc.Learner
	if name := learner.GradientBooster.Name; name != "" && name != "gbtree" {
		return nil, fmt.Errorf("booster %q not supported", name)
	}

	obj := objective(learner.Objective.Name)
	switch obj {
	case objectiveSoftprob, objectiveSoftmax, objectiveLogistic:
	default:
		return nil, fmt.Errorf("objective %q not supported", learner.Objective.Name)
	}

	numClass, err := parseIntParam(learner.ModelParam.NumClass, 0)
	if err != nil {
		return nil, fmt.Errorf("num_class: %w", err)
	}
	numFeature, err := parseIntParam(learner.ModelParam.NumFeature, 0)
	if err != nil {
		return nil, fmt.Errorf("num_feature: %w", err)
	}

	outputs := numClass
	if obj == objectiveLogistic {
		numClass, outputs = 2, 1
	}
	if outputs < 1 {
		return nil, errors.New("model has no classes")
	}

	base, err := parseBaseScore(learner.ModelParam.BaseScore, outputs)
	if err != nil {
		return nil, err
	}
	if obj == objectiveLogistic {
		base[0] = logit(base[0])
	}

	model := learner.GradientBooster.Model
	if len(model.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	if len(model.TreeInfo) != len(model.Trees) {
		return nil, fmt.Errorf("tree_info has %d entries for %d trees", len(model.TreeInfo), len(model.Trees))
	}

	ensemble := &TreeEnsemble{
		trees:      make([]regressionTree, 0, len(model.Trees)),
		treeClass:  make([]int, len(model.TreeInfo)),
		baseMargin: base,
		numClass:   numClass,
		numFeature: numFeature,
		objective:  obj,
	}
	for i, group := range model.TreeInfo {
		if group < 0 || group >= outputs {
			return nil, fmt.Errorf("tree %d targets output %d of %d", i, group, outputs)
		}
		ensemble.treeClass[i] = group
	}
	for i, t := range model.Trees {
		tree, err := t.compile()
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		ensemble.trees = append(ensemble.trees, tree)
	}

	return ensemble, nil
}

// NumClasses is the number of labels the model scores.
func (e *TreeEnsemble) NumClasses() int {
	return e.numClass
}

// NumFeatures is the row width recorded in the model, 0 when unknown.
func (e *TreeEnsemble) NumFeatures() int {
	return e.numFeature
}

// Predict returns the most probable class and the class probabilities.
func (e *TreeEnsemble) Predict(x []float64) (int, []float64, error) {
	if e.numFeature > 0 && len(x) != e.numFeature {
		return 0, nil, fmt.Errorf("feature row has %d values, model expects %d", len(x), e.numFeature)
	}

	margins := make([]float64, len(e.baseMargin))
	copy(margins, e.baseMargin)
	for i, tree := range e.trees {
		leaf, err := tree.leafValue(x)
		if err != nil {
			return 0, nil, fmt.Errorf("tree %d: %w", i, err)
		}
		margins[e.treeClass[i]] += leaf
	}

	var probs []float64
	if e.objective == objectiveLogistic {
		p := 1 / (1 + math.Exp(-margins[0]))
		probs = []float64{1 - p, p}
	} else {
		probs = softmax(margins)
	}

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best, probs, nil
}

func (t regressionTree) leafValue(x []float64) (float64, error) {
	node := 0
	for steps := 0; steps <= len(t.left); steps++ {
		if t.left[node] == -1 {
			return t.condition[node], nil
		}

		f := t.feature[node]
		if f < 0 || f >= len(x) {
			return 0, fmt.Errorf("split on feature %d outside row of %d", f, len(x))
		}

		// XGBoost stores and compares split values in single precision.
		v := x[f]
		switch {
		case math.IsNaN(v):
			if t.defaultLeft[node] {
				node = t.left[node]
			} else {
				node = t.right[node]
			}
		case float32(v) < float32(t.condition[node]):
			node = t.left[node]
		default:
			node = t.right[node]
		}
	}
	return 0, errors.New("tree walk did not reach a leaf")
}

func softmax(margins []float64) []float64 {
	maxMargin := math.Inf(-1)
	for _, m := range margins {
		maxMargin = math.Max(maxMargin, m)
	}

	probs := make([]float64, len(margins))
	sum := 0.0
	for i, m := range margins {
		probs[i] = math.Exp(m - maxMargin)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func logit(p float64) float64 {
	if p <= 0 || p >= 1 {
		return 0
	}
	return math.Log(p / (1 - p))
}

type xgbDocument struct {
	Learner struct {
		GradientBooster struct {
			Name  string `json:"name"`
			Model struct {
				Trees    []xgbTree `json:"trees"`
				TreeInfo []int     `json:"tree_info"`
			} `json:"model"`
		} `json:"gradient_booster"`
		ModelParam struct {
			BaseScore  string `json:"base_score"`
			NumClass   string `json:"num_class"`
			NumFeature string `json:"num_feature"`
		} `json:"learner_model_param"`
		Objective struct {
			Name string `json:"name"`
		} `json:"objective"`
	} `json:"learner"`
}

type xgbTree struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     flexBools `json:"default_left"`
	CategoriesNodes []int     `json:"categories_nodes"`
}

func (t xgbTree) compile() (regressionTree, error) {
	n := len(t.LeftChildren)
	if n == 0 {
		return regressionTree{}, errors.New("empty tree")
	}
	if len(t.RightChildren) != n || len(t.SplitIndices) != n || len(t.SplitConditions) != n {
		return regressionTree{}, errors.New("node arrays differ in length")
	}
	if len(t.CategoriesNodes) > 0 {
		return regressionTree{}, errors.New("categorical splits not supported")
	}

	defaultLeft := make([]bool, n)
	copy(defaultLeft, t.DefaultLeft)

	for i := 0; i < n; i++ {
		l, r := t.LeftChildren[i], t.RightChildren[i]
		if (l == -1) != (r == -1) {
			return regressionTree{}, fmt.Errorf("node %d has a single child", i)
		}
		if l >= n || r >= n || l < -1 || r < -1 {
			return regressionTree{}, fmt.Errorf("node %d points outside the tree", i)
		}
	}

	return regressionTree{
		left:        t.LeftChildren,
		right:       t.RightChildren,
		feature:     t.SplitIndices,
		condition:   t.SplitConditions,
		defaultLeft: defaultLeft,
	}, nil
}

// flexBools accepts both 0/1 integers and JSON booleans.
type flexBools []bool

func (b *flexBools) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]bool, len(raw))
	for i, item := range raw {
		switch s := strings.TrimSpace(string(item)); s {
		case "true", "1":
			out[i] = true
		case "false", "0":
			out[i] = false
		default:
			return fmt.Errorf("default_left[%d]: unexpected value %s", i, s)
		}
	}
	*b = out
	return nil
}

func parseIntParam(value string, fallback int) (int, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

// parseBaseScore handles both the scalar "5E-1" and the bracketed per-output form.
func parseBaseScore(value string, outputs int) ([]float64, error) {
	value = strings.TrimSpace(value)
	base := make([]float64, outputs)
	if value == "" {
		return base, nil
	}

	parts := []string{value}
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		parts = strings.Split(strings.Trim(value, "[]"), ",")
	}

	parsed := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("base_score %q: %w", value, err)
		}
		parsed = append(parsed, f)
	}

	switch len(parsed) {
	case 1:
		for i := range base {
			base[i] = parsed[0]
		}
	case outputs:
		copy(base, parsed)
	default:
		return nil, fmt.Errorf("base_score has %d values for %d outputs", len(parsed), outputs)
	}
	return base, nil
}
