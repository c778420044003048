package prediction

import (
	"errors"
	"fmt"
)

// UnseenCategory is the code assigned to a label the encoder was not fitted on.
const UnseenCategory = -1

// LabelEncoder maps labels to the integer codes used at training time.
// Classes must be sorted and unique, which is how the training side stores them.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder builds an encoder over the recorded class list.
func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}

	index := make(map[string]int, len(classes))
	for i, class := range classes {
		if i > 0 && classes[i-1] >= class {
			return nil, fmt.Errorf("label encoder classes must be sorted and unique: %q before %q", classes[i-1], class)
		}
		index[class] = i
	}

	stored := make([]string, len(classes))
	copy(stored, classes)
	return &LabelEncoder{classes: stored, index: index}, nil
}

// Transform returns the code for label and whether the label is known.
func (e *LabelEncoder) Transform(label string) (int, bool) {
	code, ok := e.index[label]
	if !ok {
		return UnseenCategory, false
	}
	return code, true
}

// Inverse returns the label for code.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("label code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// Classes returns a copy of the fitted classes in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Len is the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}
