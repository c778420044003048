package prediction

import (
	"errors"
	"fmt"
)

// NotAvailable is the grade reported when no prediction could be made.
const NotAvailable = "N/A"

// ErrModelUnavailable indicates the model artifacts are not loaded.
var ErrModelUnavailable = errors.New("grade model unavailable")

// PredictionError reports a failure inside the prediction pipeline for one feature set.
type PredictionError struct {
	Stage string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("grade prediction failed during %s: %v", e.Stage, e.Err)
}

func (e *PredictionError) Unwrap() error {
	return e.Err
}

// GradeOrSentinel returns the predicted grade, or NotAvailable when err is set,
// so batch callers can keep going after one failed prediction.
func GradeOrSentinel(result Result, err error) string {
	if err != nil || result.Grade == "" {
		return NotAvailable
	}
	return result.Grade
}
