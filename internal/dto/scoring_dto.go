package dto

import (
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
)

// ScoreRequest asks for a heuristic score of a free-text answer.
type ScoreRequest struct {
	Text         string `json:"text" validate:"max=20000"`
	Subject      string `json:"subject" validate:"omitempty,max=64"`
	Description  string `json:"description" validate:"max=5000"`
	SubmissionID *uint  `json:"submission_id" validate:"omitempty,gt=0"`
}

// BatchScoreRequest scores several texts in one call.
type BatchScoreRequest struct {
	Items []ScoreRequest `json:"items" validate:"required,min=1,max=100"`
}

// BatchScoreItem is the outcome for one entry of a batch, in request order.
type BatchScoreItem struct {
	Index      int                      `json:"index"`
	Prediction *scoring.ScorePrediction `json:"prediction,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

// BatchScoreResponse summarizes a batch scoring run.
type BatchScoreResponse struct {
	Results      []BatchScoreItem `json:"results"`
	Scored       int              `json:"scored"`
	Disqualified int              `json:"disqualified"`
	Failed       int              `json:"failed"`
}

// PredictRequest asks the grade model for a letter grade.
// Either Features or Text must be present; Text is turned into features first.
type PredictRequest struct {
	Features       map[string]any `json:"features" validate:"required_without=Text"`
	Text           string         `json:"text" validate:"max=20000"`
	Description    string         `json:"description" validate:"max=5000"`
	ExpectedAnswer string         `json:"expected_answer" validate:"max=2000"`
}

// PredictResponse carries the predicted grade.
type PredictResponse struct {
	prediction.Result
	Features map[string]any `json:"features,omitempty"`
}

// FeedbackRequest selects feedback for a band and subject.
type FeedbackRequest struct {
	Band    string `json:"band" validate:"required"`
	Subject string `json:"subject" validate:"required"`
}

// MLHealthResponse reports the scoring and prediction components.
type MLHealthResponse struct {
	Status    string            `json:"status"`
	Scorer    string            `json:"scorer"`
	Predictor prediction.Status `json:"predictor"`
}
