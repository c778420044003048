package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/models"
)

// SubmissionCreateRequest describes a written solution sent for scoring.
type SubmissionCreateRequest struct {
	AssignmentID uint       `json:"assignment_id" form:"assignment_id" validate:"required,gt=0"`
	StudentID    uint       `json:"student_id" form:"student_id" validate:"required,gt=0"`
	Text         string     `json:"text" validate:"required,max=20000"`
	StartedAt    *time.Time `json:"started_at"`
}

// SubmissionFilter describes query string filters for listing submissions.
type SubmissionFilter struct {
	AssignmentID *uint   `query:"assignment_id"`
	StudentID    *uint   `query:"student_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=submitted scored reviewed"`
}

// SaveFeedbackRequest carries feedback written by a teacher.
type SaveFeedbackRequest struct {
	FeedbackText string `json:"feedback_text" validate:"required,min=3,max=5000"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint           `json:"id"`
	AssignmentID    uint           `json:"assignment_id"`
	StudentID       uint           `json:"student_id"`
	Text            string         `json:"text"`
	Status          string         `json:"status"`
	StartedAt       *time.Time     `json:"started_at"`
	SubmittedAt     *time.Time     `json:"submitted_at"`
	IsLate          bool           `json:"is_late"`
	PredictedGrade  string         `json:"predicted_grade"`
	RubricPoints    int            `json:"rubric_points"`
	TeacherFeedback string         `json:"teacher_feedback,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	Assignment      AssignmentLite `json:"assignment"`
	Student         StudentLite    `json:"student"`
}

// AssignmentLite summarizes an assignment in submission responses.
type AssignmentLite struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Topic   string `json:"topic"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	SchoolClass string `json:"school_class,omitempty"`
}

// AIScoreResponse serializes a stored model score.
type AIScoreResponse struct {
	PredictedScore *float64       `json:"predicted_score"`
	PredictedBand  string         `json:"predicted_band"`
	Confidence     float64        `json:"confidence"`
	Reason         string         `json:"reason"`
	ModelVersion   string         `json:"model_version"`
	ModelUsed      string         `json:"model_used"`
	AnalysisData   map[string]any `json:"analysis_data"`
	PredictedAt    time.Time      `json:"predicted_at"`
}

// AIFeedbackResponse serializes a stored feedback entry.
type AIFeedbackResponse struct {
	ID                     uint      `json:"id"`
	FeedbackText           string    `json:"feedback_text"`
	FeedbackType           string    `json:"feedback_type"`
	CriteriaMet            []string  `json:"criteria_met"`
	CriteriaMissed         []string  `json:"criteria_missed"`
	ImprovementSuggestions []string  `json:"improvement_suggestions"`
	ModelUsed              string    `json:"model_used"`
	CreatedAt              time.Time `json:"created_at"`
}

// SubmissionResultResponse is returned after a submission has been scored.
type SubmissionResultResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Score      AIScoreResponse    `json:"score"`
	Feedback   AIFeedbackResponse `json:"feedback"`
	Criteria   feedback.Criteria  `json:"criteria"`
}

// SubmissionFeedbackResponse lists the stored score and feedback for a submission.
type SubmissionFeedbackResponse struct {
	SubmissionID   uint                 `json:"submission_id"`
	PredictedGrade string               `json:"predicted_grade"`
	Score          *AIScoreResponse     `json:"score"`
	Feedback       []AIFeedbackResponse `json:"feedback"`
}

// criteriaSeparator joins criteria lists in storage.
const criteriaSeparator = ", "

// JoinCriteria flattens a criteria list for storage.
func JoinCriteria(items []string) string {
	return strings.Join(items, criteriaSeparator)
}

// SplitCriteria reverses JoinCriteria.
func SplitCriteria(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	return strings.Split(value, criteriaSeparator)
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		AssignmentID:    model.AssignmentID,
		StudentID:       model.StudentID,
		Text:            model.Text,
		Status:          model.Status,
		StartedAt:       model.StartedAt,
		SubmittedAt:     model.SubmittedAt,
		IsLate:          model.IsLate,
		PredictedGrade:  model.PredictedGrade,
		RubricPoints:    model.RubricPoints,
		TeacherFeedback: model.TeacherFeedback,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Assignment.ID != 0 {
		response.Assignment = AssignmentLite{
			ID:      model.Assignment.ID,
			Title:   model.Assignment.Title,
			Subject: model.Assignment.Subject,
			Topic:   model.Assignment.Topic,
		}
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:          model.Student.ID,
			Name:        model.Student.Name,
			Email:       model.Student.Email,
			SchoolClass: model.Student.SchoolClass,
		}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(items []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(items))
	for _, submission := range items {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}

// NewAIScoreResponse converts a stored score into a DTO.
func NewAIScoreResponse(model models.AIScore) AIScoreResponse {
	return AIScoreResponse{
		PredictedScore: model.PredictedScore,
		PredictedBand:  model.PredictedBand,
		Confidence:     model.Confidence,
		Reason:         model.Reason,
		ModelVersion:   model.ModelVersion,
		ModelUsed:      model.ModelUsed,
		AnalysisData:   map[string]any(model.AnalysisData),
		PredictedAt:    model.PredictedAt,
	}
}

// NewAIFeedbackResponse converts a stored feedback entry into a DTO.
func NewAIFeedbackResponse(model models.AIFeedback) AIFeedbackResponse {
	return AIFeedbackResponse{
		ID:                     model.ID,
		FeedbackText:           model.FeedbackText,
		FeedbackType:           model.FeedbackType,
		CriteriaMet:            SplitCriteria(model.CriteriaMet),
		CriteriaMissed:         SplitCriteria(model.CriteriaMissed),
		ImprovementSuggestions: splitSentences(model.ImprovementSuggestions),
		ModelUsed:              model.ModelUsed,
		CreatedAt:              model.CreatedAt,
	}
}

// JoinSuggestions stores improvement suggestions one per line.
func JoinSuggestions(items []string) string {
	return strings.Join(items, "\n")
}

func splitSentences(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	return strings.Split(value, "\n")
}
