package models

import "time"

// Feedback types stored on AIFeedback.
const (
	FeedbackTypeTeacherComment = "teacher_comment_sv"
	FeedbackTypeTeacherSaved   = "teacher_saved"
	FeedbackTypeBandTemplate   = "band_template"
)

// AIFeedback stores written feedback for a submission.
type AIFeedback struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	SubmissionID           uint      `gorm:"not null;index" json:"submission_id"`
	FeedbackText           string    `gorm:"type:text;not null" json:"feedback_text"`
	FeedbackType           string    `gorm:"size:32;not null" json:"feedback_type"`
	CriteriaMet            string    `gorm:"type:text" json:"criteria_met"`
	CriteriaMissed         string    `gorm:"type:text" json:"criteria_missed"`
	ImprovementSuggestions string    `gorm:"type:text" json:"improvement_suggestions"`
	ModelUsed              string    `gorm:"size:128" json:"model_used"`
	CreatedAt              time.Time `json:"created_at"`
}
