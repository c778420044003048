package models

import "time"

// Submission is a student's written answer to an assignment.
type Submission struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	AssignmentID    uint       `gorm:"not null;index" json:"assignment_id"`
	StudentID       uint       `gorm:"not null;index" json:"student_id"`
	Text            string     `gorm:"type:text;not null" json:"text"`
	Status          string     `gorm:"size:32;not null" json:"status"`
	StartedAt       *time.Time `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	IsLate          bool       `gorm:"not null;default:false" json:"is_late"`
	PredictedGrade  string     `gorm:"size:8" json:"predicted_grade"`
	RubricPoints    int        `json:"rubric_points"`
	TeacherFeedback string     `gorm:"type:text" json:"teacher_feedback"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Assignment      Assignment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assignment"`
	Student         Student    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
}

const (
	// SubmissionStatusSubmitted indicates the submission is stored but not yet scored.
	SubmissionStatusSubmitted = "submitted"
	// SubmissionStatusScored indicates the AI pipeline produced a score and feedback.
	SubmissionStatusScored = "scored"
	// SubmissionStatusReviewed indicates a teacher saved their own feedback.
	SubmissionStatusReviewed = "reviewed"
)

// IsScored reports whether the AI pipeline has run for the submission.
func (s Submission) IsScored() bool {
	return s.Status == SubmissionStatusScored || s.Status == SubmissionStatusReviewed
}
