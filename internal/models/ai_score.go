package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIScore stores the model output for a submission.
type AIScore struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	SubmissionID   uint              `gorm:"not null;index" json:"submission_id"`
	PredictedScore *float64          `json:"predicted_score"`
	PredictedBand  string            `gorm:"size:8" json:"predicted_band"`
	Confidence     float64           `json:"confidence"`
	Reason         string            `gorm:"type:text" json:"reason"`
	ModelVersion   string            `gorm:"size:64" json:"model_version"`
	ModelUsed      string            `gorm:"size:128" json:"model_used"`
	AnalysisData   datatypes.JSONMap `json:"analysis_data"`
	PredictedAt    time.Time         `json:"predicted_at"`
	CreatedAt      time.Time         `json:"created_at"`
}
