package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/models"
)

// AIResultRepository persists AI scores and feedback for submissions.
type AIResultRepository interface {
	CreateScore(ctx context.Context, score *models.AIScore) error
	CreateFeedback(ctx context.Context, feedback *models.AIFeedback) error
	SaveScored(ctx context.Context, submission *models.Submission, score *models.AIScore, feedback *models.AIFeedback) error
	LatestScore(ctx context.Context, submissionID uint) (models.AIScore, error)
	ListFeedback(ctx context.Context, submissionID uint) ([]models.AIFeedback, error)
}

type aiResultRepository struct {
	db *gorm.DB
}

// NewAIResultRepository builds the GORM-backed repository.
func NewAIResultRepository(db *gorm.DB) AIResultRepository {
	return &aiResultRepository{db: db}
}

func (r *aiResultRepository) CreateScore(ctx context.Context, score *models.AIScore) error {
	return r.db.WithContext(ctx).Create(score).Error
}

func (r *aiResultRepository) CreateFeedback(ctx context.Context, feedback *models.AIFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

// SaveScored creates or updates the submission and stores its score and feedback
// in one transaction, so a failure leaves no partially scored submission behind.
func (r *aiResultRepository) SaveScored(ctx context.Context, submission *models.Submission, score *models.AIScore, feedback *models.AIFeedback) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Assignment", "Student").Save(submission).Error; err != nil {
			return err
		}

		score.SubmissionID = submission.ID
		if err := tx.Create(score).Error; err != nil {
			return err
		}

		feedback.SubmissionID = submission.ID
		return tx.Create(feedback).Error
	})
}

func (r *aiResultRepository) LatestScore(ctx context.Context, submissionID uint) (models.AIScore, error) {
	var score models.AIScore
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id DESC").
		First(&score).Error; err != nil {
		return models.AIScore{}, err
	}

	return score, nil
}

func (r *aiResultRepository) ListFeedback(ctx context.Context, submissionID uint) ([]models.AIFeedback, error) {
	var feedback []models.AIFeedback
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&feedback).Error; err != nil {
		return nil, err
	}

	return feedback, nil
}
