package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/internal/repository"
)

const sampleAnswer = "Först flyttar vi 5 till högra sidan: 2x = 11 - 5 = 6.\nSedan dividerar vi med 2 eftersom x ska stå ensamt.\nDärför är x = 3. Kontroll: 2*3 + 5 = 11."

type scoringFixture struct {
	db        *gorm.DB
	svc       ScoringService
	publisher *recordingPublisher
}

func newScoringFixture(t *testing.T, registry *prediction.Registry) scoringFixture {
	t.Helper()
	db := setupTestDB(t)
	publisher := &recordingPublisher{}
	svc := NewScoringService(
		scoring.NewScorer(scoring.Config{}),
		registry,
		repository.NewSubmissionRepository(db),
		repository.NewAIResultRepository(db),
		publisher,
		newValidator(),
		zerolog.Nop(),
	)
	return scoringFixture{db: db, svc: svc, publisher: publisher}
}

func TestScoringServiceScore(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))

	result, err := fx.svc.Score(context.Background(), dto.ScoreRequest{Text: sampleAnswer, Description: "Lös ekvationen 2x + 5 = 11"})
	require.NoError(t, err)
	require.False(t, result.Disqualified())
	require.NotNil(t, result.Score)
	require.Equal(t, scoring.ScoreToBand(result.Score), result.Band)
	require.Equal(t, "Ekvationer", result.AnalysisData["topic"])
	require.Empty(t, fx.publisher.events)
}

func TestScoringServiceScoreShortTextIsDisqualifiedNotAnError(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))

	result, err := fx.svc.Score(context.Background(), dto.ScoreRequest{Text: "x = 3"})
	require.NoError(t, err)
	require.True(t, result.Disqualified())
	require.Nil(t, result.Score)
	require.Nil(t, result.Band)
	require.Equal(t, "insufficient_length", result.AnalysisData["error"])
}

func TestScoringServiceScorePersistsForSubmission(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))
	student := models.Student{Name: "Alva", Email: "alva@example.com"}
	require.NoError(t, fx.db.Create(&student).Error)
	assignment := models.Assignment{Title: "Ekvation", Description: "Lös ekvationen 2x + 5 = 11", Subject: "mathematics"}
	require.NoError(t, fx.db.Create(&assignment).Error)
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Text: sampleAnswer, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	result, err := fx.svc.Score(context.Background(), dto.ScoreRequest{Text: sampleAnswer, SubmissionID: &submission.ID})
	require.NoError(t, err)

	var stored models.AIScore
	require.NoError(t, fx.db.Where("submission_id = ?", submission.ID).First(&stored).Error)
	require.Equal(t, *result.Score, *stored.PredictedScore)
	require.Equal(t, scoring.DefaultModelName, stored.ModelUsed)

	require.Len(t, fx.publisher.events, 1)
	require.Equal(t, EventScoreComputed, fx.publisher.events[0].Type)
	require.Equal(t, submission.ID, fx.publisher.events[0].SubmissionID)

	missing := uint(999)
	_, err = fx.svc.Score(context.Background(), dto.ScoreRequest{Text: sampleAnswer, SubmissionID: &missing})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestScoringServiceScoreUsesStoredSubmissionText(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))
	student := models.Student{Name: "Alva", Email: "alva@example.com"}
	require.NoError(t, fx.db.Create(&student).Error)
	assignment := models.Assignment{Title: "Ekvation", Description: "Lös ekvationen 2x + 5 = 11", Subject: "mathematics"}
	require.NoError(t, fx.db.Create(&assignment).Error)
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, Text: sampleAnswer, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	expected, err := fx.svc.Score(context.Background(), dto.ScoreRequest{Text: sampleAnswer, Description: assignment.Description})
	require.NoError(t, err)

	result, err := fx.svc.Score(context.Background(), dto.ScoreRequest{Text: "x = 3", SubmissionID: &submission.ID})
	require.NoError(t, err)
	require.False(t, result.Disqualified())
	require.Equal(t, *expected.Score, *result.Score)

	var stored models.AIScore
	require.NoError(t, fx.db.Where("submission_id = ?", submission.ID).First(&stored).Error)
	require.Equal(t, *expected.Score, *stored.PredictedScore)
}

func TestScoringServiceScoreBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))
	missing := uint(404)

	response, err := fx.svc.ScoreBatch(context.Background(), dto.BatchScoreRequest{Items: []dto.ScoreRequest{
		{Text: sampleAnswer},
		{Text: "för kort"},
		{Text: sampleAnswer, SubmissionID: &missing},
		{Text: strings.Repeat("a", 20001)},
		{Text: sampleAnswer, Subject: "science"},
	}})
	require.NoError(t, err)
	require.Len(t, response.Results, 5)
	for i, item := range response.Results {
		require.Equal(t, i, item.Index)
	}

	require.NotNil(t, response.Results[0].Prediction)
	require.True(t, response.Results[1].Prediction.Disqualified())
	require.Equal(t, ErrSubmissionNotFound.Error(), response.Results[2].Error)
	require.NotEmpty(t, response.Results[3].Error)
	require.NotNil(t, response.Results[4].Prediction)

	require.Equal(t, 2, response.Scored)
	require.Equal(t, 1, response.Disqualified)
	require.Equal(t, 2, response.Failed)

	_, err = fx.svc.ScoreBatch(context.Background(), dto.BatchScoreRequest{})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestScoringServicePredictGrade(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))

	fromText, err := fx.svc.PredictGrade(context.Background(), dto.PredictRequest{
		Text:           "2x + 5 = 11\n2x = 6\nx = 3",
		Description:    "Lös ekvationen 2x + 5 = 11",
		ExpectedAnswer: "x = 3",
	})
	require.NoError(t, err)
	require.Equal(t, "C", fromText.Grade)
	require.Equal(t, 60.0, fromText.Features["rubric_points"])

	fromFeatures, err := fx.svc.PredictGrade(context.Background(), dto.PredictRequest{
		Features: map[string]any{"topic": "Geometri", "rubric_points": 90},
	})
	require.NoError(t, err)
	require.Equal(t, "A", fromFeatures.Grade)
	require.Nil(t, fromFeatures.Features)

	_, err = fx.svc.PredictGrade(context.Background(), dto.PredictRequest{})
	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
}

func TestScoringServicePredictGradeModelUnavailable(t *testing.T) {
	fx := newScoringFixture(t, prediction.NewRegistry(t.TempDir(), zerolog.Nop()))

	_, err := fx.svc.PredictGrade(context.Background(), dto.PredictRequest{Text: sampleAnswer})
	require.ErrorIs(t, err, prediction.ErrModelUnavailable)

	health := fx.svc.Health(context.Background())
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, prediction.StateNotReady, health.Predictor.State)
}

func TestScoringServicePredictGradeSurfacesPredictionError(t *testing.T) {
	manifest, err := prediction.LoadManifest(fixtureModelDir)
	require.NoError(t, err)
	predictor, err := prediction.NewPredictor(manifest, panickingClassifier{})
	require.NoError(t, err)
	fx := newScoringFixture(t, prediction.NewRegistryWith(predictor))

	_, err = fx.svc.PredictGrade(context.Background(), dto.PredictRequest{Text: sampleAnswer})
	var predictionErr *prediction.PredictionError
	require.True(t, errors.As(err, &predictionErr))
}

func TestScoringServiceGenerateFeedback(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))

	fb, err := fx.svc.GenerateFeedback(context.Background(), dto.FeedbackRequest{Band: "B", Subject: "science"})
	require.NoError(t, err)
	require.NotEmpty(t, fb.Resources)

	_, err = fx.svc.GenerateFeedback(context.Background(), dto.FeedbackRequest{Band: "Q", Subject: "science"})
	require.ErrorIs(t, err, feedback.ErrUnknownBand)
}

func TestScoringServiceHealthReady(t *testing.T) {
	fx := newScoringFixture(t, fixtureRegistry(t))

	health := fx.svc.Health(context.Background())
	require.Equal(t, "ok", health.Status)
	require.Equal(t, scoring.DefaultModelName, health.Scorer)
	require.Equal(t, "2024.05-fixture", health.Predictor.ModelVersion)
}
