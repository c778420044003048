package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/features"
	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/internal/observability"
	"github.com/noah-isme/edumate-go-api/internal/repository"
)

// ScoringService exposes the heuristic scorer, the grade model and band feedback.
type ScoringService interface {
	Score(ctx context.Context, payload dto.ScoreRequest) (scoring.ScorePrediction, error)
	ScoreBatch(ctx context.Context, payload dto.BatchScoreRequest) (dto.BatchScoreResponse, error)
	PredictGrade(ctx context.Context, payload dto.PredictRequest) (dto.PredictResponse, error)
	GenerateFeedback(ctx context.Context, payload dto.FeedbackRequest) (feedback.Feedback, error)
	Health(ctx context.Context) dto.MLHealthResponse
}

type scoringService struct {
	scorer      *scoring.Scorer
	registry    *prediction.Registry
	submissions repository.SubmissionRepository
	results     repository.AIResultRepository
	publisher   ScoreEventPublisher
	validator   *validator.Validate
	logger      zerolog.Logger
	tracer      trace.Tracer
	workers     int
	now         func() time.Time
}

// NewScoringService wires the scoring use cases.
func NewScoringService(scorer *scoring.Scorer, registry *prediction.Registry, submissions repository.SubmissionRepository, results repository.AIResultRepository, publisher ScoreEventPublisher, validate *validator.Validate, logger zerolog.Logger) ScoringService {
	if publisher == nil {
		publisher = NewNoopScoreEventPublisher()
	}

	return &scoringService{
		scorer:      scorer,
		registry:    registry,
		submissions: submissions,
		results:     results,
		publisher:   publisher,
		validator:   validate,
		logger:      logger.With().Str("component", "scoring_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/edumate-go-api/internal/service/scoring"),
		workers:     runtime.GOMAXPROCS(0),
		now:         time.Now,
	}
}

func (s *scoringService) Score(ctx context.Context, payload dto.ScoreRequest) (scoring.ScorePrediction, error) {
	ctx, span := s.tracer.Start(ctx, "scoring.score")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		observability.ScoringRequests().WithLabelValues("invalid").Inc()
		return scoring.ScorePrediction{}, err
	}

	var submission *models.Submission
	if payload.SubmissionID != nil {
		loaded, err := s.submissions.GetByID(ctx, *payload.SubmissionID)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				span.SetStatus(codes.Error, "submission_not_found")
				return scoring.ScorePrediction{}, ErrSubmissionNotFound
			}
			span.SetStatus(codes.Error, "submission_lookup_failed")
			return scoring.ScorePrediction{}, err
		}
		submission = &loaded

		// A stored submission is scored on its own text, never on the caller's copy.
		payload.Text = loaded.Text
		if payload.Description == "" {
			payload.Description = loaded.Assignment.Description
		}
		if payload.Subject == "" {
			payload.Subject = loaded.Assignment.Subject
		}
	}

	result := s.score(payload)
	span.SetAttributes(
		attribute.Bool("scoring.disqualified", result.Disqualified()),
		attribute.Float64("scoring.confidence", result.Confidence),
	)

	if submission != nil {
		if err := s.persist(ctx, *submission, result); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist_failed")
			return scoring.ScorePrediction{}, err
		}
	}

	return result, nil
}

func (s *scoringService) score(payload dto.ScoreRequest) scoring.ScorePrediction {
	subject := strings.TrimSpace(payload.Subject)
	if subject == "" {
		subject = defaultSubject
	}

	start := time.Now()
	result := s.scorer.Score(payload.Text, subject, payload.Description)
	observability.ScoringDuration().Observe(time.Since(start).Seconds())

	outcome := "scored"
	if result.Disqualified() {
		outcome = "disqualified"
	}
	observability.ScoringRequests().WithLabelValues(outcome).Inc()

	return result
}

func (s *scoringService) persist(ctx context.Context, submission models.Submission, result scoring.ScorePrediction) error {
	band := ""
	if result.Band != nil {
		band = string(*result.Band)
	}

	record := models.AIScore{
		SubmissionID:   submission.ID,
		PredictedScore: result.Score,
		PredictedBand:  band,
		Confidence:     result.Confidence,
		Reason:         result.Reason,
		ModelVersion:   result.ModelUsed,
		ModelUsed:      result.ModelUsed,
		AnalysisData:   result.AnalysisData,
		PredictedAt:    s.now().UTC(),
	}
	if err := s.results.CreateScore(ctx, &record); err != nil {
		return fmt.Errorf("store heuristic score: %w", err)
	}

	if err := s.publisher.Publish(ctx, ScoreEvent{
		Type:         EventScoreComputed,
		SubmissionID: submission.ID,
		AssignmentID: submission.AssignmentID,
		StudentID:    submission.StudentID,
		Score:        result.Score,
		Band:         band,
		RubricPoints: submission.RubricPoints,
		ModelVersion: result.ModelUsed,
	}); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to publish score event")
	}

	return nil
}

// ScoreBatch scores every item concurrently; a failing item is reported in place and never fails the batch.
func (s *scoringService) ScoreBatch(ctx context.Context, payload dto.BatchScoreRequest) (dto.BatchScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BatchScoreResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "scoring.score_batch", trace.WithAttributes(
		attribute.Int("scoring.batch_size", len(payload.Items)),
	))
	defer span.End()

	results := make([]dto.BatchScoreItem, len(payload.Items))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)

	for i := range payload.Items {
		group.Go(func() error {
			item := dto.BatchScoreItem{Index: i}
			if err := groupCtx.Err(); err != nil {
				item.Error = err.Error()
				results[i] = item
				return nil
			}

			scored, err := s.Score(groupCtx, payload.Items[i])
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Prediction = &scored
			}
			results[i] = item
			return nil
		})
	}
	_ = group.Wait()

	response := dto.BatchScoreResponse{Results: results}
	for _, item := range results {
		switch {
		case item.Error != "":
			response.Failed++
		case item.Prediction.Disqualified():
			response.Disqualified++
		default:
			response.Scored++
		}
	}

	span.SetAttributes(attribute.Int("scoring.batch_failed", response.Failed))
	s.logger.Info().
		Int("items", len(results)).
		Int("scored", response.Scored).
		Int("disqualified", response.Disqualified).
		Int("failed", response.Failed).
		Msg("batch scored")

	return response, nil
}

func (s *scoringService) PredictGrade(ctx context.Context, payload dto.PredictRequest) (dto.PredictResponse, error) {
	ctx, span := s.tracer.Start(ctx, "prediction.predict")
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.PredictResponse{}, err
	}

	predictor, err := s.registry.Predictor()
	if err != nil {
		observability.GradePredictions().WithLabelValues("unavailable").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "model_unavailable")
		return dto.PredictResponse{}, err
	}

	response := dto.PredictResponse{}
	input := payload.Features
	if len(input) == 0 {
		vector := features.Build(features.Input{
			Text:           payload.Text,
			Description:    payload.Description,
			ExpectedAnswer: payload.ExpectedAnswer,
		})
		input = vector.Map()
		response.Features = input
	}

	result, err := predictor.Predict(input)
	if err != nil {
		observability.GradePredictions().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "prediction_failed")
		s.logger.Warn().Err(err).Msg("grade prediction failed")
		return dto.PredictResponse{}, err
	}

	observability.GradePredictions().WithLabelValues(result.Grade).Inc()
	span.SetAttributes(
		attribute.String("prediction.grade", result.Grade),
		attribute.String("prediction.model_version", result.ModelVersion),
	)
	response.Result = result
	return response, nil
}

func (s *scoringService) GenerateFeedback(_ context.Context, payload dto.FeedbackRequest) (feedback.Feedback, error) {
	if err := s.validator.Struct(payload); err != nil {
		return feedback.Feedback{}, err
	}

	return feedback.Generate(payload.Band, payload.Subject)
}

func (s *scoringService) Health(_ context.Context) dto.MLHealthResponse {
	status := s.registry.Status()
	overall := "ok"
	if status.State != prediction.StateReady {
		overall = "degraded"
	}

	return dto.MLHealthResponse{
		Status:    overall,
		Scorer:    s.scorer.ModelName(),
		Predictor: status,
	}
}
