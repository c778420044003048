package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edumate-go-api/internal/observability"
)

// Score event types.
const (
	EventSubmissionScored = "submission.scored"
	EventScoreComputed    = "score.computed"
	EventFeedbackSaved    = "feedback.saved"
)

// ScoreEvent is broadcast whenever a submission is scored or reviewed.
type ScoreEvent struct {
	Source        string    `json:"source"`
	Type          string    `json:"type"`
	SubmissionID  uint      `json:"submission_id,omitempty"`
	AssignmentID  uint      `json:"assignment_id,omitempty"`
	StudentID     uint      `json:"student_id,omitempty"`
	Grade         string    `json:"grade,omitempty"`
	Score         *float64  `json:"score,omitempty"`
	Band          string    `json:"band,omitempty"`
	RubricPoints  int       `json:"rubric_points"`
	ModelVersion  string    `json:"model_version,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ScoreEventPublisher fans score events out to the configured brokers.
type ScoreEventPublisher interface {
	Publish(ctx context.Context, event ScoreEvent) error
}

type scoreEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	nodeID       string
	now          func() time.Time
	logger       zerolog.Logger
}

// NewScoreEventPublisher builds a publisher; nil clients are skipped.
func NewScoreEventPublisher(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) ScoreEventPublisher {
	channel := ""
	subject := ""
	if base := strings.TrimSpace(channelBase); base != "" {
		channel = base + ":scores"
		subject = strings.ReplaceAll(base, ":", ".") + ".scores"
	}

	return &scoreEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		nodeID:       uuid.NewString(),
		now:          time.Now,
		logger:       logger.With().Str("component", "score_event_publisher").Logger(),
	}
}

func (p *scoreEventPublisher) Publish(ctx context.Context, event ScoreEvent) error {
	event.Source = p.nodeID
	if event.CorrelationID == "" {
		event.CorrelationID = observability.CorrelationID(ctx)
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode score event: %w", err)
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis publish: %w", err))
		} else {
			observability.ScoreEventsPublished().WithLabelValues("redis").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			errs = append(errs, fmt.Errorf("nats publish: %w", err))
		} else {
			observability.ScoreEventsPublished().WithLabelValues("nats").Inc()
		}
	}

	if err := errors.Join(errs...); err != nil {
		p.logger.Warn().Err(err).Str("event", event.Type).Msg("score event not fully delivered")
		return err
	}

	return nil
}

type noopScoreEventPublisher struct{}

// NewNoopScoreEventPublisher returns a publisher that drops every event.
func NewNoopScoreEventPublisher() ScoreEventPublisher {
	return noopScoreEventPublisher{}
}

func (noopScoreEventPublisher) Publish(context.Context, ScoreEvent) error { return nil }
