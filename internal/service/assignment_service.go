package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/topic"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/internal/repository"
)

var (
	// ErrAssignmentNotFound indicates the requested assignment does not exist.
	ErrAssignmentNotFound = errors.New("assignment not found")
	// ErrInvalidDueDate rejects unparsable or past due dates.
	ErrInvalidDueDate = errors.New("invalid due date")
)

const defaultSubject = "mathematics"

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error)
	Get(ctx context.Context, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error)
	Context(ctx context.Context, id uint) (dto.AssignmentContextResponse, error)
}

type assignmentService struct {
	repo      repository.AssignmentRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAssignmentService builds a new assignment service. A nil cache disables context caching.
func NewAssignmentService(repo repository.AssignmentRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  ttl,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
		now:       time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, filter dto.AssignmentFilter) ([]dto.AssignmentResponse, int64, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, 0, err
	}

	assignments, total, err := s.repo.List(ctx, repository.AssignmentFilter{
		Search:   filter.Search,
		Subject:  filter.Subject,
		Topic:    filter.Topic,
		Sort:     filter.Sort,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewAssignmentResponseSlice(assignments), total, nil
}

func (s *assignmentService) Get(ctx context.Context, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, payload dto.AssignmentCreateRequest) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment := models.Assignment{
		Title:          strings.TrimSpace(payload.Title),
		Description:    strings.TrimSpace(payload.Description),
		Subject:        strings.ToLower(strings.TrimSpace(payload.Subject)),
		ExpectedAnswer: strings.TrimSpace(payload.ExpectedAnswer),
	}
	if assignment.Subject == "" {
		assignment.Subject = defaultSubject
	}

	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: %v", ErrInvalidDueDate, err)
		}
		if !dueDate.After(s.now()) {
			return dto.AssignmentResponse{}, fmt.Errorf("%w: must be in the future", ErrInvalidDueDate)
		}
		assignment.DueDate = &dueDate
	}

	classified := topic.Classify(assignment.Description)
	assignment.Topic = string(classified.Topic)
	assignment.Difficulty = classified.Difficulty

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.storeContext(ctx, contextResponse(assignment))
	s.logger.Info().
		Uint("assignment_id", assignment.ID).
		Str("topic", assignment.Topic).
		Int("difficulty", assignment.Difficulty).
		Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

// Context returns the assignment's topic and difficulty, reading through the cache.
func (s *assignmentService) Context(ctx context.Context, id uint) (dto.AssignmentContextResponse, error) {
	if cached, ok := s.cachedContext(ctx, id); ok {
		return cached, nil
	}

	assignment, err := s.load(ctx, id)
	if err != nil {
		return dto.AssignmentContextResponse{}, err
	}

	if !topic.Topic(assignment.Topic).Valid() || assignment.Difficulty < topic.MinDifficulty || assignment.Difficulty > topic.MaxDifficulty {
		classified := topic.Classify(assignment.Description)
		assignment.Topic = string(classified.Topic)
		assignment.Difficulty = classified.Difficulty
		if err := s.repo.Update(ctx, &assignment); err != nil {
			s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("failed to persist recomputed assignment context")
		}
	}

	response := contextResponse(assignment)
	s.storeContext(ctx, response)
	return response, nil
}

func (s *assignmentService) load(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	return assignment, nil
}

func (s *assignmentService) cachedContext(ctx context.Context, id uint) (dto.AssignmentContextResponse, bool) {
	if s.cache == nil {
		return dto.AssignmentContextResponse{}, false
	}

	cached, err := s.cache.Get(ctx, assignmentContextKey(id)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read assignment context cache")
		}
		return dto.AssignmentContextResponse{}, false
	}

	var response dto.AssignmentContextResponse
	if err := json.Unmarshal([]byte(cached), &response); err != nil {
		s.logger.Warn().Err(err).Uint("assignment_id", id).Msg("discarding malformed assignment context cache entry")
		return dto.AssignmentContextResponse{}, false
	}

	s.logger.Debug().Uint("assignment_id", id).Msg("assignment context cache hit")
	return response, true
}

func (s *assignmentService) storeContext(ctx context.Context, response dto.AssignmentContextResponse) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, assignmentContextKey(response.AssignmentID), payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store assignment context cache")
	}
}

func assignmentContextKey(id uint) string {
	return fmt.Sprintf("assignment:context:%d", id)
}

func contextResponse(assignment models.Assignment) dto.AssignmentContextResponse {
	t := topic.Topic(assignment.Topic)
	return dto.AssignmentContextResponse{
		AssignmentID:  assignment.ID,
		Topic:         assignment.Topic,
		Difficulty:    assignment.Difficulty,
		ExpectedSteps: topic.ExpectedSteps(t, assignment.Difficulty),
	}
}
