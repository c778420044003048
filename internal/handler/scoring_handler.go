package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edumate-go-api/internal/dto"
	"github.com/noah-isme/edumate-go-api/internal/grading/feedback"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/service"
	"github.com/noah-isme/edumate-go-api/internal/utils"
)

// ScoringHandler exposes the scoring and grade model endpoints.
type ScoringHandler struct {
	service service.ScoringService
	logger  zerolog.Logger
}

// NewScoringHandler constructs the handler.
func NewScoringHandler(service service.ScoringService, logger zerolog.Logger) *ScoringHandler {
	return &ScoringHandler{
		service: service,
		logger:  logger.With().Str("component", "scoring_handler").Logger(),
	}
}

// Register attaches the ML endpoints. limiter guards the scoring routes and may be nil.
func (h *ScoringHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Get("/health", h.health)
	router.Post("/score", limiter, h.score)
	router.Post("/score/batch", limiter, h.scoreBatch)
	router.Post("/predict", h.predict)
	router.Post("/feedback", h.feedback)
}

func (h *ScoringHandler) score(c *fiber.Ctx) error {
	var payload dto.ScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Score(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	message := "submission scored"
	if result.Disqualified() {
		message = "submission disqualified"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *ScoringHandler) scoreBatch(c *fiber.Ctx) error {
	var payload dto.BatchScoreRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.ScoreBatch(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "batch scored", result)
}

func (h *ScoringHandler) predict(c *fiber.Ctx) error {
	var payload dto.PredictRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.PredictGrade(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "grade predicted", result)
}

func (h *ScoringHandler) feedback(c *fiber.Ctx) error {
	var payload dto.FeedbackRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.GenerateFeedback(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "feedback generated", result)
}

func (h *ScoringHandler) health(c *fiber.Ctx) error {
	status := h.service.Health(c.UserContext())
	if status.Status != "ok" {
		return utils.Fail(c, fiber.StatusServiceUnavailable, "grade model not ready", status)
	}

	return utils.SendSuccess(c, "ml healthy", status)
}

func (h *ScoringHandler) handleError(c *fiber.Ctx, err error) error {
	var predictionErr *prediction.PredictionError
	switch {
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	case errors.Is(err, feedback.ErrConfiguration):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, prediction.ErrModelUnavailable):
		return utils.SendError(c, fiber.StatusServiceUnavailable, "grade model unavailable")
	case errors.As(err, &predictionErr):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "grade prediction failed")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
