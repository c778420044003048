package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edumate-go-api/internal/config"
	"github.com/noah-isme/edumate-go-api/internal/handler"
	"github.com/noah-isme/edumate-go-api/internal/middleware"
	"github.com/noah-isme/edumate-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScoringHandler    *handler.ScoringHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	HealthProbes      map[string]handler.HealthProbe
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	// Public v1 group: health and the scoring engine
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	if deps.ScoringHandler != nil {
		ml := api.Group("/ml")
		deps.ScoringHandler.Register(ml, middleware.RateLimit("ml_score", cfg.ScoringRateLimit, time.Minute))
	}

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	staffOnly := middleware.StaffOnly()
	v2 := app.Group("/api/v2", jwtMiddleware)

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(v2.Group("/assignments"), staffOnly)
	}

	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(v2.Group("/submissions"), staffOnly)
	}
}
