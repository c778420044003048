package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/config"
	"github.com/noah-isme/edumate-go-api/internal/database"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
	"github.com/noah-isme/edumate-go-api/internal/handler"
	"github.com/noah-isme/edumate-go-api/internal/repository"
	"github.com/noah-isme/edumate-go-api/internal/router"
	"github.com/noah-isme/edumate-go-api/internal/service"
)

const fixtureModelDir = "../grading/prediction/testdata/model"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

type appOptions struct {
	role      string
	registry  *prediction.Registry
	rateLimit int
	probes    map[string]handler.HealthProbe
}

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

func setupApp(t *testing.T, opts appOptions) testApp {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	registry := opts.registry
	if registry == nil {
		registry = prediction.NewRegistry(fixtureModelDir, zerolog.Nop())
	}
	role := opts.role
	if role == "" {
		role = "teacher"
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	logger := zerolog.New(io.Discard)

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewAIResultRepository(db)
	publisher := service.NewNoopScoreEventPublisher()

	assignmentService := service.NewAssignmentService(assignmentRepo, nil, 0, validate, logger)
	scoringService := service.NewScoringService(scoring.NewScorer(scoring.Config{}), registry, submissionRepo, resultRepo, publisher, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Assignments: assignmentRepo,
		Students:    repository.NewStudentRepository(db),
		Results:     resultRepo,
		Contexts:    assignmentService,
		Registry:    registry,
		Publisher:   publisher,
	}, validate, logger)

	app := fiber.New()
	router.Register(app, config.Config{AppName: "Test", JWTSecret: "secret", ScoringRateLimit: opts.rateLimit}, router.Dependencies{
		ScoringHandler:    handler.NewScoringHandler(scoringService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		HealthProbes:      opts.probes,
		JWTMiddleware: func(c *fiber.Ctx) error {
			c.Locals("user_id", uint(1))
			c.Locals("user_role", role)
			return c.Next()
		},
	})

	return testApp{app: app, db: db}
}

func (a testApp) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeEnvelope(t *testing.T, resp *http.Response, data interface{}) apiEnvelope {
	t.Helper()
	var envelope apiEnvelope
	decodeResponse(t, resp, &envelope)
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope
}

func newRawRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func itoa(id uint) string {
	return fmt.Sprintf("%d", id)
}
