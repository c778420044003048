package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/models"
	"github.com/noah-isme/edumate-go-api/pkg/ai"
)

const fixtureModelDir = "../grading/prediction/testdata/model"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.Assignment{}, &models.Submission{}, &models.AIScore{}, &models.AIFeedback{}))
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mini, client
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func fixtureRegistry(t *testing.T) *prediction.Registry {
	t.Helper()
	registry := prediction.NewRegistry(fixtureModelDir, zerolog.Nop())
	require.True(t, registry.Ready())
	return registry
}

func floatPointer(v float64) *float64 {
	return &v
}

type recordingPublisher struct {
	events []ScoreEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event ScoreEvent) error {
	p.events = append(p.events, event)
	return p.err
}

type stubCommentGenerator struct {
	comment string
	err     error
	inputs  []ai.CommentInput
}

func (g *stubCommentGenerator) GenerateComment(_ context.Context, input ai.CommentInput) (string, error) {
	g.inputs = append(g.inputs, input)
	return g.comment, g.err
}

func (g *stubCommentGenerator) Model() string { return "stub-model" }

type panickingClassifier struct{}

func (panickingClassifier) Predict([]float64) (int, []float64, error) { panic("corrupt model") }

func (panickingClassifier) NumClasses() int { return 3 }
