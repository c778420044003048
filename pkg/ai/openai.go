package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	commentDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edumate",
		Subsystem: "ai",
		Name:      "comment_duration_seconds",
		Help:      "Duration of teacher comment requests",
	}, []string{"model"})

	commentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edumate",
		Subsystem: "ai",
		Name:      "comment_failures_total",
		Help:      "Number of teacher comment failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI comment generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAICommentGenerator implements CommentGenerator against the chat completion API.
type OpenAICommentGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICommentGenerator builds a generator using the provided configuration.
func NewOpenAICommentGenerator(cfg OpenAIConfig) (*OpenAICommentGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 256
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAICommentGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/edumate-go-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_comment_generator").Logger(),
	}, nil
}

// Model returns the configured model name.
func (g *OpenAICommentGenerator) Model() string {
	return g.cfg.Model
}

// GenerateComment asks the model for a short Swedish teacher comment.
func (g *OpenAICommentGenerator) GenerateComment(parent context.Context, input CommentInput) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai.teacher_comment", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("grade", input.PredictedGrade),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: commentSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildCommentPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	commentDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, fmt.Errorf("openai teacher comment: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", g.fail(span, fmt.Errorf("no choices returned from openai"))
	}

	comment, err := parseCommentResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return "", g.fail(span, err)
	}

	g.logger.Debug().Int("total_tokens", resp.Usage.TotalTokens).Msg("teacher comment generated")
	return comment, nil
}

func (g *OpenAICommentGenerator) fail(span trace.Span, err error) error {
	commentFailures.WithLabelValues(g.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func commentSystemPrompt() string {
	return "Du är en erfaren mattelärare på gymnasiet. Skriv en kort, uppmuntrande lärarkommentar på svenska (högst tre meningar) " +
		"som nämner en styrka och ett konkret nästa steg. Svara med ett JSON-objekt med fältet comment."
}

func buildCommentPrompt(input CommentInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Uppgift\n")
	builder.WriteString(input.AssignmentText)
	builder.WriteString("\n\n## Ämne\n")
	builder.WriteString(input.Subject)
	if input.Topic != "" {
		builder.WriteString("\n\n## Område\n")
		builder.WriteString(input.Topic)
		builder.WriteString(" (svårighetsgrad ")
		builder.WriteString(strconv.Itoa(input.Difficulty))
		builder.WriteString(" av 5)")
	}
	builder.WriteString("\n\n## Elevens lösning\n")
	builder.WriteString(input.Submission)
	builder.WriteString("\n\n## Bedömning\nBetyg: ")
	builder.WriteString(input.PredictedGrade)
	builder.WriteString(", rubrikpoäng: ")
	builder.WriteString(strconv.Itoa(input.RubricPoints))
	writeList(&builder, "Uppfyllda kriterier", input.CriteriaMet)
	writeList(&builder, "Ej uppfyllda kriterier", input.CriteriaMissed)
	writeList(&builder, "Förbättringsförslag", input.Improvements)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func writeList(builder *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	builder.WriteString("\n\n## ")
	builder.WriteString(heading)
	for _, item := range items {
		builder.WriteString("\n- ")
		builder.WriteString(item)
	}
}

func parseCommentResponse(content string) (string, error) {
	var data struct {
		Comment string `json:"comment"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &data); err != nil {
		return "", fmt.Errorf("parse comment json: %w", err)
	}

	comment := strings.TrimSpace(data.Comment)
	if comment == "" {
		return "", ErrEmptyComment
	}
	return comment, nil
}
