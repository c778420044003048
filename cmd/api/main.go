package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edumate-go-api/internal/config"
	"github.com/noah-isme/edumate-go-api/internal/database"
	"github.com/noah-isme/edumate-go-api/internal/grading/prediction"
	"github.com/noah-isme/edumate-go-api/internal/grading/scoring"
	"github.com/noah-isme/edumate-go-api/internal/handler"
	"github.com/noah-isme/edumate-go-api/internal/middleware"
	"github.com/noah-isme/edumate-go-api/internal/repository"
	"github.com/noah-isme/edumate-go-api/internal/router"
	"github.com/noah-isme/edumate-go-api/internal/service"
	"github.com/noah-isme/edumate-go-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	db, err := database.ConnectPostgres(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(startupCtx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, assignment cache and redis events disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, nats events disabled")
			natsConn = nil
		} else {
			defer natsConn.Drain()
		}
	}

	registry := prediction.NewRegistry(cfg.ModelDir, logger)
	scorer := scoring.NewScorer(scoring.Config{MinLength: cfg.ScoringMinLength})

	var comments ai.CommentGenerator
	if cfg.AIProvider == "openai" {
		generator, err := ai.NewOpenAICommentGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("teacher comment generator disabled")
		} else {
			comments = generator
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	resultRepo := repository.NewAIResultRepository(db)

	publisher := service.NewScoreEventPublisher(redisClient, cfg.EventsChannel, natsConn, logger)

	assignmentService := service.NewAssignmentService(assignmentRepo, redisClient, cfg.AssignmentCacheTTL, validate, logger)
	scoringService := service.NewScoringService(scorer, registry, submissionRepo, resultRepo, publisher, validate, logger)
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		Submissions: submissionRepo,
		Assignments: assignmentRepo,
		Students:    studentRepo,
		Results:     resultRepo,
		Contexts:    assignmentService,
		Registry:    registry,
		Comments:    comments,
		Publisher:   publisher,
	}, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    2 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScoringHandler:    handler.NewScoringHandler(scoringService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		HealthProbes:      healthProbes(db, redisClient),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().Str("address", cfg.HTTPAddress()).Bool("model_ready", registry.Ready()).Msg("server started")
	waitForShutdown(app)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error { return database.PingRedis(ctx, redisClient) }
	}
	return probes
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
