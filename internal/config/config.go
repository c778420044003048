package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	EventsChannel      string
	JWTSecret          string
	ModelDir           string
	ScoringMinLength   int
	ScoringRateLimit   int
	AssignmentCacheTTL time.Duration
	AIProvider         string
	OpenAIAPIKey       string
	OpenAIModel        string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUMATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "EduMate API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "edumate")
	v.SetDefault("model.dir", "ml/models")
	v.SetDefault("scoring.min_length", 50)
	v.SetDefault("scoring.rate_limit", 60)
	v.SetDefault("assignment.cache_ttl", "10m")
	v.SetDefault("ai.provider", "none")
	v.SetDefault("openai.model", "gpt-4o-mini")

	ttlString := v.GetString("assignment.cache_ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid assignment cache ttl: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		EventsChannel:      v.GetString("events.channel"),
		JWTSecret:          v.GetString("jwt.secret"),
		ModelDir:           v.GetString("model.dir"),
		ScoringMinLength:   v.GetInt("scoring.min_length"),
		ScoringRateLimit:   v.GetInt("scoring.rate_limit"),
		AssignmentCacheTTL: ttl,
		AIProvider:         strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ScoringMinLength <= 0 {
		cfg.ScoringMinLength = 50
	}

	if cfg.ScoringRateLimit <= 0 {
		cfg.ScoringRateLimit = 60
	}

	return cfg, nil
}
