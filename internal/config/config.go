package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// ErrInvalid wraps every parsing or validation failure.
var ErrInvalid = errors.New("invalid configuration")

type AppConfig struct {
	Port      string `envconfig:"PORT" default:"8080" validate:"required,numeric"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=trace debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console" validate:"oneof=console json"`

	// Climate data provider.
	PowerBaseURL     string        `envconfig:"POWER_BASE_URL" default:"https://power.larc.nasa.gov/api/temporal/monthly/regional" validate:"required,url"`
	PowerCommunity   string        `envconfig:"POWER_COMMUNITY" default:"ag" validate:"oneof=ag re sb"`
	PowerStartYear   int           `envconfig:"POWER_START_YEAR" default:"1981" validate:"gte=1981,lte=2100"`
	HTTPTimeout      time.Duration `envconfig:"WEATHER_HTTP_TIMEOUT" default:"60s" validate:"gt=0"`
	FetchConcurrency int           `envconfig:"FETCH_CONCURRENCY" default:"5" validate:"gte=1,lte=32"`

	// Optional language model.
	OpenAIAPIKey      string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel       string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL     string  `envconfig:"OPENAI_BASE_URL" validate:"omitempty,url"`
	EmbeddingsEnabled bool    `envconfig:"EMBEDDINGS_ENABLED" default:"false"`
	EmbeddingModel    string  `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	LLMMaxTokens      int     `envconfig:"LLM_MAX_TOKENS" default:"400" validate:"gte=1"`
	LLMTemperature    float32 `envconfig:"LLM_TEMPERATURE" default:"0.2" validate:"gte=0,lte=2"`

	// Cache warm-up; 0 disables it.
	WarmupInterval time.Duration `envconfig:"WARMUP_INTERVAL" default:"0s" validate:"gte=0"`
	WarmupRegions  []string      `envconfig:"WARMUP_REGIONS"`

	// Session retention.
	SessionMaxAge   time.Duration `envconfig:"SESSION_MAX_AGE" default:"24h" validate:"gte=0"`
	SessionMaxCount int           `envconfig:"SESSION_MAX_COUNT" default:"1000" validate:"gte=0"` // 0 = unlimited

	// Report archive; empty disables it.
	ReportDBPath string `envconfig:"REPORT_DB_PATH"`
}

// Load reads .env (if any) and the environment, applies defaults and validates.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the process environment only.
func FromEnv() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	regions := make([]string, 0, len(cfg.WarmupRegions))
	for _, name := range cfg.WarmupRegions {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		r, err := weather.LookupRegion(name)
		if err != nil {
			return nil, fmt.Errorf("%w: WARMUP_REGIONS: %v", ErrInvalid, err)
		}
		regions = append(regions, r.Name)
	}
	cfg.WarmupRegions = regions

	return &cfg, nil
}

// LLMEnabled reports whether a generator backend is configured.
func (c *AppConfig) LLMEnabled() bool {
	return strings.TrimSpace(c.OpenAIAPIKey) != ""
}

// Level parses LogLevel; validation guarantees it is known.
func (c *AppConfig) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
