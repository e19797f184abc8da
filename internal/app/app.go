// Package app assembles the services shared by the HTTP server and the CLI.
package app

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/climate-advisory/internal/advisor"
	"github.com/i474232898/climate-advisory/internal/config"
	"github.com/i474232898/climate-advisory/internal/llm"
	"github.com/i474232898/climate-advisory/internal/scheduler"
	"github.com/i474232898/climate-advisory/internal/store"
	"github.com/i474232898/climate-advisory/internal/weather"
	"github.com/i474232898/climate-advisory/internal/weather/providers"
)

// App holds the wired components. Archive is nil when REPORT_DB_PATH is unset.
type App struct {
	Config    *config.AppConfig
	Log       zerolog.Logger
	Store     *store.MemoryStore
	Archive   *store.ReportArchive
	Weather   *weather.Service
	Advisor   *advisor.Advisor
	Scheduler *scheduler.Scheduler
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func NewLogger(cfg *config.AppConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(cfg.Level()).With().Timestamp().Logger()
}

// New wires the provider, caches, optional model backend and archive.
func New(cfg *config.AppConfig, log zerolog.Logger) (*App, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	memStore := store.NewMemoryStore(cfg.SessionMaxCount, cfg.SessionMaxAge)
	provider := providers.NewNASAPowerProvider(httpClient, cfg.PowerBaseURL, cfg.PowerCommunity)
	service := weather.NewService(provider, memStore, cfg.FetchConcurrency, log)

	opts := advisor.Options{StartYear: cfg.PowerStartYear}

	if cfg.LLMEnabled() {
		client, err := llm.New(llm.Config{
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			MaxTokens:      cfg.LLMMaxTokens,
			Temperature:    cfg.LLMTemperature,
		}, log)
		if err != nil {
			return nil, err
		}
		opts.Generator = client
		if cfg.EmbeddingsEnabled {
			opts.Embedder = client
		}
		log.Info().Str("model", cfg.OpenAIModel).Bool("embeddings", cfg.EmbeddingsEnabled).Msg("language model enabled")
	} else {
		log.Info().Msg("no OPENAI_API_KEY set; replies use reports and templates only")
	}

	a := &App{
		Config:  cfg,
		Log:     log,
		Store:   memStore,
		Weather: service,
	}

	if cfg.ReportDBPath != "" {
		archive, err := store.OpenReportArchive(cfg.ReportDBPath, log)
		if err != nil {
			return nil, err
		}
		a.Archive = archive
		opts.Archive = archive
	}

	a.Advisor = advisor.New(service, memStore, log, opts)
	a.Scheduler = scheduler.New(cfg.WarmupRegions, cfg.WarmupInterval, cfg.HTTPTimeout*5, a.Advisor, log)
	return a, nil
}

// Close stops the scheduler and releases the archive.
func (a *App) Close() error {
	a.Scheduler.Stop()
	if a.Archive != nil {
		return a.Archive.Close()
	}
	return nil
}
