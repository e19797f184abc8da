// Package advisor runs the analysis pipeline and answers chat messages about
// its results.
package advisor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/forecast"
	"github.com/i474232898/climate-advisory/internal/llm"
	"github.com/i474232898/climate-advisory/internal/report"
	"github.com/i474232898/climate-advisory/internal/weather"
)

// Fetcher provides assembled tables.
type Fetcher interface {
	Fetch(ctx context.Context, region string, period weather.Period) (*weather.Table, error)
	FetchAll(ctx context.Context, period weather.Period) (map[string]*weather.Table, error)
}

// Context is the shared advisory state.
type Context interface {
	GetAnalysis(key string) (*analysis.Summary, bool)
	PutAnalysis(key string, s *analysis.Summary) *analysis.Summary
	SaveReport(sessionID string, r *report.Report)
	LatestReport(sessionID string) (*report.Report, error)
}

// Generator produces free text from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Archive persists composed reports.
type Archive interface {
	Save(ctx context.Context, sessionID string, r *report.Report) (string, error)
}

// Options carries the optional collaborators.
type Options struct {
	Generator  Generator
	Embedder   llm.Embedder
	Archive    Archive
	Forecaster *forecast.Chain
	StartYear  int
	Now        func() time.Time
}

// Advisor ties the pipeline stages together.
type Advisor struct {
	fetcher    Fetcher
	state      Context
	generator  Generator
	embedder   llm.Embedder
	archive    Archive
	forecaster *forecast.Chain
	startYear  int
	now        func() time.Time
	log        zerolog.Logger
}

func New(fetcher Fetcher, state Context, log zerolog.Logger, opts Options) *Advisor {
	a := &Advisor{
		fetcher:    fetcher,
		state:      state,
		generator:  opts.Generator,
		embedder:   opts.Embedder,
		archive:    opts.Archive,
		forecaster: opts.Forecaster,
		startYear:  opts.StartYear,
		now:        opts.Now,
		log:        log.With().Str("component", "advisor").Logger(),
	}
	if a.forecaster == nil {
		a.forecaster = forecast.DefaultChain(log)
	}
	if a.startYear <= 0 {
		a.startYear = weather.DefaultStartYear
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Analysis is the full pipeline output for one region and period.
type Analysis struct {
	Region    string            `json:"region"`
	Period    weather.Period    `json:"period"`
	Table     *weather.Table    `json:"-"`
	Summary   *analysis.Summary `json:"summary"`
	Forecast  []forecast.Row    `json:"forecast"`
	Report    *report.Report    `json:"report"`
	ArchiveID string            `json:"archiveId,omitempty"`
}

// DefaultPeriod is the full available history up to the current month.
func (a *Advisor) DefaultPeriod() weather.Period {
	p, _ := weather.ResolvePeriod("", "", a.startYear, a.now())
	return p
}

// ResolvePeriod applies the configured defaults to optional bounds.
func (a *Advisor) ResolvePeriod(start, end string) (weather.Period, error) {
	return weather.ResolvePeriod(start, end, a.startYear, a.now())
}

// Run fetches, analyzes, forecasts and composes without touching sessions.
func (a *Advisor) Run(ctx context.Context, region string, period weather.Period) (*Analysis, error) {
	table, err := a.fetcher.Fetch(ctx, region, period)
	if err != nil {
		return nil, err
	}
	summary := a.summarize(table, period)
	rows := a.forecaster.Forecast(table.PrecipitationSeries())
	r := report.Compose(report.Input{
		Region:   table.Region,
		Table:    table,
		Forecast: rows,
		Summary:  summary,
		Period:   period,
		Now:      a.now(),
	})
	return &Analysis{
		Region:   table.Region,
		Period:   period,
		Table:    table,
		Summary:  summary,
		Forecast: rows,
		Report:   r,
	}, nil
}

// Analyze runs the pipeline, stores the report in the session and archives it.
// An archive failure is logged and does not fail the analysis.
func (a *Advisor) Analyze(ctx context.Context, sessionID, region string, period weather.Period) (*Analysis, error) {
	res, err := a.Run(ctx, region, period)
	if err != nil {
		return nil, err
	}
	if sessionID != "" {
		a.state.SaveReport(sessionID, res.Report)
	}
	if a.archive != nil {
		id, err := a.archive.Save(ctx, sessionID, res.Report)
		if err != nil {
			a.log.Warn().Err(err).Str("region", res.Region).Msg("archiving report failed")
		} else {
			res.ArchiveID = id
		}
	}
	a.log.Info().Str("region", res.Region).Str("period", period.String()).Int("observations", res.Summary.Observations).Msg("analysis completed")
	return res, nil
}

// Warm fills the table and analysis caches for the default period.
func (a *Advisor) Warm(ctx context.Context, region string) error {
	_, err := a.Run(ctx, region, a.DefaultPeriod())
	return err
}

// MostRain compares every region over the full history, or one year.
func (a *Advisor) MostRain(ctx context.Context, year *int) (analysis.RegionTotal, bool, error) {
	tables, err := a.fetcher.FetchAll(ctx, a.DefaultPeriod())
	if err != nil {
		return analysis.RegionTotal{}, false, err
	}
	best, ok := analysis.MostRain(tables, year)
	return best, ok, nil
}

func (a *Advisor) summarize(table *weather.Table, period weather.Period) *analysis.Summary {
	key := weather.Key(table.Region, period)
	if s, ok := a.state.GetAnalysis(key); ok {
		return s
	}
	return a.state.PutAnalysis(key, analysis.Analyze(table))
}
