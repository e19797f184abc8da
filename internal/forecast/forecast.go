// Package forecast projects monthly precipitation 24 months ahead using an
// ordered chain of strategies; the first strategy that succeeds wins.
package forecast

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// Horizon is the number of months projected.
const Horizon = 24

// ErrInsufficientHistory is returned by strategies that need more data.
var ErrInsufficientHistory = errors.New("insufficient history")

// Row is one projected month.
type Row struct {
	Date  time.Time `json:"date"` // first day of the month, UTC
	Yhat  float64   `json:"yhat"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

// Forecaster is one projection strategy.
type Forecaster interface {
	Name() string
	Forecast(history []weather.Point, start time.Time, horizon int) ([]Row, error)
}

// Chain tries its strategies in order.
type Chain struct {
	strategies []Forecaster
	now        func() time.Time
	log        zerolog.Logger
}

// NewChain builds a chain ending with the climatology fallback, which is
// appended when absent so the chain always produces rows.
func NewChain(log zerolog.Logger, strategies ...Forecaster) *Chain {
	hasFallback := false
	for _, s := range strategies {
		if _, ok := s.(Climatology); ok {
			hasFallback = true
		}
	}
	if !hasFallback {
		strategies = append(strategies, Climatology{})
	}
	return &Chain{
		strategies: strategies,
		now:        time.Now,
		log:        log.With().Str("component", "forecast").Logger(),
	}
}

// DefaultChain is decomposition first, climatology as the fallback.
func DefaultChain(log zerolog.Logger) *Chain {
	return NewChain(log, Decomposition{}, Climatology{})
}

// WithClock overrides the clock used when history is empty.
func (c *Chain) WithClock(now func() time.Time) *Chain {
	c.now = now
	return c
}

// Forecast returns exactly Horizon consecutive monthly rows starting the month
// after the last observation, with every value clamped to >= 0. Strategy
// errors are logged and never returned.
func (c *Chain) Forecast(series []weather.Point) []Row {
	history := cleanHistory(series)
	start := firstForecastMonth(history, c.now())

	for _, s := range c.strategies {
		rows, err := s.Forecast(history, start, Horizon)
		if err != nil {
			c.log.Debug().Err(err).Str("strategy", s.Name()).Msg("forecast strategy failed; trying next")
			continue
		}
		if len(rows) != Horizon {
			c.log.Debug().Str("strategy", s.Name()).Int("rows", len(rows)).Msg("forecast strategy returned wrong horizon")
			continue
		}
		return clamp(rows)
	}

	// Only reachable with a misbehaving custom chain.
	rows, _ := Climatology{}.Forecast(history, start, Horizon)
	return clamp(rows)
}

func cleanHistory(series []weather.Point) []weather.Point {
	out := make([]weather.Point, 0, len(series))
	for _, p := range series {
		if p.Date.IsZero() || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func firstForecastMonth(history []weather.Point, now time.Time) time.Time {
	ref := now.UTC()
	if n := len(history); n > 0 {
		ref = history[n-1].Date.UTC()
	}
	return monthStart(ref).AddDate(0, 1, 0)
}

// Dates returns horizon consecutive month starts beginning at start.
func Dates(start time.Time, horizon int) []time.Time {
	out := make([]time.Time, horizon)
	for i := range out {
		out[i] = start.AddDate(0, i, 0)
	}
	return out
}

func clamp(rows []Row) []Row {
	for i := range rows {
		rows[i].Yhat = math.Max(0, rows[i].Yhat)
		rows[i].Lower = math.Max(0, rows[i].Lower)
		rows[i].Upper = math.Max(0, rows[i].Upper)
	}
	return rows
}
