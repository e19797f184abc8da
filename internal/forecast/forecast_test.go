package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-advisory/internal/weather"
)

func series(start time.Time, values ...float64) []weather.Point {
	out := make([]weather.Point, len(values))
	for i, v := range values {
		out[i] = weather.Point{Date: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

var mar2020 = time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC)

func assertWellFormed(t *testing.T, rows []Row, first time.Time) {
	t.Helper()
	require.Len(t, rows, Horizon)
	for i, r := range rows {
		assert.Equal(t, first.AddDate(0, i, 0), r.Date)
		assert.Equal(t, 1, r.Date.Day())
		assert.GreaterOrEqual(t, r.Yhat, 0.0)
		assert.GreaterOrEqual(t, r.Lower, 0.0)
		assert.GreaterOrEqual(t, r.Upper, 0.0)
	}
}

func TestFallbackWithConstantShortSeries(t *testing.T) {
	chain := DefaultChain(zerolog.Nop())
	rows := chain.Forecast(series(mar2020, 42, 42, 42, 42, 42, 42))

	assertWellFormed(t, rows, time.Date(2020, time.September, 1, 0, 0, 0, 0, time.UTC))
	for _, r := range rows {
		assert.InDelta(t, 42, r.Yhat, 1e-9)
		assert.InDelta(t, 42, r.Lower, 1e-9)
		assert.InDelta(t, 42, r.Upper, 1e-9)
	}
}

func TestEmptyHistoryStartsAfterNow(t *testing.T) {
	now := time.Date(2024, time.December, 20, 10, 0, 0, 0, time.UTC)
	chain := DefaultChain(zerolog.Nop()).WithClock(func() time.Time { return now })

	rows := chain.Forecast(nil)
	assertWellFormed(t, rows, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	for _, r := range rows {
		assert.Equal(t, 0.0, r.Yhat)
	}
}

func TestClimatologyUsesCalendarMonthMeansAndIndexTrend(t *testing.T) {
	// Two years of a pure seasonal cycle: month m has value 10*m, no trend.
	var values []float64
	for y := 0; y < 2; y++ {
		for m := 1; m <= 12; m++ {
			values = append(values, float64(10*m))
		}
	}
	jan := time.Date(2018, time.January, 15, 0, 0, 0, 0, time.UTC)
	history := series(jan, values...)

	rows, err := Climatology{}.Forecast(history, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), Horizon)
	require.NoError(t, err)
	require.Len(t, rows, Horizon)

	// The index slope is positive for a sawtooth, so each step adds it on top of the month mean.
	slope := rows[12].Yhat - rows[0].Yhat
	assert.Greater(t, slope, 0.0)
	assert.InDelta(t, rows[1].Yhat-rows[0].Yhat, 10+slope/12, 1e-9)
	assert.Greater(t, rows[0].Upper, rows[0].Yhat)
}

func TestDecompositionRecoversTrendAndSeason(t *testing.T) {
	jan := time.Date(2015, time.January, 15, 0, 0, 0, 0, time.UTC)
	var history []weather.Point
	for i := 0; i < 60; i++ {
		d := jan.AddDate(0, i, 0)
		season := 30 * math.Sin(2*math.Pi*float64(d.Month()-1)/12)
		history = append(history, weather.Point{Date: d, Value: 100 + 0.01*float64(i*30) + season})
	}

	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	rows, err := Decomposition{}.Forecast(history, start, Horizon)
	require.NoError(t, err)
	require.Len(t, rows, Horizon)

	// April (sin peak) must sit above October (sin trough).
	assert.Greater(t, rows[3].Yhat, rows[9].Yhat)
	for _, r := range rows {
		assert.LessOrEqual(t, r.Lower, r.Yhat)
		assert.GreaterOrEqual(t, r.Upper, r.Yhat)
	}
}

func TestDecompositionNeedsTwelveObservations(t *testing.T) {
	_, err := Decomposition{}.Forecast(series(mar2020, 1, 2, 3), mar2020, Horizon)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Forecast([]weather.Point, time.Time, int) ([]Row, error) {
	return nil, errors.New("model exploded")
}

func TestChainFallsBackOnStrategyError(t *testing.T) {
	chain := NewChain(zerolog.Nop(), failing{})
	values := make([]float64, 36)
	for i := range values {
		values[i] = 50
	}
	rows := chain.Forecast(series(mar2020, values...))
	assertWellFormed(t, rows, time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.InDelta(t, 50, rows[0].Yhat, 1e-9)
}

func TestChainClampsNegativeProjections(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(240 - 10*i)
	}
	rows := DefaultChain(zerolog.Nop()).Forecast(series(mar2020, values...))
	assertWellFormed(t, rows, time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, rows[Horizon-1].Yhat)
}
