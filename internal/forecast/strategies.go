package forecast

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/weather"
)

// MinDecompositionHistory is the fewest observations the decomposition model accepts.
const MinDecompositionHistory = 12

// z-score of an 80% two-sided interval.
const intervalZ = 1.2816

// Climatology is the deterministic fallback: historical mean per calendar
// month plus a linear trend over the observation index, with bounds at
// ±1.5 standard deviations of the whole series.
type Climatology struct{}

func (Climatology) Name() string { return "climatology" }

func (Climatology) Forecast(history []weather.Point, start time.Time, horizon int) ([]Row, error) {
	values := make([]float64, len(history))
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for i, p := range history {
		values[i] = p.Value
		sums[p.Date.Month()] += p.Value
		counts[p.Date.Month()]++
	}

	overall := 0.0
	if len(values) > 0 {
		overall = stat.Mean(values, nil)
	}
	slope := analysis.IndexSlope(values)

	sd := 0.0
	if len(values) >= 2 {
		sd = stat.StdDev(values, nil)
		if math.IsNaN(sd) || math.IsInf(sd, 0) {
			sd = 0
		}
	}
	band := 1.5 * sd

	rows := make([]Row, 0, horizon)
	for i, d := range Dates(start, horizon) {
		base := overall
		if n := counts[d.Month()]; n > 0 {
			base = sums[d.Month()] / float64(n)
		}
		yhat := math.Max(0, base+slope*float64(i+1))
		rows = append(rows, Row{
			Date:  d,
			Yhat:  yhat,
			Lower: math.Max(0, yhat-band),
			Upper: yhat + band,
		})
	}
	return rows, nil
}

// Decomposition is an additive trend + yearly seasonality model for monthly
// data: a linear trend on elapsed days, per-calendar-month offsets taken from
// the detrended residuals, and an 80% band from the remaining residual spread.
type Decomposition struct{}

func (Decomposition) Name() string { return "decomposition" }

func (Decomposition) Forecast(history []weather.Point, start time.Time, horizon int) ([]Row, error) {
	if len(history) < MinDecompositionHistory {
		return nil, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientHistory, len(history), MinDecompositionHistory)
	}

	origin := history[0].Date
	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i, p := range history {
		xs[i] = p.Date.Sub(origin).Hours() / 24
		ys[i] = p.Value
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if !finite(alpha) || !finite(beta) {
		return nil, fmt.Errorf("trend fit is undefined")
	}

	residuals := make([]float64, len(history))
	seasonalSum := make(map[time.Month]float64)
	seasonalN := make(map[time.Month]int)
	for i, p := range history {
		residuals[i] = ys[i] - (alpha + beta*xs[i])
		seasonalSum[p.Date.Month()] += residuals[i]
		seasonalN[p.Date.Month()]++
	}
	seasonal := make(map[time.Month]float64, 12)
	for m, n := range seasonalN {
		seasonal[m] = seasonalSum[m] / float64(n)
	}

	noise := make([]float64, len(history))
	for i, p := range history {
		noise[i] = residuals[i] - seasonal[p.Date.Month()]
	}
	sigma := stat.StdDev(noise, nil)
	if !finite(sigma) {
		return nil, fmt.Errorf("residual spread is undefined")
	}
	band := intervalZ * sigma

	rows := make([]Row, 0, horizon)
	for _, d := range Dates(start, horizon) {
		// History is anchored mid-month, so project on the same anchor.
		x := time.Date(d.Year(), d.Month(), 15, 0, 0, 0, 0, time.UTC).Sub(origin).Hours() / 24
		yhat := alpha + beta*x + seasonal[d.Month()]
		if !finite(yhat) {
			return nil, fmt.Errorf("non-finite projection for %s", d.Format("2006-01"))
		}
		rows = append(rows, Row{Date: d, Yhat: yhat, Lower: yhat - band, Upper: yhat + band})
	}
	return rows, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
