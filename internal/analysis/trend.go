// Package analysis computes trend, descriptive and seasonal statistics over
// assembled monthly climate tables.
package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// TrendLabel classifies the sign of a fitted slope.
type TrendLabel string

const (
	Rising           TrendLabel = "rising"
	Falling          TrendLabel = "falling"
	Flat             TrendLabel = "flat"
	InsufficientData TrendLabel = "insufficient_data"
)

// FlatThreshold is the absolute slope below which a trend is considered flat.
const FlatThreshold = 1e-6

// Spanish returns the label shown to users.
func (l TrendLabel) Spanish() string {
	switch l {
	case Rising:
		return "Alcista"
	case Falling:
		return "Bajista"
	case Flat:
		return "Lateral"
	default:
		return "Sin datos suficientes"
	}
}

// Trend is a least-squares slope in value units per day plus its label.
type Trend struct {
	Slope float64    `json:"slope"`
	Label TrendLabel `json:"label"`
}

func validPoint(p weather.Point) bool {
	return !p.Date.IsZero() && !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0)
}

// ComputeTrend fits value against days elapsed since the earliest valid point.
func ComputeTrend(points []weather.Point) Trend {
	valid := make([]weather.Point, 0, len(points))
	for _, p := range points {
		if validPoint(p) {
			valid = append(valid, p)
		}
	}
	if len(valid) < 2 {
		return Trend{Slope: 0, Label: InsufficientData}
	}

	origin := valid[0].Date
	for _, p := range valid[1:] {
		if p.Date.Before(origin) {
			origin = p.Date
		}
	}

	xs := make([]float64, len(valid))
	ys := make([]float64, len(valid))
	for i, p := range valid {
		xs[i] = elapsedDays(origin, p.Date)
		ys[i] = p.Value
	}

	slope := olsSlope(xs, ys)
	return Trend{Slope: slope, Label: classify(slope)}
}

func classify(slope float64) TrendLabel {
	switch {
	case math.Abs(slope) < FlatThreshold:
		return Flat
	case slope > 0:
		return Rising
	default:
		return Falling
	}
}

// olsSlope returns the first-degree least-squares coefficient, or 0 when the
// fit is undefined (e.g. every x identical).
func olsSlope(xs, ys []float64) float64 {
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return beta
}

// IndexSlope fits values against their position 0..n-1.
func IndexSlope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	return olsSlope(xs, values)
}

// AnnualTotal is the summed precipitation of one calendar year.
type AnnualTotal struct {
	Year    int     `json:"year"`
	TotalMM float64 `json:"totalMm"`
}

// AnnualTotals sums monthly precipitation per calendar year, ascending.
func AnnualTotals(table *weather.Table) []AnnualTotal {
	var out []AnnualTotal
	for _, r := range table.Rows {
		p := weather.Point{Date: r.Date, Value: r.PrecipMM}
		if !validPoint(p) {
			continue
		}
		year := r.Date.Year()
		if n := len(out); n > 0 && out[n-1].Year == year {
			out[n-1].TotalMM += r.PrecipMM
			continue
		}
		out = append(out, AnnualTotal{Year: year, TotalMM: r.PrecipMM})
	}
	return out
}

func elapsedDays(origin, t time.Time) float64 {
	return t.Sub(origin).Hours() / 24
}
