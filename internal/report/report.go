// Package report turns an analysis summary and a forecast into the detailed
// climate report shown to users and consumed by the advisor.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/forecast"
	"github.com/i474232898/climate-advisory/internal/weather"
)

// Tier classifies the coefficient of variation of monthly precipitation.
type Tier string

const (
	TierLow      Tier = "low"
	TierModerate Tier = "moderate"
	TierHigh     Tier = "high"
)

// TierOf maps a CV percentage onto a tier: <20 low, 20-40 moderate, >40 high.
func TierOf(cv float64) Tier {
	switch {
	case cv < 20:
		return TierLow
	case cv <= 40:
		return TierModerate
	default:
		return TierHigh
	}
}

func (t Tier) Spanish() string {
	switch t {
	case TierLow:
		return "baja (estable)"
	case TierModerate:
		return "moderada"
	default:
		return "alta (variable)"
	}
}

// Regime flags regions whose estimated annual precipitation is extreme.
type Regime string

const (
	RegimeNone Regime = "none"
	RegimeLow  Regime = "low_precipitation"
	RegimeHigh Regime = "high_precipitation"
)

const (
	LowRegimeMM  = 500.0
	HighRegimeMM = 1500.0
)

// RegimeOf classifies an annual total in mm.
func RegimeOf(annualMM float64) Regime {
	switch {
	case annualMM < LowRegimeMM:
		return RegimeLow
	case annualMM > HighRegimeMM:
		return RegimeHigh
	default:
		return RegimeNone
	}
}

// TendencyKind compares the predicted mean against the historical mean.
type TendencyKind string

const (
	Normal TendencyKind = "normal"
	Wet    TendencyKind = "wet"
	Dry    TendencyKind = "dry"
)

// NormalBandPct is the absolute percent difference still considered normal.
const NormalBandPct = 5.0

// Tendency is the forecast-vs-history comparison.
type Tendency struct {
	Kind     TendencyKind `json:"kind"`
	DeltaPct float64      `json:"deltaPct"`
}

// TendencyOf compares a predicted mean with the historical monthly mean.
func TendencyOf(predicted, historical float64) Tendency {
	if historical == 0 {
		return Tendency{Kind: Normal}
	}
	delta := (predicted - historical) / historical * 100
	switch {
	case math.Abs(delta) < NormalBandPct:
		return Tendency{Kind: Normal, DeltaPct: delta}
	case delta > 0:
		return Tendency{Kind: Wet, DeltaPct: delta}
	default:
		return Tendency{Kind: Dry, DeltaPct: delta}
	}
}

// Label is the user-facing tendency text, e.g. "húmeda (+12.3%)".
func (t Tendency) Label() string {
	switch t.Kind {
	case Wet:
		return fmt.Sprintf("húmeda (+%.1f%%)", t.DeltaPct)
	case Dry:
		return fmt.Sprintf("seca (-%.1f%%)", math.Abs(t.DeltaPct))
	default:
		return "normal"
	}
}

// ForecastStats summarizes the projected months.
type ForecastStats struct {
	Months   int       `json:"months"`
	Mean     float64   `json:"meanMm"`
	Max      float64   `json:"maxMm"`
	Min      float64   `json:"minMm"`
	Tendency *Tendency `json:"tendency,omitempty"`
}

// Input is everything the composer reads. Nothing in it is modified.
type Input struct {
	Region   string
	Table    *weather.Table
	Forecast []forecast.Row
	Summary  *analysis.Summary
	Period   weather.Period
	Now      time.Time
}

// Report carries both the rendered narrative and the values it was built from.
type Report struct {
	Region            string            `json:"region"`
	Period            weather.Period    `json:"period"`
	GeneratedAt       time.Time         `json:"generatedAt"`
	Observations      int               `json:"observations"`
	Trend             analysis.Trend    `json:"trend"`
	MonthlyMeanMM     float64           `json:"monthlyMeanMm"`
	EstimatedAnnualMM float64           `json:"estimatedAnnualMm"`
	CV                float64           `json:"cvPct"`
	Tier              Tier              `json:"variability,omitempty"`
	Regime            Regime            `json:"regime"`
	Forecast          *ForecastStats    `json:"forecast,omitempty"`
	Alerts            []string          `json:"alerts"`
	Lines             []string          `json:"lines"`
	summary           *analysis.Summary
}

// Text joins the rendered lines.
func (r *Report) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Lines, "\n")
}

// Compose builds a report. Missing inputs omit their sections.
func Compose(in Input) *Report {
	summary := in.Summary
	if summary == nil && in.Table != nil {
		summary = analysis.Analyze(in.Table)
	}
	region := in.Region
	if region == "" && summary != nil {
		region = summary.Region
	}

	r := &Report{
		Region:      region,
		Period:      in.Period,
		GeneratedAt: in.Now.UTC(),
		Regime:      RegimeNone,
		summary:     summary,
	}

	if summary != nil {
		r.Observations = summary.Observations
		r.Trend = summary.Trend
		if p := summary.Precipitation; p != nil {
			r.MonthlyMeanMM = p.Mean
			r.EstimatedAnnualMM = summary.EstimatedAnnualMM()
			r.CV = p.CV
			r.Tier = TierOf(p.CV)
			r.Regime = RegimeOf(r.EstimatedAnnualMM)
		}
	}

	r.Forecast = forecastStats(in.Forecast, in.Now, r.MonthlyMeanMM, summary != nil && summary.Precipitation != nil)
	r.Alerts = alerts(r)
	r.Lines = render(r)
	return r
}

func forecastStats(rows []forecast.Row, now time.Time, historicalMean float64, hasHistory bool) *ForecastStats {
	if len(rows) == 0 {
		return nil
	}
	future := make([]forecast.Row, 0, len(rows))
	for _, row := range rows {
		if row.Date.After(now) {
			future = append(future, row)
		}
	}
	withTendency := len(future) > 0
	if !withTendency {
		future = rows
	}

	fs := &ForecastStats{Months: len(future), Max: math.Inf(-1), Min: math.Inf(1)}
	sum := 0.0
	for _, row := range future {
		sum += row.Yhat
		fs.Max = math.Max(fs.Max, row.Yhat)
		fs.Min = math.Min(fs.Min, row.Yhat)
	}
	fs.Mean = sum / float64(len(future))

	if withTendency && hasHistory {
		t := TendencyOf(fs.Mean, historicalMean)
		fs.Tendency = &t
	}
	return fs
}

func alerts(r *Report) []string {
	var out []string
	switch r.Regime {
	case RegimeLow:
		out = append(out, fmt.Sprintf("Región de baja precipitación (%.0f mm/año estimados, menos de %.0f mm): planificar riego complementario y conservar la humedad del suelo.", r.EstimatedAnnualMM, LowRegimeMM))
	case RegimeHigh:
		out = append(out, fmt.Sprintf("Región de alta precipitación (%.0f mm/año estimados, más de %.0f mm): reforzar drenajes y vigilar enfermedades fúngicas.", r.EstimatedAnnualMM, HighRegimeMM))
	}
	if r.Tier == TierHigh {
		out = append(out, fmt.Sprintf("Alta variabilidad mensual (CV %.1f%%): escalonar siembras y asegurar reservas de agua.", r.CV))
	}
	if f := r.Forecast; f != nil && f.Tendency != nil {
		switch f.Tendency.Kind {
		case Dry:
			out = append(out, fmt.Sprintf("Se proyectan lluvias por debajo del promedio histórico (%.1f%%): priorizar eficiencia de riego.", f.Tendency.DeltaPct))
		case Wet:
			out = append(out, fmt.Sprintf("Se proyectan lluvias por encima del promedio histórico (+%.1f%%): prever excesos hídricos y anegamientos.", f.Tendency.DeltaPct))
		}
	}
	if r.Trend.Label == analysis.Falling {
		out = append(out, "La tendencia histórica es descendente: programar riegos por demanda.")
	}
	if len(out) == 0 {
		out = append(out, "Sin alertas significativas: mantener el monitoreo regular de lluvias y humedad del suelo.")
	}
	return out
}
