package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// PrecipStats describes monthly precipitation totals in mm.
type PrecipStats struct {
	Mean   float64 `json:"meanMm"`
	Max    float64 `json:"maxMm"`
	Min    float64 `json:"minMm"`
	StdDev float64 `json:"stdDevMm"`
	CV     float64 `json:"cvPct"` // std/mean × 100
}

// TempStats describes temperature in °C.
type TempStats struct {
	Mean      float64 `json:"meanC"`
	Max       float64 `json:"maxC"`
	Min       float64 `json:"minC"`
	Amplitude float64 `json:"amplitudeC"`
}

// HumidityStats describes relative humidity in %.
type HumidityStats struct {
	Mean float64 `json:"meanPct"`
	Max  float64 `json:"maxPct"`
	Min  float64 `json:"minPct"`
}

// Season is a Southern-Hemisphere meteorological season.
type Season string

const (
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
	Spring Season = "spring"
)

var seasonOrder = []Season{Summer, Autumn, Winter, Spring}

// Spanish returns the season name shown to users.
func (s Season) Spanish() string {
	switch s {
	case Summer:
		return "Verano"
	case Autumn:
		return "Otoño"
	case Winter:
		return "Invierno"
	default:
		return "Primavera"
	}
}

// SeasonOf maps a month onto its Southern-Hemisphere season.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return Summer
	case time.March, time.April, time.May:
		return Autumn
	case time.June, time.July, time.August:
		return Winter
	default:
		return Spring
	}
}

// SeasonStats aggregates one season over the whole table.
type SeasonStats struct {
	Season       Season   `json:"season"`
	PrecipMeanMM float64  `json:"precipMeanMm"`
	TempMeanC    *float64 `json:"tempMeanC,omitempty"`
}

// sampleStdDev is the N-1 standard deviation, 0 when undefined.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd := stat.StdDev(xs, nil)
	if math.IsNaN(sd) || math.IsInf(sd, 0) {
		return 0
	}
	return sd
}

// DescribePrecipitation computes monthly precipitation statistics.
// It returns nil for an empty series.
func DescribePrecipitation(values []float64) *PrecipStats {
	if len(values) == 0 {
		return nil
	}
	s := &PrecipStats{
		Mean:   stat.Mean(values, nil),
		Max:    floats.Max(values),
		Min:    floats.Min(values),
		StdDev: sampleStdDev(values),
	}
	if s.Mean != 0 {
		s.CV = s.StdDev / s.Mean * 100
	}
	return s
}

func column(table *weather.Table, get func(weather.Row) *float64) []float64 {
	var out []float64
	for _, r := range table.Rows {
		if v := get(r); v != nil && !math.IsNaN(*v) {
			out = append(out, *v)
		}
	}
	return out
}

// DescribeTemperature uses T2M for the mean, and T2M_MAX/T2M_MIN for the
// extremes when those columns exist. Nil when no temperature is present.
func DescribeTemperature(table *weather.Table) *TempStats {
	mean := column(table, func(r weather.Row) *float64 { return r.TempMean })
	if len(mean) == 0 {
		return nil
	}
	maxs := column(table, func(r weather.Row) *float64 { return r.TempMax })
	if len(maxs) == 0 {
		maxs = mean
	}
	mins := column(table, func(r weather.Row) *float64 { return r.TempMin })
	if len(mins) == 0 {
		mins = mean
	}
	s := &TempStats{
		Mean: stat.Mean(mean, nil),
		Max:  floats.Max(maxs),
		Min:  floats.Min(mins),
	}
	s.Amplitude = s.Max - s.Min
	return s
}

// DescribeHumidity is nil when the humidity column is absent.
func DescribeHumidity(table *weather.Table) *HumidityStats {
	h := column(table, func(r weather.Row) *float64 { return r.Humidity })
	if len(h) == 0 {
		return nil
	}
	return &HumidityStats{
		Mean: stat.Mean(h, nil),
		Max:  floats.Max(h),
		Min:  floats.Min(h),
	}
}

// Seasons aggregates precipitation and temperature per season, in
// Summer, Autumn, Winter, Spring order. Seasons without rows are omitted.
func Seasons(table *weather.Table) []SeasonStats {
	precip := make(map[Season][]float64)
	temp := make(map[Season][]float64)
	for _, r := range table.Rows {
		s := SeasonOf(r.Date.Month())
		if !math.IsNaN(r.PrecipMM) {
			precip[s] = append(precip[s], r.PrecipMM)
		}
		if r.TempMean != nil && !math.IsNaN(*r.TempMean) {
			temp[s] = append(temp[s], *r.TempMean)
		}
	}

	var out []SeasonStats
	for _, s := range seasonOrder {
		if len(precip[s]) == 0 {
			continue
		}
		ss := SeasonStats{Season: s, PrecipMeanMM: stat.Mean(precip[s], nil)}
		if table.Has(weather.VarTempMean) && len(temp[s]) > 0 {
			m := stat.Mean(temp[s], nil)
			ss.TempMeanC = &m
		}
		out = append(out, ss)
	}
	return out
}
