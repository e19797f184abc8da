package weather

import (
	"encoding/json"
	"fmt"
	"time"
)

// Variable is a physical quantity code understood by the climate data provider.
type Variable string

const (
	VarPrecipitation Variable = "PRECTOTCORR" // mm/day
	VarTempMean      Variable = "T2M"         // °C
	VarTempMax       Variable = "T2M_MAX"     // °C
	VarTempMin       Variable = "T2M_MIN"     // °C
	VarHumidity      Variable = "RH2M"        // %
)

// TrackedVariables lists every variable fetched for a region, precipitation first.
var TrackedVariables = []Variable{
	VarPrecipitation,
	VarTempMean,
	VarTempMax,
	VarTempMin,
	VarHumidity,
}

// BoundingBox is a latitude/longitude rectangle in decimal degrees.
type BoundingBox struct {
	LatMin float64 `json:"latMin"`
	LatMax float64 `json:"latMax"`
	LonMin float64 `json:"lonMin"`
	LonMax float64 `json:"lonMax"`
}

// Region is a supported administrative area.
type Region struct {
	Name string      `json:"name"`
	Box  BoundingBox `json:"boundingBox"`
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q is not YYYY-MM", ErrInvalidPeriod, s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Period is an inclusive range of months.
type Period struct {
	Start YearMonth `json:"-"`
	End   YearMonth `json:"-"`
}

// Contains reports whether ym falls inside the period.
func (p Period) Contains(ym YearMonth) bool {
	return !ym.Before(p.Start) && !p.End.Before(ym)
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}

// MarshalJSON renders the period as {"start":"YYYY-MM","end":"YYYY-MM"}.
func (p Period) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"start":%q,"end":%q}`, p.Start.String(), p.End.String())), nil
}

// UnmarshalJSON accepts the MarshalJSON form.
func (p *Period) UnmarshalJSON(data []byte) error {
	var raw struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	zero := YearMonth{}.String()
	if raw.Start == zero && raw.End == zero {
		*p = Period{}
		return nil
	}
	start, err := ParseYearMonth(raw.Start)
	if err != nil {
		return err
	}
	end, err := ParseYearMonth(raw.End)
	if err != nil {
		return err
	}
	p.Start, p.End = start, end
	return nil
}

// RawSeries maps provider date keys ("YYYYMM") to values for one variable.
// Missing observations are simply absent.
type RawSeries map[string]float64

// Point is one (date, value) observation of a canonical series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Row is one month of assembled climate data.
type Row struct {
	Date        time.Time `json:"date"` // 15th of the month, UTC
	PrecipMMDay float64   `json:"precipMmDay"`
	PrecipMM    float64   `json:"precipMm"`
	TempMean    *float64  `json:"tempMeanC,omitempty"`
	TempMax     *float64  `json:"tempMaxC,omitempty"`
	TempMin     *float64  `json:"tempMinC,omitempty"`
	Humidity    *float64  `json:"humidityPct,omitempty"`
}

// Table is the canonical per-region monthly series, ordered by Date ascending.
type Table struct {
	Region  string   `json:"region"`
	Period  Period   `json:"period"`
	Rows    []Row    `json:"rows"`
	Columns []string `json:"columns"`
}

// Has reports whether the optional column for v is present.
func (t *Table) Has(v Variable) bool {
	for _, c := range t.Columns {
		if c == string(v) {
			return true
		}
	}
	return false
}

// PrecipitationSeries returns the monthly precipitation totals as points.
func (t *Table) PrecipitationSeries() []Point {
	out := make([]Point, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Point{Date: r.Date, Value: r.PrecipMM})
	}
	return out
}

// Key returns a canonical cache key for a region and period.
func Key(region string, p Period) string {
	return region + ":" + p.String()
}
