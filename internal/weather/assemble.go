package weather

import (
	"sort"
	"strconv"
	"time"
)

// DaysIn returns the number of days in the given month, leap-year aware.
func DaysIn(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseKey splits a provider "YYYYMM" key. Month 13 (the annual aggregate)
// and anything else outside 1..12 is rejected.
func parseKey(key string) (YearMonth, bool) {
	if len(key) != 6 {
		return YearMonth{}, false
	}
	year, err := strconv.Atoi(key[:4])
	if err != nil {
		return YearMonth{}, false
	}
	month, err := strconv.Atoi(key[4:])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, false
	}
	return YearMonth{Year: year, Month: time.Month(month)}, true
}

// Assemble merges per-variable raw series into one monthly table restricted
// to period. Precipitation is mandatory; other variables become optional columns.
func Assemble(region string, period Period, raw map[Variable]RawSeries) (*Table, error) {
	precip := raw[VarPrecipitation]

	byMonth := make(map[YearMonth]*Row)
	for key, rate := range precip {
		ym, ok := parseKey(key)
		if !ok || !period.Contains(ym) {
			continue
		}
		byMonth[ym] = &Row{
			Date:        time.Date(ym.Year, ym.Month, 15, 0, 0, 0, 0, time.UTC),
			PrecipMMDay: rate,
			PrecipMM:    rate * float64(DaysIn(ym.Year, ym.Month)),
		}
	}
	if len(byMonth) == 0 {
		return nil, ErrNoPrecipitation
	}

	table := &Table{Region: region, Period: period}

	optional := []struct {
		v   Variable
		set func(*Row, float64)
	}{
		{VarTempMean, func(r *Row, v float64) { r.TempMean = &v }},
		{VarTempMax, func(r *Row, v float64) { r.TempMax = &v }},
		{VarTempMin, func(r *Row, v float64) { r.TempMin = &v }},
		{VarHumidity, func(r *Row, v float64) { r.Humidity = &v }},
	}
	for _, col := range optional {
		present := false
		for key, value := range raw[col.v] {
			ym, ok := parseKey(key)
			if !ok {
				continue
			}
			row, ok := byMonth[ym]
			if !ok {
				continue
			}
			col.set(row, value)
			present = true
		}
		if present {
			table.Columns = append(table.Columns, string(col.v))
		}
	}

	table.Rows = make([]Row, 0, len(byMonth))
	for _, r := range byMonth {
		table.Rows = append(table.Rows, *r)
	}
	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i].Date.Before(table.Rows[j].Date) })

	return table, nil
}
