package analysis

import (
	"math"
	"sort"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// RegionTotal is a region's accumulated precipitation.
type RegionTotal struct {
	Region  string  `json:"region"`
	Year    *int    `json:"year,omitempty"`
	TotalMM float64 `json:"totalMm"`
}

// MostRain returns the region with the highest total precipitation, limited
// to year when non-nil. Regions are visited in name order and only a strictly
// greater total replaces the leader, so ties go to the alphabetically first
// region. Regions with no valid rows are skipped; ok is false when none remain.
func MostRain(tables map[string]*weather.Table, year *int) (best RegionTotal, ok bool) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := tables[name]
		if t == nil {
			continue
		}
		var total float64
		valid := 0
		for _, r := range t.Rows {
			if r.Date.IsZero() || math.IsNaN(r.PrecipMM) {
				continue
			}
			valid++
			if year != nil && r.Date.Year() != *year {
				continue
			}
			total += r.PrecipMM
		}
		if valid == 0 {
			continue
		}
		if !ok || total > best.TotalMM {
			best = RegionTotal{Region: name, Year: year, TotalMM: total}
			ok = true
		}
	}
	return best, ok
}
