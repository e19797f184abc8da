package analysis

import (
	"time"

	"github.com/i474232898/climate-advisory/internal/weather"
)

// Summary bundles every statistic derived from one region's table.
type Summary struct {
	Region        string         `json:"region"`
	Observations  int            `json:"observations"`
	FirstDate     time.Time      `json:"firstDate"`
	LastDate      time.Time      `json:"lastDate"`
	Trend         Trend          `json:"trend"`
	Precipitation *PrecipStats   `json:"precipitation,omitempty"`
	Temperature   *TempStats     `json:"temperature,omitempty"`
	Humidity      *HumidityStats `json:"humidity,omitempty"`
	Seasons       []SeasonStats  `json:"seasons,omitempty"`
	AnnualTotals  []AnnualTotal  `json:"annualTotals,omitempty"`
}

// Analyze computes the full Summary for a table.
func Analyze(table *weather.Table) *Summary {
	series := table.PrecipitationSeries()

	values := make([]float64, 0, len(series))
	for _, p := range series {
		if validPoint(p) {
			values = append(values, p.Value)
		}
	}

	s := &Summary{
		Region:        table.Region,
		Observations:  len(values),
		Trend:         ComputeTrend(series),
		Precipitation: DescribePrecipitation(values),
		Temperature:   DescribeTemperature(table),
		Humidity:      DescribeHumidity(table),
		Seasons:       Seasons(table),
		AnnualTotals:  AnnualTotals(table),
	}
	if n := len(table.Rows); n > 0 {
		s.FirstDate = table.Rows[0].Date
		s.LastDate = table.Rows[n-1].Date
	}
	return s
}

// EstimatedAnnualMM is the mean monthly total scaled to a year, 0 without data.
func (s *Summary) EstimatedAnnualMM() float64 {
	if s == nil || s.Precipitation == nil {
		return 0
	}
	return s.Precipitation.Mean * 12
}
