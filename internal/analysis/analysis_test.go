package analysis

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/climate-advisory/internal/weather"
)

func monthly(start time.Time, values ...float64) []weather.Point {
	out := make([]weather.Point, len(values))
	for i, v := range values {
		out[i] = weather.Point{Date: start.AddDate(0, i, 0), Value: v}
	}
	return out
}

var jan2000 = time.Date(2000, time.January, 15, 0, 0, 0, 0, time.UTC)

func TestComputeTrendLabelsFollowSlopeSign(t *testing.T) {
	rising := ComputeTrend(monthly(jan2000, 10, 20, 30, 40))
	assert.Equal(t, Rising, rising.Label)
	assert.Greater(t, rising.Slope, 0.0)

	falling := ComputeTrend(monthly(jan2000, 40, 30, 20, 10))
	assert.Equal(t, Falling, falling.Label)
	assert.Less(t, falling.Slope, 0.0)

	flat := ComputeTrend(monthly(jan2000, 7, 7, 7, 7, 7))
	assert.Equal(t, Flat, flat.Label)
	assert.InDelta(t, 0, flat.Slope, FlatThreshold)
}

func TestComputeTrendSlopeIsPerDay(t *testing.T) {
	points := []weather.Point{
		{Date: jan2000, Value: 0},
		{Date: jan2000.AddDate(0, 0, 10), Value: 5},
		{Date: jan2000.AddDate(0, 0, 20), Value: 10},
	}
	tr := ComputeTrend(points)
	assert.InDelta(t, 0.5, tr.Slope, 1e-9)
}

func TestComputeTrendInsufficientData(t *testing.T) {
	for _, points := range [][]weather.Point{
		nil,
		monthly(jan2000, 12),
		{{Date: jan2000, Value: 3}, {Date: jan2000.AddDate(0, 1, 0), Value: math.NaN()}},
		{{Value: 3}, {Date: jan2000, Value: 4}},
	} {
		tr := ComputeTrend(points)
		assert.Equal(t, InsufficientData, tr.Label)
		assert.Equal(t, 0.0, tr.Slope)
	}
	assert.Equal(t, "Sin datos suficientes", InsufficientData.Spanish())
}

func TestDescribePrecipitation(t *testing.T) {
	s := DescribePrecipitation([]float64{10, 20, 30})
	require.NotNil(t, s)
	assert.InDelta(t, 20, s.Mean, 1e-9)
	assert.InDelta(t, 30, s.Max, 1e-9)
	assert.InDelta(t, 10, s.Min, 1e-9)
	assert.InDelta(t, 10, s.StdDev, 1e-9, "sample standard deviation")
	assert.InDelta(t, 50, s.CV, 1e-9)

	assert.Nil(t, DescribePrecipitation(nil))

	zero := DescribePrecipitation([]float64{0, 0})
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, zero.CV)
}

func f(v float64) *float64 { return &v }

func sampleTable() *weather.Table {
	t := &weather.Table{Region: "Salta", Columns: []string{string(weather.VarTempMean), string(weather.VarTempMax)}}
	// Jan..Dec 2001, then Jan 2002.
	for i := 0; i < 13; i++ {
		d := time.Date(2001, time.January, 15, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		t.Rows = append(t.Rows, weather.Row{
			Date:     d,
			PrecipMM: float64(10 * (i + 1)),
			TempMean: f(float64(10 + i)),
			TempMax:  f(float64(20 + i)),
		})
	}
	return t
}

func TestDescribeTemperatureUsesExtremeColumns(t *testing.T) {
	s := DescribeTemperature(sampleTable())
	require.NotNil(t, s)
	assert.InDelta(t, 16, s.Mean, 1e-9)
	assert.InDelta(t, 32, s.Max, 1e-9, "max comes from T2M_MAX")
	assert.InDelta(t, 10, s.Min, 1e-9, "min falls back to T2M")
	assert.InDelta(t, 22, s.Amplitude, 1e-9)

	assert.Nil(t, DescribeHumidity(sampleTable()))
}

func TestSeasonsSouthernHemisphere(t *testing.T) {
	assert.Equal(t, Summer, SeasonOf(time.December))
	assert.Equal(t, Summer, SeasonOf(time.February))
	assert.Equal(t, Autumn, SeasonOf(time.April))
	assert.Equal(t, Winter, SeasonOf(time.July))
	assert.Equal(t, Spring, SeasonOf(time.October))

	seasons := Seasons(sampleTable())
	require.Len(t, seasons, 4)
	assert.Equal(t, Summer, seasons[0].Season)
	// Summer rows: Jan 2001 (10), Feb 2001 (20), Dec 2001 (120), Jan 2002 (130).
	assert.InDelta(t, 70, seasons[0].PrecipMeanMM, 1e-9)
	require.NotNil(t, seasons[0].TempMeanC)
	assert.InDelta(t, 16, *seasons[0].TempMeanC, 1e-9)
}

func TestSeasonsOmitTemperatureWithoutColumn(t *testing.T) {
	table := sampleTable()
	table.Columns = nil
	for _, s := range Seasons(table) {
		assert.Nil(t, s.TempMeanC)
	}
}

func TestAnnualTotals(t *testing.T) {
	totals := AnnualTotals(sampleTable())
	require.Len(t, totals, 2)
	assert.Equal(t, 2001, totals[0].Year)
	assert.InDelta(t, 780, totals[0].TotalMM, 1e-9)
	assert.Equal(t, AnnualTotal{Year: 2002, TotalMM: 130}, totals[1])
}

func yearTable(region string, year int, monthly float64) *weather.Table {
	t := &weather.Table{Region: region}
	for m := time.January; m <= time.December; m++ {
		t.Rows = append(t.Rows, weather.Row{Date: time.Date(year, m, 15, 0, 0, 0, 0, time.UTC), PrecipMM: monthly})
	}
	return t
}

func TestMostRain(t *testing.T) {
	year := 2010
	tables := map[string]*weather.Table{
		"A": yearTable("A", year, 100.0/12),
		"C": yearTable("C", year, 250.0/12),
		"B": yearTable("B", year, 250.0/12),
	}

	best, ok := MostRain(tables, &year)
	require.True(t, ok)
	assert.InDelta(t, 250, best.TotalMM, 1e-9)
	assert.Equal(t, "B", best.Region, "ties go to the alphabetically first region")

	other := 1999
	best, ok = MostRain(tables, &other)
	require.True(t, ok)
	assert.Equal(t, 0.0, best.TotalMM)

	_, ok = MostRain(map[string]*weather.Table{}, nil)
	assert.False(t, ok)
}

func TestAnalyze(t *testing.T) {
	s := Analyze(sampleTable())
	assert.Equal(t, "Salta", s.Region)
	assert.Equal(t, 13, s.Observations)
	assert.Equal(t, Rising, s.Trend.Label)
	require.NotNil(t, s.Precipitation)
	assert.InDelta(t, 70, s.Precipitation.Mean, 1e-9)
	assert.InDelta(t, 840, s.EstimatedAnnualMM(), 1e-9)
	assert.Equal(t, 2002, s.LastDate.Year())
}
