package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/i474232898/climate-advisory/internal/analysis"
)

// Highlights are the few figures the advisor quotes from a report.
// HistoricalTrend is the Spanish label of the fitted historical trend.
type Highlights struct {
	PredictedMean   *float64
	PredictedMax    *float64
	PredictedMin    *float64
	Tendency        string
	FirstAlert      string
	HistoricalTrend string
}

// Empty reports whether nothing could be extracted.
func (h Highlights) Empty() bool {
	return h.PredictedMean == nil && h.PredictedMax == nil && h.PredictedMin == nil &&
		h.Tendency == "" && h.FirstAlert == "" && h.HistoricalTrend == ""
}

// Falling reports whether the historical trend is falling.
func (h Highlights) Falling() bool {
	return strings.EqualFold(h.HistoricalTrend, analysis.Falling.Spanish())
}

// Highlights reads the figures straight from the structured report.
func (r *Report) Highlights() Highlights {
	var h Highlights
	if r == nil {
		return h
	}
	if f := r.Forecast; f != nil {
		mean, hi, lo := round1(f.Mean), round1(f.Max), round1(f.Min)
		h.PredictedMean, h.PredictedMax, h.PredictedMin = &mean, &hi, &lo
		if f.Tendency != nil {
			h.Tendency = f.Tendency.Label()
		}
	}
	if len(r.Alerts) > 0 {
		h.FirstAlert = r.Alerts[0]
	}
	if r.Observations > 0 {
		h.HistoricalTrend = r.Trend.Label.Spanish()
	}
	return h
}

var (
	predictedMeanRe   = regexp.MustCompile(`(?i)promedio\s+predich[oa]:\s*(-?[0-9]+(?:\.[0-9]+)?)\s*mm`)
	predictedMaxRe    = regexp.MustCompile(`(?i)máximo\s+predich[oa]:\s*(-?[0-9]+(?:\.[0-9]+)?)\s*mm`)
	predictedMinRe    = regexp.MustCompile(`(?i)mínimo\s+predich[oa]:\s*(-?[0-9]+(?:\.[0-9]+)?)\s*mm`)
	historicalTrendRe = regexp.MustCompile(`(?i)tendencia\s+histórica:\s*([^(]+)`)
)

// ParseText extracts Highlights from rendered report text, such as a report
// pasted by a user. Values come from the historical trend line of the summary,
// the forecast section and the first line of the alerts section.
func ParseText(text string) Highlights {
	var h Highlights
	section := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || isRule(line) {
			continue
		}
		if m := markerOf(line); m != "" {
			section = m
			continue
		}

		switch section {
		case MarkerSummary:
			if m := historicalTrendRe.FindStringSubmatch(line); m != nil {
				h.HistoricalTrend = strings.TrimSpace(m[1])
			}
		case MarkerForecast:
			if v, ok := matchFloat(predictedMeanRe, line); ok {
				h.PredictedMean = &v
			}
			if v, ok := matchFloat(predictedMaxRe, line); ok {
				h.PredictedMax = &v
			}
			if v, ok := matchFloat(predictedMinRe, line); ok {
				h.PredictedMin = &v
			}
			if strings.Contains(strings.ToLower(line), "tendencia") {
				if _, after, found := strings.Cut(line, ":"); found {
					h.Tendency = strings.TrimSpace(after)
				}
			}
		case MarkerAlerts:
			if h.FirstAlert == "" {
				h.FirstAlert = strings.TrimSpace(strings.TrimPrefix(line, "•"))
			}
		}
	}
	return h
}

func markerOf(line string) string {
	for _, m := range []string{MarkerSummary, MarkerTemperature, MarkerHumidity, MarkerSeasonal, MarkerForecast, MarkerAlerts, MarkerNotes} {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	if strings.HasPrefix(line, "•") {
		return ""
	}
	upper := strings.ToUpper(line)
	switch {
	case strings.HasPrefix(line, "🔮") || strings.Contains(upper, "PREDICCIÓN FUTURA"):
		return MarkerForecast
	case strings.HasPrefix(line, "⚠") || strings.Contains(upper, "ALERTAS"):
		return MarkerAlerts
	case strings.HasPrefix(line, "🔬"):
		return MarkerNotes
	}
	return ""
}

func isRule(line string) bool {
	return strings.Trim(line, "=-") == ""
}

func matchFloat(re *regexp.Regexp, line string) (float64, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func round1(v float64) float64 {
	f, _ := strconv.ParseFloat(fmt.Sprintf("%.1f", v), 64)
	return f
}
