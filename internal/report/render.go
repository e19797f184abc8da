package report

import (
	"fmt"
	"strings"

	"github.com/i474232898/climate-advisory/internal/analysis"
)

// Section markers. ParseText depends on them.
const (
	MarkerSummary     = "📋 RESUMEN EJECUTIVO"
	MarkerTemperature = "🌡️ TEMPERATURA"
	MarkerHumidity    = "💧 HUMEDAD"
	MarkerSeasonal    = "🍂 ANÁLISIS ESTACIONAL"
	MarkerForecast    = "🔮 PREDICCIÓN FUTURA (24 MESES)"
	MarkerAlerts      = "⚠️ ALERTAS Y RECOMENDACIONES"
	MarkerNotes       = "🔬 NOTAS TÉCNICAS"
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
)

type lineWriter struct {
	lines []string
}

func (w *lineWriter) add(format string, args ...any) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

func (w *lineWriter) raw(line string) {
	w.lines = append(w.lines, line)
}

func (w *lineWriter) section(marker string) {
	w.lines = append(w.lines, "", marker, lightRule)
}

func render(r *Report) []string {
	w := &lineWriter{}
	s := r.summary

	w.raw(heavyRule)
	w.add("📊 REPORTE CLIMÁTICO DETALLADO: %s", strings.ToUpper(r.Region))
	w.raw(heavyRule)
	if r.Period.Start.Year != 0 {
		w.add("Período solicitado: %s a %s", r.Period.Start, r.Period.End)
	}
	w.add("Generado: %s", r.GeneratedAt.Format("2006-01-02 15:04 UTC"))

	if s != nil && s.Precipitation != nil {
		w.section(MarkerSummary)
		w.add("• Registros mensuales: %d (%s a %s)", s.Observations, s.FirstDate.Format("2006-01"), s.LastDate.Format("2006-01"))
		w.add("• Precipitación promedio: %.1f mm/mes", r.MonthlyMeanMM)
		w.add("• Precipitación anual estimada: %.1f mm/año", r.EstimatedAnnualMM)
		w.add("• Rango mensual: %.1f a %.1f mm", s.Precipitation.Min, s.Precipitation.Max)
		w.add("• Variabilidad: %s (CV %.1f%%)", r.Tier.Spanish(), r.CV)
		w.add("• Tendencia histórica: %s (pendiente %.4f mm/día)", r.Trend.Label.Spanish(), r.Trend.Slope)
		if n := len(s.AnnualTotals); n > 0 {
			last := s.AnnualTotals[n-1]
			w.add("• Último año registrado: %d con %.1f mm", last.Year, last.TotalMM)
		}
	}

	if s != nil && s.Temperature != nil {
		t := s.Temperature
		w.section(MarkerTemperature)
		w.add("• Temperatura media: %.1f °C", t.Mean)
		w.add("• Máxima registrada: %.1f °C", t.Max)
		w.add("• Mínima registrada: %.1f °C", t.Min)
		w.add("• Amplitud térmica: %.1f °C", t.Amplitude)
	}

	if s != nil && s.Humidity != nil {
		h := s.Humidity
		w.section(MarkerHumidity)
		w.add("• Humedad relativa media: %.1f%%", h.Mean)
		w.add("• Rango: %.1f%% a %.1f%%", h.Min, h.Max)
	}

	if s != nil && len(s.Seasons) > 0 {
		w.section(MarkerSeasonal)
		for _, ss := range s.Seasons {
			if ss.TempMeanC != nil {
				w.add("• %s: %.1f mm/mes, %.1f °C", ss.Season.Spanish(), ss.PrecipMeanMM, *ss.TempMeanC)
			} else {
				w.add("• %s: %.1f mm/mes", ss.Season.Spanish(), ss.PrecipMeanMM)
			}
		}
		if wettest, driest, ok := seasonExtremes(s.Seasons); ok {
			w.add("• Estación más lluviosa: %s; más seca: %s", wettest.Spanish(), driest.Spanish())
		}
	}

	if f := r.Forecast; f != nil {
		w.section(MarkerForecast)
		w.add("• Promedio predicho: %.1f mm/mes", f.Mean)
		w.add("• Máximo predicho: %.1f mm/mes", f.Max)
		w.add("• Mínimo predicho: %.1f mm/mes", f.Min)
		if f.Tendency != nil {
			w.add("• Tendencia: %s", f.Tendency.Label())
		}
	}

	w.section(MarkerAlerts)
	for _, a := range r.Alerts {
		w.add("• %s", a)
	}

	w.section(MarkerNotes)
	w.add("• Fuente: NASA POWER, promedios regionales mensuales (comunidad AG)")
	w.add("• Precipitación mensual = tasa diaria × días del mes")
	w.add("• Tendencia: mínimos cuadrados sobre días transcurridos")
	w.add("• Predicción: tendencia + estacionalidad anual, con respaldo climatológico")
	w.raw(heavyRule)

	return w.lines
}

func seasonExtremes(seasons []analysis.SeasonStats) (wettest, driest analysis.Season, ok bool) {
	if len(seasons) < 2 {
		return "", "", false
	}
	hi, lo := seasons[0], seasons[0]
	for _, s := range seasons[1:] {
		if s.PrecipMeanMM > hi.PrecipMeanMM {
			hi = s
		}
		if s.PrecipMeanMM < lo.PrecipMeanMM {
			lo = s
		}
	}
	return hi.Season, lo.Season, true
}
