package advisor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/i474232898/climate-advisory/internal/analysis"
	"github.com/i474232898/climate-advisory/internal/report"
	"github.com/i474232898/climate-advisory/internal/weather"
)

const (
	adviceDryTrend = "programar riegos por demanda y priorizar eficiencia (goteo/aspersión de baja intensidad)"
	adviceWetTrend = "reforzar drenajes, monitorear anegamientos y ajustar fechas de siembra para evitar excesos"
)

// irrigationAdvice picks the guidance for a falling or non-falling trend.
func irrigationAdvice(falling bool) string {
	if falling {
		return adviceDryTrend
	}
	return adviceWetTrend
}

// composeAnswer is the deterministic template reply.
func composeAnswer(ans Answer) string {
	if ans.Err != nil {
		return failureMessage(ans)
	}

	switch ans.Intent.Kind {
	case TrendForRegion:
		s := ans.Summary
		if s == nil {
			break
		}
		var b strings.Builder
		fmt.Fprintf(&b, "En %s, la tendencia de precipitaciones es %s (pendiente %.4f mm/día).",
			s.Region, strings.ToLower(s.Trend.Label.Spanish()), s.Trend.Slope)
		if s.Precipitation != nil {
			fmt.Fprintf(&b, " Promedio mensual histórico ~%.1f mm.", s.Precipitation.Mean)
		}
		fmt.Fprintf(&b, " Sugerencias: %s.", irrigationAdvice(s.Trend.Label == analysis.Falling))
		return b.String()

	case MostRainInPeriod:
		if ans.Best == nil {
			return "No pude determinar cuál fue la provincia con más lluvias; indicá el año o intentá nuevamente."
		}
		period := " en la serie histórica"
		if ans.Intent.Year != nil {
			period = fmt.Sprintf(" en %d", *ans.Intent.Year)
		}
		return fmt.Sprintf("La provincia con mayor precipitación%s es %s con %.1f mm acumulados. "+
			"Sugerencias: asegurar drenaje, monitorear enfermedades fúngicas y planificar riegos sólo de complemento.",
			period, ans.Best.Region, ans.Best.TotalMM)
	}
	return "Indicá provincia y (opcionalmente) un rango de fechas para analizar la tendencia de lluvias."
}

func failureMessage(ans Answer) string {
	switch {
	case errors.Is(ans.Err, weather.ErrUnknownRegion):
		return "No reconozco esa provincia. Probá con el nombre completo, por ejemplo \"Santa Fe\"."
	case errors.Is(ans.Err, weather.ErrNoPrecipitation):
		return fmt.Sprintf("No hay datos de precipitación disponibles para %s en el período consultado.", ans.Region)
	case ans.Intent.Kind == TrendForRegion:
		return fmt.Sprintf("No pude obtener los datos climáticos de %s en este momento; intentá nuevamente en unos minutos.", ans.Region)
	default:
		return "No pude obtener los datos climáticos en este momento; intentá nuevamente en unos minutos."
	}
}

// composeFromHighlights turns report figures into a short bullet list.
func composeFromHighlights(h report.Highlights) string {
	var parts []string
	if h.Tendency != "" {
		parts = append(parts, fmt.Sprintf("• Tendencia prevista: %s.", h.Tendency))
	}
	if h.PredictedMean != nil {
		parts = append(parts, fmt.Sprintf("• Promedio esperado: ~%.1f mm/mes.", *h.PredictedMean))
	}
	if h.PredictedMax != nil && h.PredictedMin != nil {
		parts = append(parts, fmt.Sprintf("• Rango proyectado: %.1f-%.1f mm/mes.", *h.PredictedMin, *h.PredictedMax))
	}
	if h.FirstAlert != "" {
		parts = append(parts, "• Recomendación clave: "+h.FirstAlert)
	}
	if h.PredictedMean != nil {
		parts = append(parts, fmt.Sprintf("• Riego: %s; ajustar láminas según el déficit frente al promedio esperado y monitorear el suelo semanalmente.", irrigationAdvice(h.Falling())))
	}
	return strings.Join(parts, "\n")
}

// reportExcerpt quotes the head of a report that could not be parsed.
func reportExcerpt(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 6 {
		lines = lines[:6]
	}
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	excerpt := []rune(strings.Join(lines, " "))
	if len(excerpt) > 280 {
		excerpt = excerpt[:280]
	}
	return "Según el reporte: " + string(excerpt)
}
