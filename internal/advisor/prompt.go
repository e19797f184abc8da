package advisor

import (
	"context"
	"fmt"
	"strings"

	"github.com/i474232898/climate-advisory/internal/llm"
)

// SystemInstruction is sent with every generation request.
const SystemInstruction = "Eres un asesor agroclimático. Responde en español, claro y conciso."

const retrievedPassages = 3

func (a *Advisor) generate(ctx context.Context, t *turn) (string, error) {
	text := ""
	switch {
	case t.report != nil && relevant(t.report, t.intent):
		text = t.report.Text()
	case t.pasted != "":
		text = t.pasted
	}
	prompt := buildPrompt(t.message, t.answer, text, a.retrieve(ctx, t.message, text))
	return a.generator.Generate(ctx, SystemInstruction, prompt)
}

// retrieve returns report passages similar to the message. Optional: any
// failure yields no passages.
func (a *Advisor) retrieve(ctx context.Context, message, reportText string) []llm.Passage {
	if a.embedder == nil || reportText == "" {
		return nil
	}
	var lines []string
	for _, l := range strings.Split(reportText, "\n") {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "•") {
			lines = append(lines, l)
		}
	}
	ix := llm.NewIndex(a.embedder)
	if err := ix.Add(ctx, lines, map[string]string{"source": "report"}); err != nil {
		a.log.Warn().Err(err).Msg("indexing report for retrieval failed")
		return nil
	}
	passages, err := ix.Search(ctx, message, retrievedPassages)
	if err != nil {
		a.log.Warn().Err(err).Msg("retrieval search failed")
		return nil
	}
	return passages
}

func buildPrompt(message string, ans Answer, reportText string, passages []llm.Passage) string {
	var b strings.Builder
	switch {
	case reportText != "":
		b.WriteString("Responde en español, orientado al agro. Usa EXCLUSIVAMENTE la información del siguiente " +
			"'Reporte Climático Detallado'. Entrega una respuesta en 4-7 puntos breves, con recomendaciones " +
			"prácticas de riego y manejo (si aplica), cifras clave (promedios/rangos) y riesgos. " +
			"No repitas texto literal. Si falta información, menciona la limitación. No hables de temas fuera de clima/agro.\n\n")
		fmt.Fprintf(&b, "Reporte:\n%s\n\n", reportText)
		fmt.Fprintf(&b, "Pregunta del usuario: %s", message)

	case ans.Err == nil && ans.Intent.Kind == TrendForRegion && ans.Summary != nil:
		s := ans.Summary
		mean := "sin dato"
		if s.Precipitation != nil {
			mean = fmt.Sprintf("%.1f mm", s.Precipitation.Mean)
		}
		fmt.Fprintf(&b, "Elabora una respuesta en español para público agro sobre la tendencia de precipitaciones en %s. ", s.Region)
		b.WriteString("Incluye 4-7 viñetas con: (1) tendencia y pendiente, (2) promedio mensual histórico, " +
			"(3) meses o estaciones de mayor/menor lluvia si se infiere, (4) recomendaciones prácticas de riego/drenaje y monitoreo, " +
			"(5) riesgos y medidas de manejo. ")
		fmt.Fprintf(&b, "Datos disponibles: tendencia=%s, pendiente=%.6f mm/día, promedio_mensual=%s.",
			s.Trend.Label.Spanish(), s.Trend.Slope, mean)
		for _, ss := range s.Seasons {
			fmt.Fprintf(&b, " %s: %.1f mm/mes.", ss.Season.Spanish(), ss.PrecipMeanMM)
		}

	case ans.Err == nil && ans.Intent.Kind == MostRainInPeriod && ans.Best != nil:
		period := " (serie histórica)"
		if ans.Intent.Year != nil {
			period = fmt.Sprintf(" en %d", *ans.Intent.Year)
		}
		fmt.Fprintf(&b, "Responde en español con 4-6 puntos: provincia con mayor precipitación%s: %s con %.1f mm acumulados. ",
			period, ans.Best.Region, ans.Best.TotalMM)
		b.WriteString("Incluye implicancias productivas, manejo de drenaje, riesgos sanitarios por humedad y una recomendación de planificación de riego.")

	default:
		b.WriteString("No hay datos suficientes para responder. Pide precisión (provincia y fechas) o sugiere una consulta válida. ")
		fmt.Fprintf(&b, "Pregunta del usuario: %s", message)
	}

	if len(passages) > 0 {
		b.WriteString("\n\nFragmentos relevantes del reporte:\n")
		for _, p := range passages {
			fmt.Fprintf(&b, "- %s\n", p.Content)
		}
	}
	return b.String()
}
