package gateway

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aigateway/internal/query"
)

const truncatedMarker = "\n[contenido truncado]"

func (g *Gateway) buildPrompt(ctx context.Context, q query.Query, in query.Intent) (string, error) {
	if in.Kind != query.IntentFileAnalysis {
		return strings.TrimSpace(q.RawText), nil
	}
	if g.cfg.FileContexts == nil {
		return "", fmt.Errorf("file context %q requested but no file store is configured", in.ContextRef)
	}
	fc, err := g.cfg.FileContexts.GetFileContext(ctx, in.ContextRef)
	if err != nil {
		return "", fmt.Errorf("loading file context %q: %w", in.ContextRef, err)
	}
	return filePrompt(fc, q.RawText, g.cfg.MaxFileContextChars), nil
}

// filePrompt embeds the file's name, type, metadata and text (cut to max
// runes) ahead of the user's question.
func filePrompt(fc query.FileContext, question string, max int) string {
	var b strings.Builder
	b.WriteString("Analiza el siguiente archivo y responde la pregunta del usuario.\n\n")
	fmt.Fprintf(&b, "Archivo: %s\n", fc.FileName)
	if fc.FileType != "" {
		fmt.Fprintf(&b, "Tipo: %s\n", fc.FileType)
	}
	if len(fc.Metadata) > 0 {
		keys := make([]string, 0, len(fc.Metadata))
		for k := range fc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("Metadatos:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, fc.Metadata[k])
		}
	}
	b.WriteString("Contenido:\n")
	b.WriteString(truncateRunes(fc.ExtractedText, max))
	b.WriteString("\n\nPregunta: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + truncatedMarker
		}
		n++
	}
	return s
}

// chartSummary is the text shown next to a rendered chart.
func chartSummary(kind query.ChartKind, data *query.ChartData, failed bool) string {
	title := kind.Title()
	switch {
	case failed:
		return fmt.Sprintf("Gráfico de %s: datos no disponibles en este momento.", title)
	case data == nil:
		return fmt.Sprintf("Gráfico de %s listo para mostrarse.", title)
	case len(data.Points) == 0:
		return fmt.Sprintf("Gráfico de %s: no hay datos registrados.", title)
	}
	var total float64
	top := data.Points[0]
	for _, p := range data.Points {
		total += p.Value
		if p.Value > top.Value {
			top = p
		}
	}
	return fmt.Sprintf("Gráfico de %s con %d categorías (total %s). Mayor valor: %s (%s).",
		title, len(data.Points), formatValue(total), top.Label, formatValue(top.Value))
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
