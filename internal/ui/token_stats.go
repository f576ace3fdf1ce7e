package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// PrintDiagnostics prints how a verdict was produced: strategy, fallback,
// repairs, cache and token usage.
func PrintDiagnostics(w io.Writer, d models.Diagnostics, t *i18n.Translations) {
	strategy := d.Strategy
	if d.Provider != "" {
		strategy += " (" + d.Provider + ")"
	}
	_, _ = Dim.Fprintf(w, "%s: %s | %s: %dms\n",
		t.GetMessage("ui.strategy", 0, nil), strategy,
		t.GetMessage("ui.duration", 0, nil), d.DurationMs)

	if d.Fallback {
		PrintWarning(w, t.GetMessage("ui.fallback", 0, map[string]interface{}{"Reason": d.FallbackReason}))
	}
	for _, r := range d.Repairs {
		_, _ = Dim.Fprintf(w, "   %s\n", t.GetMessage("ui.repair", 0, map[string]interface{}{
			"Field":  r.Field,
			"Reason": r.Reason,
		}))
	}
	if d.CacheHit {
		_, _ = color.New(color.FgGreen).Fprintf(w, "✓ %s\n", t.GetMessage("ui.cache_hit", 0, nil))
	}
	PrintTokenUsage(w, d.Usage, t)
}

func PrintTokenUsage(w io.Writer, usage *models.TokenUsage, t *i18n.Translations) {
	if usage == nil {
		return
	}
	_, _ = color.New(color.FgCyan).Fprint(w, "📊 ")
	_, _ = fmt.Fprintf(w, "%s: ", t.GetMessage("ui.token_usage", 0, nil))
	_, _ = fmt.Fprintf(w, "%s %d | ", t.GetMessage("ui.input", 0, nil), usage.InputTokens)
	_, _ = fmt.Fprintf(w, "%s %d | ", t.GetMessage("ui.output", 0, nil), usage.OutputTokens)
	_, _ = fmt.Fprintf(w, "%s %d\n", t.GetMessage("ui.total", 0, nil), usage.TotalTokens)
	if usage.Model != "" {
		_, _ = Dim.Fprintf(w, "   %s: %s\n", t.GetMessage("ui.model", 0, nil), usage.Model)
	}
}
