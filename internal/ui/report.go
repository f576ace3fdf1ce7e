package ui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const cardWidth = 76

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1).
			Width(cardWidth)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func priorityColor(p int) *color.Color {
	switch {
	case p >= 4:
		return Error
	case p == 3:
		return Warning
	default:
		return Success
	}
}

// RenderReport prints a verdict card for one issue.
func RenderReport(w io.Writer, r *models.TriageReport, t *i18n.Translations, verbose bool) {
	header := fmt.Sprintf("%s %s#%d", TriageEmoji, r.Repo, r.Number)
	if r.Repo == "" {
		header = fmt.Sprintf("%s #%d", TriageEmoji, r.Number)
	}

	rows := []string{
		titleStyle.Render(header),
		r.Title,
		"",
		field(t.GetMessage("report.type", 0, nil), string(r.Verdict.Type)),
		field(t.GetMessage("report.priority", 0, nil), priorityColor(r.Verdict.Priority()).Sprint(r.Verdict.PriorityScore)),
		field(t.GetMessage("report.labels", 0, nil), strings.Join(r.Verdict.SuggestedLabels, ", ")),
		"",
		labelStyle.Render(t.GetMessage("report.summary", 0, nil)),
		r.Verdict.Summary,
		"",
		labelStyle.Render(t.GetMessage("report.impact", 0, nil)),
		r.Verdict.PotentialImpact,
	}
	if r.URL != "" {
		rows = append(rows, "", Dim.Sprint(r.URL))
	}

	_, _ = fmt.Fprintln(w, cardStyle.Render(strings.Join(rows, "\n")))

	if len(r.AppliedLabels) > 0 {
		PrintSuccess(w, fmt.Sprintf("%s: %s", t.GetMessage("report.applied_labels", 0, nil), strings.Join(r.AppliedLabels, ", ")))
	}

	if verbose {
		PrintDiagnostics(w, r.Diagnostics, t)
	} else if r.Diagnostics.Fallback {
		PrintWarning(w, t.GetMessage("ui.fallback", 0, map[string]interface{}{"Reason": r.Diagnostics.FallbackReason}))
	}
}

func field(name, value string) string {
	return labelStyle.Render(name+":") + " " + value
}

// RenderBatch prints one line per issue followed by the batch statistics.
func RenderBatch(w io.Writer, items []models.BatchItem, stats models.BatchStatistics, t *i18n.Translations) {
	PrintSectionBanner(w, t.GetMessage("batch.title", 0, nil))

	for _, item := range items {
		if item.Report == nil {
			_, _ = fmt.Fprintf(w, "  #%-6d %s %s\n", item.Number, Error.Sprint("✗"), Dim.Sprint(item.Error))
			continue
		}
		r := item.Report
		marker := Success.Sprint("✓")
		if r.Diagnostics.Fallback {
			marker = Warning.Sprint("!")
		}
		_, _ = fmt.Fprintf(w, "  #%-6d %s %-16s %s  %s\n",
			item.Number,
			marker,
			r.Verdict.Type,
			priorityColor(r.Verdict.Priority()).Sprintf("%d/5", r.Verdict.Priority()),
			truncate(r.Title, 48))
	}

	RenderStatistics(w, stats, t)
}

func RenderStatistics(w io.Writer, stats models.BatchStatistics, t *i18n.Translations) {
	_, _ = fmt.Fprintf(w, "\n%s %s\n", StatsEmoji, Accent.Sprint(t.GetMessage("stats.title", 0, nil)))
	PrintKeyValue(w, t.GetMessage("stats.total", 0, nil), strconv.Itoa(stats.Total))
	PrintKeyValue(w, t.GetMessage("stats.failed", 0, nil), strconv.Itoa(stats.Failed))
	PrintKeyValue(w, t.GetMessage("stats.fallbacks", 0, nil), strconv.Itoa(stats.Fallbacks))
	PrintKeyValue(w, t.GetMessage("stats.cache_hits", 0, nil), strconv.Itoa(stats.CacheHits))
	PrintKeyValue(w, t.GetMessage("stats.types", 0, nil), formatCounts(stats.Types))
	PrintKeyValue(w, t.GetMessage("stats.priorities", 0, nil), formatCounts(stats.Priorities))
	PrintKeyValue(w, t.GetMessage("stats.states", 0, nil), formatCounts(stats.States))
	PrintKeyValue(w, t.GetMessage("stats.avg_comments", 0, nil), strconv.FormatFloat(stats.AvgComment, 'f', 2, 64))
}

// formatCounts renders a histogram as "a=1, b=2" sorted by key.
func formatCounts(m map[string]int) string {
	if len(m) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
