package triage

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	maxSummarySentences = 4
	minLabels           = 2
	maxLabels           = 3

	// MissingImpact fills potential_impact for bugs whose impact was not assessed.
	MissingImpact = "Impact assessment needed"
)

var (
	priorityScoreRe  = regexp.MustCompile(`^([1-5])/5 - (\S[\s\S]*)$`)
	firstNumberRe    = regexp.MustCompile(`(?:^|[^\w-])(-?)(\d+)|\d+`)
	leadingScoreRe   = regexp.MustCompile(`^\s*\d+\s*(?:/\s*5)?[\s\-–—:,.)]*`)
	typeSeparatorsRe = regexp.MustCompile(`[\s\-]+`)
)

// Finalize coerces an untyped verdict into a schema-valid one. It never fails;
// every coercion is reported as a Repair.
func Finalize(raw map[string]any, issue models.NormalizedIssue) (models.Verdict, []models.Repair) {
	var repairs []models.Repair
	repair := func(field, format string, args ...any) {
		repairs = append(repairs, models.Repair{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	issueType := finalizeType(raw["type"], repair)
	score, priority := finalizePriority(raw["priority_score"], repair)

	return models.Verdict{
		Summary:         finalizeSummary(raw["summary"], issue, repair),
		Type:            issueType,
		PriorityScore:   score,
		SuggestedLabels: finalizeLabels(raw["suggested_labels"], priority, repair),
		PotentialImpact: finalizeImpact(raw["potential_impact"], issueType, repair),
	}, repairs
}

type repairFunc func(field, format string, args ...any)

func finalizeSummary(v any, issue models.NormalizedIssue, repair repairFunc) string {
	s, _ := v.(string)
	s = StripHTML(s)
	if s == "" {
		repair("summary", "empty or missing, using issue title")
		if s = strings.TrimSpace(issue.Title); s == "" {
			s = models.NoDescriptionSummary
		}
		return s
	}
	if limited, cut := limitSentences(s, maxSummarySentences); cut {
		repair("summary", "more than %d sentences, truncated", maxSummarySentences)
		s = limited
	}
	return s
}

func finalizeType(v any, repair repairFunc) models.IssueType {
	s, ok := v.(string)
	if !ok {
		repair("type", "missing or not a string, coerced to %s", models.IssueTypeOther)
		return models.IssueTypeOther
	}

	t := models.IssueType(s)
	if t.IsValid() {
		return t
	}

	cleaned := typeSeparatorsRe.ReplaceAllString(strings.ToLower(StripHTML(s)), "_")
	if t = models.IssueType(cleaned); t.IsValid() {
		repair("type", "normalized %q to %s", s, t)
		return t
	}

	repair("type", "%q is not a known type, coerced to %s", s, models.IssueTypeOther)
	return models.IssueTypeOther
}

// finalizePriority returns the canonical score string and its numeric part.
func finalizePriority(v any, repair repairFunc) (string, int) {
	switch p := v.(type) {
	case string:
		s := StripHTML(p)
		if m := priorityScoreRe.FindStringSubmatch(s); m != nil {
			n, _ := strconv.Atoi(m[1])
			if s != p {
				repair("priority_score", "removed markup")
			}
			return s, n
		}

		if num, negative := firstNumber(s); num != "" && !negative {
			if n, err := strconv.Atoi(num); err == nil && n >= 1 && n <= 5 {
				justification := s
				if strings.HasPrefix(strings.TrimSpace(s), num) {
					justification = strings.TrimSpace(leadingScoreRe.ReplaceAllString(s, ""))
				}
				if justification == "" {
					justification = "Priority stated without justification"
				}
				repair("priority_score", "%q does not match N/5 - justification, re-derived %d", p, n)
				return fmt.Sprintf("%d/5 - %s", n, justification), n
			}
		}
		repair("priority_score", "no score 1-5 in %q, using default", p)

	case float64:
		if p == math.Trunc(p) && p >= 1 && p <= 5 {
			n := int(p)
			repair("priority_score", "numeric score %d without justification", n)
			return fmt.Sprintf("%d/5 - Priority stated without justification", n), n
		}
		repair("priority_score", "numeric score %v out of range, using default", p)

	default:
		repair("priority_score", "missing or not a string, using default")
	}

	return models.DefaultPriorityScore, basePriority
}

// firstNumber returns the first run of digits in s and whether it carries a
// minus sign. A dash inside a word ("follow-up 2") is not a sign.
func firstNumber(s string) (string, bool) {
	m := firstNumberRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	if m[2] == "" {
		return m[0], false
	}
	return m[2], m[1] == "-"
}

func finalizeLabels(v any, priority int, repair repairFunc) []string {
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []string:
		items = make([]any, len(l))
		for i, s := range l {
			items[i] = s
		}
	case string:
		repair("suggested_labels", "single string, wrapped in a list")
		items = []any{l}
	case nil:
		repair("suggested_labels", "missing")
	default:
		repair("suggested_labels", "unexpected type %T, ignored", v)
	}

	labels := make([]string, 0, maxLabels)
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			repair("suggested_labels", "dropped non-string label %v", item)
			continue
		}
		label := normalizeLabel(s)
		if label == "" {
			repair("suggested_labels", "dropped empty label")
			continue
		}
		if seen[label] {
			repair("suggested_labels", "dropped duplicate %q", label)
			continue
		}
		seen[label] = true
		labels = append(labels, label)
	}

	if len(labels) > maxLabels {
		repair("suggested_labels", "%d labels, truncated to %d", len(labels), maxLabels)
		labels = labels[:maxLabels]
	}

	if len(labels) < minLabels {
		for _, pad := range []string{models.NeedsTriageLabel, tierLabel(priority)} {
			if len(labels) >= minLabels {
				break
			}
			if !seen[pad] {
				seen[pad] = true
				labels = append(labels, pad)
				repair("suggested_labels", "padded with %q", pad)
			}
		}
	}
	return labels
}

func tierLabel(priority int) string {
	switch {
	case priority >= 4:
		return "priority:high"
	case priority <= 2:
		return "priority:low"
	default:
		return "priority:medium"
	}
}

func finalizeImpact(v any, t models.IssueType, repair repairFunc) string {
	s, _ := v.(string)
	s = StripHTML(s)

	if t != models.IssueTypeBug {
		if s != "" && s != models.NonBugImpact {
			repair("potential_impact", "type is %s, replaced with the non-bug sentence", t)
		}
		return models.NonBugImpact
	}

	if s == "" || s == models.NonBugImpact {
		repair("potential_impact", "bug without impact assessment")
		return MissingImpact
	}
	return s
}

// verdictToRaw exposes a typed verdict to Finalize.
func verdictToRaw(v models.Verdict) map[string]any {
	return map[string]any{
		"summary":          v.Summary,
		"type":             string(v.Type),
		"priority_score":   v.PriorityScore,
		"suggested_labels": v.SuggestedLabels,
		"potential_impact": v.PotentialImpact,
	}
}
