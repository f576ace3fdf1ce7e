package triage

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	basePriority = 3
	maxSeverity  = 2
	maxLowUrgent = 1

	minInflectedKeyword = 4
)

var typeLabels = map[models.IssueType]string{
	models.IssueTypeBug:            "bug",
	models.IssueTypeFeatureRequest: "enhancement",
	models.IssueTypeDocumentation:  "documentation",
	models.IssueTypeQuestion:       "question",
}

var priorityTiers = map[int]string{
	5: "Critical",
	4: "High",
	3: "Medium",
	2: "Low",
	1: "Very low",
}

// keywordMatcher counts whole-word occurrences of a keyword, tolerating common
// inflections ("crash" matches "crashes" and "crashed"). Keywords shorter than
// minInflectedKeyword runes match exactly, so "ui" never matches "uid".
type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

func compileKeywords(words []string) []keywordMatcher {
	matchers := make([]keywordMatcher, 0, len(words))
	for _, w := range words {
		parts := strings.Fields(strings.ToLower(w))
		if len(parts) == 0 {
			continue
		}
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		pattern := `(?i)\b` + strings.Join(parts, `\s+`)
		if utf8.RuneCountInString(parts[len(parts)-1]) >= minInflectedKeyword {
			pattern += `(?:s|es|ed|d|ing)?`
		}
		pattern += `\b`
		matchers = append(matchers, keywordMatcher{keyword: strings.Join(strings.Fields(w), " "), re: regexp.MustCompile(pattern)})
	}
	return matchers
}

func (m keywordMatcher) count(text string) int {
	return len(m.re.FindAllStringIndex(text, -1))
}

// matched returns the keywords that occur at least once in text, in list order.
func matched(matchers []keywordMatcher, text string) []string {
	var hits []string
	for _, m := range matchers {
		if m.re.MatchString(text) {
			hits = append(hits, m.keyword)
		}
	}
	return hits
}

type contextMatcher struct {
	label    string
	matchers []keywordMatcher
}

// RuleClassifier is the deterministic keyword strategy. It does no I/O and
// never fails for a well-formed issue.
type RuleClassifier struct {
	guidelines   *Guidelines
	typeMatchers map[models.IssueType][]keywordMatcher
	severity     []keywordMatcher
	lowUrgency   []keywordMatcher
	contexts     []contextMatcher
}

func NewRuleClassifier(g *Guidelines) *RuleClassifier {
	if g == nil {
		g = DefaultGuidelines()
	}

	c := &RuleClassifier{
		guidelines:   g,
		typeMatchers: make(map[models.IssueType][]keywordMatcher, len(g.TypeKeywords)),
		severity:     compileKeywords(g.SeverityKeywords),
		lowUrgency:   compileKeywords(g.LowUrgencyKeywords),
	}
	for t, words := range g.TypeKeywords {
		c.typeMatchers[t] = compileKeywords(words)
	}
	for _, cl := range g.ContextLabels {
		c.contexts = append(c.contexts, contextMatcher{label: cl.Label, matchers: compileKeywords(cl.Keywords)})
	}
	return c
}

// Classify produces a verdict from keywords and issue metadata alone.
func (c *RuleClassifier) Classify(issue models.NormalizedIssue) models.Verdict {
	title := StripHTML(issue.Title)
	body := StripHTML(issue.Body)
	text := title + "\n" + body

	issueType := c.classifyType(title, body)
	priority, justification := c.scorePriority(text, issue)

	v := models.Verdict{
		Summary:         c.summarize(title, body),
		Type:            issueType,
		PriorityScore:   fmt.Sprintf("%d/5 - %s", priority, justification),
		SuggestedLabels: c.suggestLabels(issueType, priority, text),
		PotentialImpact: ruleImpact(issueType, priority),
	}

	// the same gate as the AI path; rule output is valid by construction
	final, _ := Finalize(verdictToRaw(v), issue)
	return final
}

func (c *RuleClassifier) classifyType(title, body string) models.IssueType {
	best := models.IssueTypeOther
	bestScore := 0
	for _, t := range models.IssueTypes() {
		score := 0
		for _, m := range c.typeMatchers[t] {
			score += c.guidelines.TitleWeight*m.count(title) + c.guidelines.BodyWeight*m.count(body)
		}
		// strict comparison keeps the earlier type on ties
		if score > bestScore {
			best, bestScore = t, score
		}
	}
	return best
}

func (c *RuleClassifier) scorePriority(text string, issue models.NormalizedIssue) (int, string) {
	var reasons []string
	score := basePriority

	if hits := matched(c.severity, text); len(hits) > 0 {
		score += min(len(hits), maxSeverity)
		reasons = append(reasons, "severity indicators ("+strings.Join(hits, ", ")+")")
	}
	if hits := matched(c.lowUrgency, text); len(hits) > 0 {
		score -= min(len(hits), maxLowUrgent)
		reasons = append(reasons, "low-urgency indicators ("+strings.Join(hits, ", ")+")")
	}
	if c.guidelines.EngagementThreshold > 0 && issue.CommentCount > c.guidelines.EngagementThreshold {
		score++
		reasons = append(reasons, fmt.Sprintf("high engagement (%d comments)", issue.CommentCount))
	}
	score = clampPriority(score)

	if label, ok := hasLabel(issue.Labels, c.guidelines.HighPriorityLabels); ok {
		if score < 4 {
			score = 4
		}
		reasons = append(reasons, fmt.Sprintf("labelled %q", label))
	} else if label, ok := hasLabel(issue.Labels, c.guidelines.LowPriorityLabels); ok {
		if score > 2 {
			score = 2
		}
		reasons = append(reasons, fmt.Sprintf("labelled %q", label))
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "no severity indicators found")
	}
	return score, priorityTiers[score] + ": " + strings.Join(reasons, "; ")
}

func hasLabel(labels, wanted []string) (string, bool) {
	for _, l := range labels {
		for _, w := range wanted {
			if strings.EqualFold(strings.TrimSpace(l), w) {
				return w, true
			}
		}
	}
	return "", false
}

func clampPriority(p int) int {
	return max(1, min(5, p))
}

func (c *RuleClassifier) suggestLabels(t models.IssueType, priority int, text string) []string {
	var labels []string
	if l, ok := typeLabels[t]; ok {
		labels = append(labels, l)
	}
	switch {
	case priority >= 4:
		labels = append(labels, "priority:high")
	case priority <= 2:
		labels = append(labels, "priority:low")
	}
	for _, cm := range c.contexts {
		if len(matched(cm.matchers, text)) > 0 {
			labels = append(labels, cm.label)
			break
		}
	}
	return labels
}

func (c *RuleClassifier) summarize(title, body string) string {
	if s := firstSentence(body); s != "" && len([]rune(s)) <= c.guidelines.SummaryMaxLength {
		return s
	}
	if title != "" {
		return title
	}
	return models.NoDescriptionSummary
}

func ruleImpact(t models.IssueType, priority int) string {
	if t != models.IssueTypeBug {
		return models.NonBugImpact
	}
	switch {
	case priority >= 4:
		return "This bug may significantly impact user experience and could affect core functionality."
	case priority == 3:
		return "This bug may cause inconvenience to users but does not block critical workflows."
	default:
		return "This bug has minimal impact on most users and represents a minor issue."
	}
}
