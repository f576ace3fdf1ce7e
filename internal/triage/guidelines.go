package triage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// Example is a few-shot pair embedded in the AI prompt.
type Example struct {
	Title   string
	Body    string
	Verdict models.Verdict
}

// Guidelines is the static classification configuration shared by the rule
// classifier and the prompt builder. It is built once at startup and only read
// afterwards; constructors return fresh copies so callers never share slices.
type Guidelines struct {
	// TypeDescriptions defines each issue type for the prompt.
	TypeDescriptions map[models.IssueType]string
	// PriorityRubric maps a score 1-5 to its rubric text.
	PriorityRubric map[int]string
	Examples       []Example

	// TypeKeywords are matched case-insensitively on word boundaries.
	TypeKeywords map[models.IssueType][]string
	TitleWeight  int
	BodyWeight   int

	SeverityKeywords   []string
	LowUrgencyKeywords []string
	// HighPriorityLabels raise the rule priority to at least 4.
	HighPriorityLabels []string
	// LowPriorityLabels cap the rule priority at 2.
	LowPriorityLabels []string
	// EngagementThreshold is the comment count above which priority goes up by one.
	EngagementThreshold int

	// ContextLabels is an ordered list; the first matching entry adds its label.
	ContextLabels []ContextLabel

	// SummaryMaxLength bounds the body sentence used as a rule summary.
	SummaryMaxLength int
}

// ContextLabel adds Label when any of Keywords appears in the issue text.
type ContextLabel struct {
	Label    string
	Keywords []string
}

// DefaultGuidelines returns the built-in configuration.
func DefaultGuidelines() *Guidelines {
	return &Guidelines{
		TypeDescriptions: map[models.IssueType]string{
			models.IssueTypeBug:            "Something is broken or not working as expected: error messages, crashes, wrong results, regressions.",
			models.IssueTypeFeatureRequest: "New functionality, an enhancement, or an improvement to existing behaviour.",
			models.IssueTypeDocumentation:  "Documentation is missing, unclear, outdated, or contains mistakes.",
			models.IssueTypeQuestion:       "The author asks how to do something or seeks clarification, without reporting a defect.",
			models.IssueTypeOther:          "Anything that does not fit the categories above.",
		},
		PriorityRubric: map[int]string{
			5: "Critical: security issues, data loss, complete breakdown of a feature, affects many users.",
			4: "High: major functionality broken, significant user impact, severe performance problems.",
			3: "Medium: minor bugs, moderate impact, workarounds available.",
			2: "Low: small issues, cosmetic problems, nice-to-have features.",
			1: "Very low: trivial issues and minor enhancements.",
		},
		Examples:     defaultExamples(),
		TypeKeywords: map[models.IssueType][]string{
			models.IssueTypeBug: {
				"bug", "bugs", "error", "crash", "broken", "fail", "failure", "exception", "segfault",
				"panic", "regression", "freeze", "hang", "incorrect", "not working",
			},
			models.IssueTypeFeatureRequest: {
				"feature", "enhancement", "add", "added", "adding", "implement", "support", "request", "proposal",
				"allow", "option", "would be nice",
			},
			models.IssueTypeDocumentation: {
				"documentation", "docs", "doc", "readme", "guide", "tutorial", "typo", "docstring", "example",
			},
			models.IssueTypeQuestion: {
				"question", "how", "why", "clarification", "wondering", "is it possible", "help",
			},
		},
		TitleWeight:         3,
		BodyWeight:          1,
		SeverityKeywords:    []string{"crash", "critical", "data loss", "security", "segfault", "urgent", "blocker", "vulnerability", "corruption", "outage"},
		LowUrgencyKeywords:  []string{"typo", "minor", "cosmetic", "trivial", "nice to have"},
		HighPriorityLabels:  []string{"critical", "urgent", "high"},
		LowPriorityLabels:   []string{"low", "minor"},
		EngagementThreshold: 5,
		ContextLabels: []ContextLabel{
			{Label: "ui", Keywords: []string{"ui", "interface"}},
			{Label: "api", Keywords: []string{"api", "apis"}},
			{Label: "performance", Keywords: []string{"performance", "slow"}},
			{Label: "security", Keywords: []string{"security", "vulnerability"}},
		},
		SummaryMaxLength: 200,
	}
}

func defaultExamples() []Example {
	return []Example{
		{
			Title: "File upload fails for files larger than 10MB",
			Body:  "Uploading anything above 10MB throws an error during validation and the selected file is lost, so the whole upload has to be restarted.",
			Verdict: models.Verdict{
				Summary:         "Uploads larger than 10MB fail during the validation step, before the transfer starts. The user loses the file selection and has to restart the upload, which blocks anyone working with large media or datasets.",
				Type:            models.IssueTypeBug,
				PriorityScore:   "4/5 - High: core upload functionality fails for large files",
				SuggestedLabels: []string{"bug", "file-upload", "priority:high"},
				PotentialImpact: "Users cannot upload larger files, blocking a core feature for users with substantial data.",
			},
		},
		{
			Title: "Add dark mode",
			Body:  "Using the light theme at night causes eye strain. A dark theme option would help users who work in low-light environments.",
			Verdict: models.Verdict{
				Summary:         "The user requests a dark theme because the light theme causes eye strain during long sessions in low-light environments.",
				Type:            models.IssueTypeFeatureRequest,
				PriorityScore:   "3/5 - Medium: improves accessibility and is a commonly requested feature",
				SuggestedLabels: []string{"enhancement", "ui", "accessibility"},
				PotentialImpact: models.NonBugImpact,
			},
		},
		{
			Title: "How do I configure a proxy?",
			Body:  "The README does not say whether the client honours HTTPS_PROXY. Is there a setting for it?",
			Verdict: models.Verdict{
				Summary:         "The user asks whether the client supports an HTTPS proxy, since the README does not mention proxy configuration.",
				Type:            models.IssueTypeQuestion,
				PriorityScore:   "2/5 - Low: usage question with no reported defect",
				SuggestedLabels: []string{"question", "priority:low"},
				PotentialImpact: models.NonBugImpact,
			},
		},
	}
}

type guidelinesFile struct {
	TitleWeight         *int                `toml:"title_weight"`
	BodyWeight          *int                `toml:"body_weight"`
	SummaryMaxLength    *int                `toml:"summary_max_length"`
	EngagementThreshold *int                `toml:"engagement_threshold"`
	Types               map[string]typeFile `toml:"types"`
	Rubric              map[string]string   `toml:"rubric"`
	SeverityKeywords    []string            `toml:"severity_keywords"`
	LowUrgencyKeywords  []string            `toml:"low_urgency_keywords"`
	HighPriorityLabels  []string            `toml:"high_priority_labels"`
	LowPriorityLabels   []string            `toml:"low_priority_labels"`
	ContextLabels       []contextLabelFile  `toml:"context_labels"`
	Examples            []exampleFile       `toml:"examples"`
}

type typeFile struct {
	Description string   `toml:"description"`
	Keywords    []string `toml:"keywords"`
}

type contextLabelFile struct {
	Label    string   `toml:"label"`
	Keywords []string `toml:"keywords"`
}

type exampleFile struct {
	Title           string   `toml:"title"`
	Body            string   `toml:"body"`
	Summary         string   `toml:"summary"`
	Type            string   `toml:"type"`
	PriorityScore   string   `toml:"priority_score"`
	SuggestedLabels []string `toml:"suggested_labels"`
	PotentialImpact string   `toml:"potential_impact"`
}

// LoadGuidelines reads a TOML file and overlays it on DefaultGuidelines.
// Absent keys keep their default value.
func LoadGuidelines(path string) (*Guidelines, error) {
	var f guidelinesFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, domainErrors.ErrGuidelinesFile.WithError(err).WithContext("path", path)
	}

	g := DefaultGuidelines()
	if err := f.apply(g); err != nil {
		return nil, domainErrors.ErrGuidelinesFile.WithError(err).WithContext("path", path)
	}
	return g, nil
}

func (f guidelinesFile) apply(g *Guidelines) error {
	setPositive := func(dst *int, v *int, name string) error {
		if v == nil {
			return nil
		}
		if *v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
		*dst = *v
		return nil
	}
	if err := setPositive(&g.TitleWeight, f.TitleWeight, "title_weight"); err != nil {
		return err
	}
	if err := setPositive(&g.BodyWeight, f.BodyWeight, "body_weight"); err != nil {
		return err
	}
	if err := setPositive(&g.SummaryMaxLength, f.SummaryMaxLength, "summary_max_length"); err != nil {
		return err
	}
	if err := setPositive(&g.EngagementThreshold, f.EngagementThreshold, "engagement_threshold"); err != nil {
		return err
	}

	for name, t := range f.Types {
		it := models.IssueType(strings.ToLower(name))
		if !it.IsValid() {
			return fmt.Errorf("unknown issue type %q", name)
		}
		if t.Description != "" {
			g.TypeDescriptions[it] = t.Description
		}
		if len(t.Keywords) > 0 && it != models.IssueTypeOther {
			g.TypeKeywords[it] = t.Keywords
		}
	}

	for key, text := range f.Rubric {
		score, err := strconv.Atoi(key)
		if err != nil || score < 1 || score > 5 {
			return fmt.Errorf("rubric key %q must be a score from 1 to 5", key)
		}
		g.PriorityRubric[score] = text
	}

	if len(f.SeverityKeywords) > 0 {
		g.SeverityKeywords = f.SeverityKeywords
	}
	if len(f.LowUrgencyKeywords) > 0 {
		g.LowUrgencyKeywords = f.LowUrgencyKeywords
	}
	if len(f.HighPriorityLabels) > 0 {
		g.HighPriorityLabels = f.HighPriorityLabels
	}
	if len(f.LowPriorityLabels) > 0 {
		g.LowPriorityLabels = f.LowPriorityLabels
	}

	if len(f.ContextLabels) > 0 {
		g.ContextLabels = make([]ContextLabel, 0, len(f.ContextLabels))
		for _, c := range f.ContextLabels {
			g.ContextLabels = append(g.ContextLabels, ContextLabel{Label: normalizeLabel(c.Label), Keywords: c.Keywords})
		}
	}

	if len(f.Examples) > 0 {
		if len(f.Examples) < MinExamples || len(f.Examples) > MaxExamples {
			return fmt.Errorf("expected %d to %d examples, got %d", MinExamples, MaxExamples, len(f.Examples))
		}
		g.Examples = make([]Example, 0, len(f.Examples))
		for i, e := range f.Examples {
			it := models.IssueType(e.Type)
			if !it.IsValid() {
				return fmt.Errorf("example %d: unknown type %q", i+1, e.Type)
			}
			g.Examples = append(g.Examples, Example{
				Title: e.Title,
				Body:  e.Body,
				Verdict: models.Verdict{
					Summary:         e.Summary,
					Type:            it,
					PriorityScore:   e.PriorityScore,
					SuggestedLabels: e.SuggestedLabels,
					PotentialImpact: e.PotentialImpact,
				},
			})
		}
	}

	return nil
}
