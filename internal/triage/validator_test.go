package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thomas-vilte/triagemate/internal/models"
)

func repairedFields(repairs []models.Repair) []string {
	fields := make([]string, 0, len(repairs))
	for _, r := range repairs {
		fields = append(fields, r.Field)
	}
	return fields
}

func TestFinalize_ValidInputIsUntouched(t *testing.T) {
	raw := map[string]any{
		"summary":          "The app crashes on launch.",
		"type":             "bug",
		"priority_score":   "5/5 - Critical: crash on startup",
		"suggested_labels": []any{"bug", "crash"},
		"potential_impact": "Nobody can open the app.",
	}

	v, repairs := Finalize(raw, issue(1, "App crashes", ""))

	assert.Empty(t, repairs)
	assert.Equal(t, models.Verdict{
		Summary:         "The app crashes on launch.",
		Type:            models.IssueTypeBug,
		PriorityScore:   "5/5 - Critical: crash on startup",
		SuggestedLabels: []string{"bug", "crash"},
		PotentialImpact: "Nobody can open the app.",
	}, v)
}

func TestFinalize_Type(t *testing.T) {
	tests := []struct {
		in   any
		want models.IssueType
	}{
		{"enhancement", models.IssueTypeOther},
		{"Feature Request", models.IssueTypeFeatureRequest},
		{"feature-request", models.IssueTypeFeatureRequest},
		{"DOCUMENTATION", models.IssueTypeDocumentation},
		{42.0, models.IssueTypeOther},
		{nil, models.IssueTypeOther},
	}

	for _, tt := range tests {
		v, repairs := Finalize(map[string]any{"type": tt.in}, issue(1, "t", ""))
		assert.Equal(t, tt.want, v.Type, "input %v", tt.in)
		assert.Contains(t, repairedFields(repairs), "type")
	}
}

func TestFinalize_PriorityScore(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"canonical", "2/5 - Low: cosmetic", "2/5 - Low: cosmetic"},
		{"leading digit with dash", "4 - severe crash", "4/5 - severe crash"},
		{"leading score with colon", "4/5: broken login", "4/5 - broken login"},
		{"digit inside text", "priority is 5 because it crashes", "5/5 - priority is 5 because it crashes"},
		{"bare digit", "1", "1/5 - Priority stated without justification"},
		{"numeric json", 2.0, "2/5 - Priority stated without justification"},
		{"out of range", "10/10", models.DefaultPriorityScore},
		{"no digit", "High", models.DefaultPriorityScore},
		{"missing", nil, models.DefaultPriorityScore},
		{"fractional", 2.5, models.DefaultPriorityScore},
		{"negative score", "-3/5 - neg", models.DefaultPriorityScore},
		{"negative bare digit", "priority -2", models.DefaultPriorityScore},
		{"dash inside a word", "follow-up 4 - slow", "4/5 - follow-up 4 - slow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := Finalize(map[string]any{"priority_score": tt.in}, issue(1, "t", ""))
			assert.Equal(t, tt.want, v.PriorityScore)
		})
	}
}

func TestFinalize_Labels(t *testing.T) {
	t.Run("deduplicates, normalizes and truncates", func(t *testing.T) {
		v, repairs := Finalize(map[string]any{
			"suggested_labels": []any{"Bug", "bug", "UI Bug", "x", "y"},
		}, issue(1, "t", ""))

		assert.Equal(t, []string{"bug", "ui-bug", "x"}, v.SuggestedLabels)
		assert.Contains(t, repairedFields(repairs), "suggested_labels")
	})

	t.Run("pads short lists without duplicating needs-triage", func(t *testing.T) {
		v, _ := Finalize(map[string]any{
			"suggested_labels": []any{"needs-triage"},
			"priority_score":   "3/5 - fine",
		}, issue(1, "t", ""))

		assert.Equal(t, []string{"needs-triage", "priority:medium"}, v.SuggestedLabels)
	})

	t.Run("pads with the priority tier of the verdict", func(t *testing.T) {
		v, _ := Finalize(map[string]any{
			"suggested_labels": []any{},
			"priority_score":   "5/5 - outage",
		}, issue(1, "t", ""))

		assert.Equal(t, []string{"needs-triage", "priority:high"}, v.SuggestedLabels)
	})

	t.Run("single string becomes a list", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"suggested_labels": "bug"}, issue(1, "t", ""))

		assert.Equal(t, []string{"bug", "needs-triage"}, v.SuggestedLabels)
	})

	t.Run("non-string entries are dropped", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"suggested_labels": []any{1.0, "api", nil, "  "}}, issue(1, "t", ""))

		assert.Equal(t, []string{"api", "needs-triage"}, v.SuggestedLabels)
	})
}

func TestFinalize_Summary(t *testing.T) {
	t.Run("missing summary uses the title", func(t *testing.T) {
		v, repairs := Finalize(map[string]any{}, issue(1, "Add dark mode", ""))

		assert.Equal(t, "Add dark mode", v.Summary)
		assert.Contains(t, repairedFields(repairs), "summary")
	})

	t.Run("html only summary uses the title", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"summary": "<br/>"}, issue(1, "Add dark mode", ""))

		assert.Equal(t, "Add dark mode", v.Summary)
	})

	t.Run("more than four sentences is cut", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"summary": "One. Two. Three. Four. Five."}, issue(1, "t", ""))

		assert.Equal(t, "One. Two. Three. Four.", v.Summary)
	})
}

func TestFinalize_Impact(t *testing.T) {
	t.Run("non-bug impact is overwritten", func(t *testing.T) {
		v, repairs := Finalize(map[string]any{
			"type":             "feature_request",
			"potential_impact": "Users would love it",
		}, issue(1, "t", ""))

		assert.Equal(t, models.NonBugImpact, v.PotentialImpact)
		assert.Contains(t, repairedFields(repairs), "potential_impact")
	})

	t.Run("non-bug sentinel is not a repair", func(t *testing.T) {
		_, repairs := Finalize(map[string]any{
			"summary":          "s",
			"type":             "question",
			"priority_score":   "2/5 - question",
			"suggested_labels": []any{"question", "priority:low"},
			"potential_impact": models.NonBugImpact,
		}, issue(1, "t", ""))

		assert.Empty(t, repairs)
	})

	t.Run("bug without impact", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"type": "bug"}, issue(1, "t", ""))

		assert.Equal(t, MissingImpact, v.PotentialImpact)
	})

	t.Run("html is stripped", func(t *testing.T) {
		v, _ := Finalize(map[string]any{"type": "bug", "potential_impact": "<em>Data</em> is lost"}, issue(1, "t", ""))

		assert.Equal(t, "Data is lost", v.PotentialImpact)
	})
}

func TestFinalize_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"{",
		`{"summary": "cut`,
		`Sure! ` + "```json\n" + validCompletion + "\n```",
		`{"type": "bug"}`,
		`{"summary": 5, "type": ["bug"], "priority_score": {}, "suggested_labels": 3, "potential_impact": false}`,
		`{"summary": "` + strings.Repeat("a. ", 50) + `", "suggested_labels": ["a","a","a","a","b"]}`,
		`null`,
		`[]`,
	}

	for _, in := range inputs {
		raw, err := ParseCompletion(in)
		if err != nil {
			raw = map[string]any{}
		}
		v, _ := Finalize(raw, issue(1, "Fallback title", ""))
		assertValidVerdict(t, v)
	}
}
