package triage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thomas-vilte/triagemate/internal/models"
)

var wirePriorityRe = regexp.MustCompile(`^[1-5]/5 - \S`)

func issue(number int, title, body string) models.NormalizedIssue {
	return models.NormalizedIssue{
		Number:       number,
		Title:        title,
		Body:         body,
		Labels:       []string{},
		State:        models.IssueStateOpen,
		RepoFullName: "acme/widgets",
	}
}

func assertValidVerdict(t *testing.T, v models.Verdict) {
	t.Helper()

	assert.NotEmpty(t, v.Summary, "summary")
	assert.True(t, v.Type.IsValid(), "type %q", v.Type)
	assert.Regexp(t, wirePriorityRe, v.PriorityScore)
	assert.GreaterOrEqual(t, len(v.SuggestedLabels), 2, "labels %v", v.SuggestedLabels)
	assert.LessOrEqual(t, len(v.SuggestedLabels), 3, "labels %v", v.SuggestedLabels)

	seen := map[string]bool{}
	for _, l := range v.SuggestedLabels {
		assert.NotEmpty(t, l)
		assert.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}

	if v.Type == models.IssueTypeBug {
		assert.NotEmpty(t, v.PotentialImpact)
		assert.NotEqual(t, models.NonBugImpact, v.PotentialImpact)
	} else {
		assert.Equal(t, models.NonBugImpact, v.PotentialImpact)
	}
}
