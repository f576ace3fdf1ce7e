package triage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	// MaxPromptLength is the prompt ceiling in characters.
	MaxPromptLength = 12000
	// TruncatedMarker is appended to a body cut by the prompt builder.
	TruncatedMarker = "[truncated]"

	MinExamples = 2
	MaxExamples = 4

	maxPromptComments  = 5
	maxCommentLength   = 300
	truncationAttempts = 3
)

const classificationPrompt = `You are an expert software engineer triaging GitHub issues. Read the issue below and produce a structured triage verdict.

# Issue types
{{range .Types}}- {{.Name}}: {{.Description}}
{{end}}
# Priority rubric
{{range .Rubric}}- {{.Score}}: {{.Text}}
{{end}}
# Rules for each field
1. summary: 1 to 4 plain-text sentences explaining the problem or request in your own words. Do not just repeat the title. Use only information present in the issue. No HTML, no markdown.
2. type: exactly one of {{joinOr .TypeList ", " ""}}.
3. priority_score: "N/5 - justification" where N is an integer from 1 to 5.
4. suggested_labels: 2 or 3 short lower-case labels, no duplicates.
5. potential_impact: the user impact when type is bug; otherwise exactly "{{.NonBugImpact}}"

# Examples
{{range .Examples}}
Example {{.Index}} - {{.Type}}
Issue title: {{.Title}}
Issue body: {{.Body}}
Output:
{{.Output}}
{{end}}
# Issue to classify
Issue title: {{.Title}}
Issue state: {{.State}}
Existing labels: {{joinOr .Labels ", " "None"}}
Comment count: {{.CommentCount}}
Issue body:
{{.Body}}
{{if .Comments}}
Comments (showing {{len .Comments}} of {{.CommentCount}}):
{{range .Comments}}Comment {{.Index}} by {{.Author}}: {{.Body}}
{{end}}{{end}}
# Output
Respond with ONLY a JSON object conforming to this JSON schema. No prose, no code fences.
{{.Schema}}
`

type promptData struct {
	Types        []typeLine
	Rubric       []rubricLine
	TypeList     []string
	NonBugImpact string
	Examples     []exampleBlock
	Title        string
	State        string
	Labels       []string
	CommentCount int
	Body         string
	Comments     []commentLine
	Schema       string
}

type typeLine struct {
	Name        models.IssueType
	Description string
}

type rubricLine struct {
	Score int
	Text  string
}

type exampleBlock struct {
	Index  int
	Type   models.IssueType
	Title  string
	Body   string
	Output string
}

type commentLine struct {
	Index  int
	Author string
	Body   string
}

// BuildPrompt renders the classification prompt. The result is deterministic for
// identical input and never exceeds MaxPromptLength unless the fixed scaffolding
// alone does; in that case the body is reduced to the truncation marker.
func BuildPrompt(issue models.NormalizedIssue, g *Guidelines) (string, error) {
	if g == nil {
		g = DefaultGuidelines()
	}

	data, err := newPromptData(issue, g)
	if err != nil {
		return "", err
	}

	prompt, err := ai.RenderPrompt("classification", classificationPrompt, data)
	if err != nil {
		return "", err
	}

	body := data.Body
	for attempt := 0; attempt < truncationAttempts && utf8.RuneCountInString(prompt) > MaxPromptLength; attempt++ {
		excess := utf8.RuneCountInString(prompt) - MaxPromptLength
		keep := utf8.RuneCountInString(body) - excess - utf8.RuneCountInString(TruncatedMarker) - 1
		body = truncateAtWhitespace(body, keep)
		if attempt > 0 {
			// comments are the only other variable-size section
			data.Comments = nil
		}
		data.Body = strings.TrimSpace(body + "\n" + TruncatedMarker)

		if prompt, err = ai.RenderPrompt("classification", classificationPrompt, data); err != nil {
			return "", err
		}
	}

	return prompt, nil
}

func newPromptData(issue models.NormalizedIssue, g *Guidelines) (promptData, error) {
	data := promptData{
		NonBugImpact: models.NonBugImpact,
		Title:        truncateAtWhitespace(issue.Title, MaxTitleLength),
		State:        string(issue.State),
		Labels:       issue.Labels,
		CommentCount: issue.CommentCount,
		Body:         issue.Body,
		Schema:       ai.VerdictSchemaJSON(),
	}

	for _, t := range models.IssueTypes() {
		data.TypeList = append(data.TypeList, string(t))
		data.Types = append(data.Types, typeLine{Name: t, Description: g.TypeDescriptions[t]})
	}

	scores := make([]int, 0, len(g.PriorityRubric))
	for s := range g.PriorityRubric {
		scores = append(scores, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(scores)))
	for _, s := range scores {
		data.Rubric = append(data.Rubric, rubricLine{Score: s, Text: g.PriorityRubric[s]})
	}

	examples := g.Examples
	if len(examples) > MaxExamples {
		examples = examples[:MaxExamples]
	}
	for i, e := range examples {
		out, err := json.MarshalIndent(e.Verdict, "", "  ")
		if err != nil {
			return promptData{}, fmt.Errorf("error encoding example %d: %w", i+1, err)
		}
		data.Examples = append(data.Examples, exampleBlock{
			Index:  i + 1,
			Type:   e.Verdict.Type,
			Title:  e.Title,
			Body:   e.Body,
			Output: string(out),
		})
	}

	if data.Body == "" {
		data.Body = "(no description provided)"
	}

	for i, c := range issue.Comments {
		if i == maxPromptComments {
			break
		}
		author := c.Author
		if author == "" {
			author = "unknown"
		}
		data.Comments = append(data.Comments, commentLine{
			Index:  i + 1,
			Author: author,
			Body:   truncateAtWhitespace(strings.TrimSpace(c.Body), maxCommentLength),
		})
	}

	return data, nil
}
