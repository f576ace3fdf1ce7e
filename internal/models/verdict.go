package models

// IssueType is the closed set of categories an issue can be classified into.
type IssueType string

const (
	IssueTypeBug            IssueType = "bug"
	IssueTypeFeatureRequest IssueType = "feature_request"
	IssueTypeDocumentation  IssueType = "documentation"
	IssueTypeQuestion       IssueType = "question"
	IssueTypeOther          IssueType = "other"
)

// IssueTypes returns every issue type in tie-break order (highest precedence first).
func IssueTypes() []IssueType {
	return []IssueType{
		IssueTypeBug,
		IssueTypeFeatureRequest,
		IssueTypeDocumentation,
		IssueTypeQuestion,
		IssueTypeOther,
	}
}

// IsValid reports whether t belongs to the closed vocabulary.
func (t IssueType) IsValid() bool {
	switch t {
	case IssueTypeBug, IssueTypeFeatureRequest, IssueTypeDocumentation, IssueTypeQuestion, IssueTypeOther:
		return true
	}
	return false
}

const (
	// NonBugImpact is the fixed potential_impact value for every non-bug verdict.
	NonBugImpact = "Not a bug - impact assessment not applicable."
	// NoDescriptionSummary is used when neither body nor title can produce a summary.
	NoDescriptionSummary = "No description provided."
	// DefaultPriorityScore is used when a priority cannot be recovered.
	DefaultPriorityScore = "3/5 - Priority unclear, manual review recommended"
	// NeedsTriageLabel pads label lists that are too short.
	NeedsTriageLabel = "needs-triage"
)

// Verdict is the five-field triage record. Field names and enum spellings are the wire contract.
type Verdict struct {
	Summary         string    `json:"summary" yaml:"summary" jsonschema:"required,description=Plain-text explanation of the issue in 1 to 4 sentences"`
	Type            IssueType `json:"type" yaml:"type" jsonschema:"required,enum=bug,enum=feature_request,enum=documentation,enum=question,enum=other"`
	PriorityScore   string    `json:"priority_score" yaml:"priority_score" jsonschema:"required,description=Score from 1 to 5 followed by a justification. Format: N/5 - justification"`
	SuggestedLabels []string  `json:"suggested_labels" yaml:"suggested_labels" jsonschema:"required,minItems=2,maxItems=3"`
	PotentialImpact string    `json:"potential_impact" yaml:"potential_impact" jsonschema:"required,description=User impact for bugs; for other types the fixed not-applicable sentence"`
}

// Priority returns the numeric score of PriorityScore, or 0 when it does not start with a digit 1-5.
func (v Verdict) Priority() int {
	if len(v.PriorityScore) == 0 {
		return 0
	}
	if c := v.PriorityScore[0]; c >= '1' && c <= '5' {
		return int(c - '0')
	}
	return 0
}
