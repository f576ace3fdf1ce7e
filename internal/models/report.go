package models

// Repair describes a single coercion applied by the verdict validator.
type Repair struct {
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// Diagnostics is the side channel attached to a verdict. It never changes the verdict itself.
type Diagnostics struct {
	Strategy       string      `json:"strategy" yaml:"strategy"`
	Provider       string      `json:"provider,omitempty" yaml:"provider,omitempty"`
	Fallback       bool        `json:"fallback" yaml:"fallback"`
	FallbackReason string      `json:"fallback_reason,omitempty" yaml:"fallback_reason,omitempty"`
	Repairs        []Repair    `json:"repairs,omitempty" yaml:"repairs,omitempty"`
	CacheHit       bool        `json:"cache_hit" yaml:"cache_hit"`
	DurationMs     int64       `json:"duration_ms" yaml:"duration_ms"`
	Usage          *TokenUsage `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// TriageReport bundles the issue metadata, its verdict, and diagnostics.
type TriageReport struct {
	Repo        string      `json:"repo" yaml:"repo"`
	Number      int         `json:"number" yaml:"number"`
	Title       string      `json:"title" yaml:"title"`
	State       IssueState  `json:"state" yaml:"state"`
	Author      string      `json:"author,omitempty" yaml:"author,omitempty"`
	URL         string      `json:"url,omitempty" yaml:"url,omitempty"`
	Comments    int         `json:"comments" yaml:"comments"`
	Verdict     Verdict     `json:"verdict" yaml:"verdict"`
	Diagnostics Diagnostics `json:"diagnostics" yaml:"diagnostics"`
	// AppliedLabels lists the labels written back to the tracker, if any.
	AppliedLabels []string `json:"applied_labels,omitempty" yaml:"applied_labels,omitempty"`
}

// BatchItem is the outcome of one issue inside a batch run.
type BatchItem struct {
	Number int           `json:"number" yaml:"number"`
	Report *TriageReport `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchStatistics summarises a batch run.
type BatchStatistics struct {
	Total      int            `json:"total" yaml:"total"`
	Failed     int            `json:"failed" yaml:"failed"`
	Fallbacks  int            `json:"fallbacks" yaml:"fallbacks"`
	CacheHits  int            `json:"cache_hits" yaml:"cache_hits"`
	Types      map[string]int `json:"types" yaml:"types"`
	Priorities map[string]int `json:"priorities" yaml:"priorities"`
	States     map[string]int `json:"states" yaml:"states"`
	AvgComment float64        `json:"average_comments" yaml:"average_comments"`
}
