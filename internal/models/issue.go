package models

// IssueState is the lifecycle state reported by the issue tracker.
type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Comment is a single discussion entry attached to an issue.
type Comment struct {
	Author string `json:"author"`
	Body   string `json:"body"`
}

// RepoRef identifies a repository on a given provider ("github" or "gitlab").
type RepoRef struct {
	Provider string `json:"provider"`
	Host     string `json:"host,omitempty"`
	Owner    string `json:"owner"`
	Name     string `json:"name"`
}

// FullName returns the "owner/name" form of the repository.
func (r RepoRef) FullName() string {
	if r.Owner == "" {
		return r.Name
	}
	return r.Owner + "/" + r.Name
}

// RawIssue is the provider-shaped issue as returned by a fetcher, before normalization.
// Pointer fields are optional on the provider side and may be absent.
type RawIssue struct {
	// Number is the per-repository identifier (GitHub number, GitLab IID).
	Number *int
	// Title is required by the normalizer.
	Title *string
	// Body may be nil when the issue has no description.
	Body         *string
	State        string
	Labels       []string
	CommentCount int
	Comments     []Comment
	Author       string
	URL          string
	RepoFullName string
}

// NormalizedIssue is the canonical input of the classification engine.
// It is built once by the normalizer and treated as immutable afterwards.
type NormalizedIssue struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Labels       []string   `json:"labels"`
	CommentCount int        `json:"comment_count"`
	Comments     []Comment  `json:"comments,omitempty"`
	State        IssueState `json:"state"`
	Author       string     `json:"author,omitempty"`
	URL          string     `json:"url,omitempty"`
	RepoFullName string     `json:"repo_full_name"`
}
