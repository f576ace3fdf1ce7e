package server

import "github.com/thomas-vilte/triagemate/internal/models"

type AnalyzeRequest struct {
	RepoURL string `json:"repo_url" binding:"required"`
	// IssueNumber may be omitted when RepoURL points at an issue.
	IssueNumber int `json:"issue_number" binding:"omitempty,min=1"`
}

type ClassifyRequest struct {
	Title        string   `json:"title" binding:"required"`
	Body         string   `json:"body"`
	Labels       []string `json:"labels"`
	CommentCount int      `json:"comment_count" binding:"min=0"`
	State        string   `json:"state" binding:"omitempty,oneof=open closed"`
	Number       int      `json:"number" binding:"omitempty,min=1"`
}

// defaultInlineNumber identifies inline issues that carry no tracker number.
const defaultInlineNumber = 1

func (r ClassifyRequest) toRawIssue() models.RawIssue {
	number := r.Number
	if number == 0 {
		number = defaultInlineNumber
	}
	title, body := r.Title, r.Body
	return models.RawIssue{
		Number:       &number,
		Title:        &title,
		Body:         &body,
		State:        r.State,
		Labels:       r.Labels,
		CommentCount: r.CommentCount,
	}
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Type       string `json:"type,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
