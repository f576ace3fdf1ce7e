package triage

import (
	"strings"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	// MaxBodyLength is the body cap, in characters, applied by Normalize.
	MaxBodyLength = 2000
	// MaxTitleLength is the title cap, in characters, applied by Normalize and BuildPrompt.
	MaxTitleLength = 256
)

// Normalize converts a provider-shaped issue into the engine's input.
// It fails with ErrMalformedIssue when the number or the title is missing.
func Normalize(raw models.RawIssue) (models.NormalizedIssue, error) {
	if raw.Number == nil || *raw.Number <= 0 {
		return models.NormalizedIssue{}, domainErrors.ErrMalformedIssue.WithContext("field", "number")
	}

	if raw.Title == nil || strings.TrimSpace(*raw.Title) == "" {
		return models.NormalizedIssue{}, domainErrors.ErrMalformedIssue.
			WithContext("field", "title").
			WithContext("number", *raw.Number)
	}

	body := ""
	if raw.Body != nil {
		body = strings.TrimSpace(*raw.Body)
	}

	labels := make([]string, 0, len(raw.Labels))
	for _, l := range raw.Labels {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}

	var comments []models.Comment
	if len(raw.Comments) > 0 {
		comments = make([]models.Comment, len(raw.Comments))
		copy(comments, raw.Comments)
	}

	commentCount := raw.CommentCount
	if commentCount < len(comments) {
		commentCount = len(comments)
	}
	if commentCount < 0 {
		commentCount = 0
	}

	state := models.IssueStateOpen
	if strings.EqualFold(strings.TrimSpace(raw.State), string(models.IssueStateClosed)) {
		state = models.IssueStateClosed
	}

	return models.NormalizedIssue{
		Number:       *raw.Number,
		Title:        truncateAtWhitespace(strings.TrimSpace(*raw.Title), MaxTitleLength),
		Body:         truncateAtWhitespace(body, MaxBodyLength),
		Labels:       labels,
		CommentCount: commentCount,
		Comments:     comments,
		State:        state,
		Author:       raw.Author,
		URL:          raw.URL,
		RepoFullName: raw.RepoFullName,
	}, nil
}

// validateIssue rejects issues the engine cannot classify.
func validateIssue(issue models.NormalizedIssue) error {
	if issue.Number <= 0 {
		return domainErrors.ErrMalformedIssue.WithContext("field", "number")
	}
	if strings.TrimSpace(issue.Title) == "" {
		return domainErrors.ErrMalformedIssue.WithContext("field", "title").WithContext("number", issue.Number)
	}
	return nil
}
