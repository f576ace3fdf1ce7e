package vcs

import (
	"context"
	"strings"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
)

// MaxComments bounds how many comments a fetcher retrieves per issue.
const MaxComments = 10

// Issue states accepted by IssueLister.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	listPageSize     = 100
)

// IssueFetcher retrieves a single issue, with its first comments, from an issue tracker.
type IssueFetcher interface {
	// FetchIssue returns errors.ErrIssueNotFound when the issue does not exist,
	// errors.ErrVCSRateLimit when throttled, and errors.ErrIssueFetch otherwise.
	FetchIssue(ctx context.Context, repo models.RepoRef, number int) (*models.RawIssue, error)
	// Name returns the provider name (e.g.: "github", "gitlab").
	Name() string
}

// ListOptions selects the issues returned by IssueLister.
type ListOptions struct {
	State string
	Limit int
}

// IssueLister enumerates issue numbers of a repository, most recently created
// first. Pull and merge requests are never returned.
type IssueLister interface {
	ListIssues(ctx context.Context, repo models.RepoRef, opts ListOptions) ([]int, error)
}

// LabelWriter adds labels to an issue. Labels already on the issue are kept.
type LabelWriter interface {
	AddLabels(ctx context.Context, repo models.RepoRef, number int, labels []string) error
}

// Normalize fills defaults and validates the state. The limit is clamped to
// [1, MaxListLimit].
func (o ListOptions) Normalize() (ListOptions, error) {
	state := strings.ToLower(strings.TrimSpace(o.State))
	switch state {
	case "":
		state = StateOpen
	case StateOpen, StateClosed, StateAll:
	default:
		return o, domainErrors.ErrInvalidIssueState.WithContext("state", o.State)
	}

	limit := o.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return ListOptions{State: state, Limit: limit}, nil
}

// PageSize is the page size that fetches limit items in as few requests as possible.
func PageSize(limit int) int {
	if limit < listPageSize {
		return limit
	}
	return listPageSize
}
