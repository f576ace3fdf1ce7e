package github

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	"golang.org/x/oauth2"
)

const ProviderName = "github"

var (
	_ vcs.IssueFetcher = (*GitHubClient)(nil)
	_ vcs.IssueLister  = (*GitHubClient)(nil)
	_ vcs.LabelWriter  = (*GitHubClient)(nil)
)

// IssuesService is the subset of the go-github issues API the client uses.
type IssuesService interface {
	Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	ListComments(ctx context.Context, owner, repo string, number int, opts *github.IssueListCommentsOptions) ([]*github.IssueComment, *github.Response, error)
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	AddLabelsToIssue(ctx context.Context, owner, repo string, number int, labels []string) ([]*github.Label, *github.Response, error)
}

type GitHubClient struct {
	issuesService IssuesService
}

// NewGitHubClient works without a token for public repositories, at a lower rate limit.
func NewGitHubClient(token string) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	return &GitHubClient{
		issuesService: client.Issues,
	}
}

func NewGitHubClientWithServices(issuesService IssuesService) *GitHubClient {
	return &GitHubClient{
		issuesService: issuesService,
	}
}

func (ghc *GitHubClient) Name() string {
	return ProviderName
}

func (ghc *GitHubClient) FetchIssue(ctx context.Context, repo models.RepoRef, number int) (*models.RawIssue, error) {
	log := logger.FromContext(ctx)

	log.Debug("fetching github issue",
		"owner", repo.Owner,
		"repo", repo.Name,
		"issue_number", number)

	issue, _, err := ghc.issuesService.Get(ctx, repo.Owner, repo.Name, number)
	if err != nil {
		log.Debug("failed to fetch github issue",
			"error", err,
			"owner", repo.Owner,
			"repo", repo.Name,
			"issue_number", number)
		return nil, mapError(err, repo, number)
	}

	if issue.IsPullRequest() {
		return nil, domainErrors.ErrIssueNotFound.
			WithContext("repo", repo.FullName()).
			WithContext("number", number).
			WithSuggestion("The number refers to a pull request, not an issue")
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		if label.Name != nil {
			labels = append(labels, label.GetName())
		}
	}

	raw := &models.RawIssue{
		Number:       issue.Number,
		Title:        issue.Title,
		Body:         issue.Body,
		State:        issue.GetState(),
		Labels:       labels,
		CommentCount: issue.GetComments(),
		Author:       issue.GetUser().GetLogin(),
		URL:          issue.GetHTMLURL(),
		RepoFullName: repo.FullName(),
	}

	if raw.CommentCount > 0 {
		comments, err := ghc.fetchComments(ctx, repo, number)
		if err != nil {
			// comments only enrich the prompt; the issue itself is usable without them
			log.Warn("failed to fetch github comments",
				"error", err,
				"issue_number", number)
		}
		raw.Comments = comments
	}

	log.Debug("github issue fetched successfully",
		"issue_number", number,
		"state", raw.State,
		"labels_count", len(labels),
		"comments_count", raw.CommentCount)

	return raw, nil
}

func (ghc *GitHubClient) fetchComments(ctx context.Context, repo models.RepoRef, number int) ([]models.Comment, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: vcs.MaxComments},
	}
	comments, _, err := ghc.issuesService.ListComments(ctx, repo.Owner, repo.Name, number, opts)
	if err != nil {
		return nil, mapError(err, repo, number)
	}

	out := make([]models.Comment, 0, len(comments))
	for _, c := range comments {
		body := strings.TrimSpace(c.GetBody())
		if body == "" {
			continue
		}
		out = append(out, models.Comment{
			Author: c.GetUser().GetLogin(),
			Body:   body,
		})
	}
	return out, nil
}

// ListIssues pages through the repository issues until opts.Limit numbers are
// collected. The issues endpoint also returns pull requests; those are skipped.
func (ghc *GitHubClient) ListIssues(ctx context.Context, repo models.RepoRef, opts vcs.ListOptions) ([]int, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx)

	listOpts := &github.IssueListByRepoOptions{
		State:     opts.State,
		Sort:      "created",
		Direction: "desc",
		ListOptions: github.ListOptions{
			PerPage: vcs.PageSize(opts.Limit),
		},
	}

	numbers := make([]int, 0, opts.Limit)
	for {
		issues, resp, err := ghc.issuesService.ListByRepo(ctx, repo.Owner, repo.Name, listOpts)
		if err != nil {
			log.Debug("failed to list github issues",
				"error", err,
				"owner", repo.Owner,
				"repo", repo.Name)
			return nil, mapListError(err, repo)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			numbers = append(numbers, issue.GetNumber())
			if len(numbers) == opts.Limit {
				return numbers, nil
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		listOpts.ListOptions.Page = resp.NextPage
	}

	log.Debug("github issues listed",
		"repo", repo.FullName(),
		"state", opts.State,
		"count", len(numbers))

	return numbers, nil
}

func (ghc *GitHubClient) AddLabels(ctx context.Context, repo models.RepoRef, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	_, _, err := ghc.issuesService.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, labels)
	if err != nil {
		if mapped := mapError(err, repo, number); errors.Is(mapped, domainErrors.ErrIssueNotFound) || errors.Is(mapped, domainErrors.ErrVCSRateLimit) {
			return mapped
		}
		return domainErrors.ErrLabelWrite.WithError(err).
			WithContext("repo", repo.FullName()).
			WithContext("number", number)
	}

	logger.Info(ctx, "labels applied to github issue",
		"repo", repo.FullName(),
		"issue_number", number,
		"labels", labels)
	return nil
}

func mapListError(err error, repo models.RepoRef) error {
	mapped := mapError(err, repo, 0)
	if errors.Is(mapped, domainErrors.ErrIssueFetch) {
		return domainErrors.ErrIssueList.WithError(err).WithContext("repo", repo.FullName())
	}
	return mapped
}

func mapError(err error, repo models.RepoRef, number int) error {
	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domainErrors.ErrVCSRateLimit.WithError(err).WithContext("repo", repo.FullName())
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return domainErrors.ErrIssueNotFound.WithError(err).
				WithContext("repo", repo.FullName()).
				WithContext("number", number)
		case http.StatusUnauthorized:
			return domainErrors.ErrIssueFetch.WithError(err).
				WithSuggestion("Check GITHUB_TOKEN or run: triagemate config set vcs.github_token <token>")
		}
	}

	return domainErrors.ErrIssueFetch.WithError(err).
		WithContext("repo", repo.FullName()).
		WithContext("number", number)
}
