package gitlab

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

const (
	ProviderName    = "gitlab"
	defaultRetryMax = 2
)

var (
	_ vcs.IssueFetcher = (*GitLabClient)(nil)
	_ vcs.IssueLister  = (*GitLabClient)(nil)
	_ vcs.LabelWriter  = (*GitLabClient)(nil)
)

// GitLabClient fetches issues from gitlab.com or a self-hosted instance. When no
// base URL is configured, the host of each repository reference is used.
type GitLabClient struct {
	token    string
	baseURL  string
	retryMax int

	mu      sync.Mutex
	clients map[string]*gitlab.Client
}

func NewGitLabClient(token, baseURL string) *GitLabClient {
	return &GitLabClient{
		token:    token,
		baseURL:  baseURL,
		retryMax: defaultRetryMax,
		clients:  make(map[string]*gitlab.Client),
	}
}

func (c *GitLabClient) Name() string {
	return ProviderName
}

func (c *GitLabClient) clientFor(host string) (*gitlab.Client, error) {
	apiURL := ""
	switch {
	case c.baseURL != "":
		apiURL = apiBase(c.baseURL)
	case host != "":
		apiURL = apiBase("https://" + host)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiURL]; ok {
		return client, nil
	}

	var (
		client *gitlab.Client
		err    error
	)
	opts := []gitlab.ClientOptionFunc{gitlab.WithCustomRetryMax(c.retryMax)}
	if apiURL != "" {
		opts = append(opts, gitlab.WithBaseURL(apiURL))
	}
	client, err = gitlab.NewClient(c.token, opts...)
	if err != nil {
		return nil, err
	}
	c.clients[apiURL] = client
	return client, nil
}

func apiBase(base string) string {
	base = strings.TrimSuffix(base, "/")
	if strings.HasSuffix(base, "/api/v4") {
		return base
	}
	return base + "/api/v4"
}

func (c *GitLabClient) FetchIssue(ctx context.Context, repo models.RepoRef, number int) (*models.RawIssue, error) {
	log := logger.FromContext(ctx)
	project := repo.FullName()

	log.Debug("fetching gitlab issue",
		"project", project,
		"issue_iid", number)

	client, err := c.clientFor(repo.Host)
	if err != nil {
		return nil, domainErrors.ErrIssueFetch.WithError(err).WithContext("repo", project)
	}

	issue, _, err := client.Issues.GetIssue(project, int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		log.Debug("failed to fetch gitlab issue",
			"error", err,
			"project", project,
			"issue_iid", number)
		return nil, mapError(err, project, number)
	}

	title := issue.Title
	body := issue.Description
	iid := int(issue.IID)

	raw := &models.RawIssue{
		Number:       &iid,
		Title:        &title,
		Body:         &body,
		State:        normalizeState(issue.State),
		Labels:       append([]string(nil), issue.Labels...),
		CommentCount: int(issue.UserNotesCount),
		URL:          issue.WebURL,
		RepoFullName: project,
	}
	if issue.Author != nil {
		raw.Author = issue.Author.Username
	}

	if raw.CommentCount > 0 {
		comments, err := fetchComments(ctx, client, project, number)
		if err != nil {
			log.Warn("failed to fetch gitlab discussions",
				"error", err,
				"issue_iid", number)
		}
		raw.Comments = comments
	}

	log.Debug("gitlab issue fetched successfully",
		"issue_iid", number,
		"state", raw.State,
		"labels_count", len(raw.Labels),
		"comments_count", raw.CommentCount)

	return raw, nil
}

func fetchComments(ctx context.Context, client *gitlab.Client, project string, number int) ([]models.Comment, error) {
	discussions, _, err := client.Discussions.ListIssueDiscussions(project, int64(number), nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, mapError(err, project, number)
	}

	out := make([]models.Comment, 0, vcs.MaxComments)
	for _, d := range discussions {
		if d == nil {
			continue
		}
		for _, n := range d.Notes {
			if n == nil || n.System || strings.TrimSpace(n.Body) == "" {
				continue
			}
			out = append(out, models.Comment{
				Author: n.Author.Username,
				Body:   strings.TrimSpace(n.Body),
			})
			if len(out) == vcs.MaxComments {
				return out, nil
			}
		}
	}
	return out, nil
}

// ListIssues pages through the project issues, newest first, until opts.Limit
// numbers are collected.
func (c *GitLabClient) ListIssues(ctx context.Context, repo models.RepoRef, opts vcs.ListOptions) ([]int, error) {
	opts, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	project := repo.FullName()

	client, err := c.clientFor(repo.Host)
	if err != nil {
		return nil, domainErrors.ErrIssueList.WithError(err).WithContext("repo", project)
	}

	listOpts := &gitlab.ListProjectIssuesOptions{
		OrderBy: gitlab.Ptr("created_at"),
		Sort:    gitlab.Ptr("desc"),
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: int64(vcs.PageSize(opts.Limit)),
		},
	}
	if opts.State != vcs.StateAll {
		listOpts.State = gitlab.Ptr(listState(opts.State))
	}

	numbers := make([]int, 0, opts.Limit)
	for {
		issues, resp, err := client.Issues.ListProjectIssues(project, listOpts, gitlab.WithContext(ctx))
		if err != nil {
			logger.FromContext(ctx).Debug("failed to list gitlab issues",
				"error", err,
				"project", project)
			return nil, mapListError(err, project)
		}

		for _, issue := range issues {
			if issue == nil {
				continue
			}
			numbers = append(numbers, int(issue.IID))
			if len(numbers) == opts.Limit {
				return numbers, nil
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		listOpts.Page = resp.NextPage
	}
	return numbers, nil
}

// AddLabels uses the add_labels field of the issue update, which keeps the
// labels already on the issue.
func (c *GitLabClient) AddLabels(ctx context.Context, repo models.RepoRef, number int, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	project := repo.FullName()

	client, err := c.clientFor(repo.Host)
	if err != nil {
		return domainErrors.ErrLabelWrite.WithError(err).WithContext("repo", project)
	}

	add := gitlab.LabelOptions(labels)
	_, _, err = client.Issues.UpdateIssue(project, int64(number), &gitlab.UpdateIssueOptions{AddLabels: &add}, gitlab.WithContext(ctx))
	if err != nil {
		if mapped := mapError(err, project, number); errors.Is(mapped, domainErrors.ErrIssueNotFound) || errors.Is(mapped, domainErrors.ErrVCSRateLimit) {
			return mapped
		}
		return domainErrors.ErrLabelWrite.WithError(err).
			WithContext("repo", project).
			WithContext("number", number)
	}

	logger.Info(ctx, "labels applied to gitlab issue",
		"repo", project,
		"issue_iid", number,
		"labels", labels)
	return nil
}

// listState maps the tracker-neutral "open" onto GitLab's "opened".
func listState(state string) string {
	if state == vcs.StateOpen {
		return "opened"
	}
	return state
}

// normalizeState maps GitLab's "opened" onto the tracker-neutral "open".
func normalizeState(state string) string {
	if state == "opened" {
		return string(models.IssueStateOpen)
	}
	return state
}

func mapListError(err error, project string) error {
	mapped := mapError(err, project, 0)
	if errors.Is(mapped, domainErrors.ErrIssueFetch) {
		return domainErrors.ErrIssueList.WithError(err).WithContext("repo", project)
	}
	return mapped
}

func mapError(err error, project string, number int) error {
	var respErr *gitlab.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return domainErrors.ErrIssueNotFound.WithError(err).
				WithContext("repo", project).
				WithContext("number", number)
		case http.StatusTooManyRequests:
			return domainErrors.ErrVCSRateLimit.WithError(err).WithContext("repo", project)
		case http.StatusUnauthorized:
			return domainErrors.ErrIssueFetch.WithError(err).
				WithSuggestion("Check GITLAB_TOKEN or run: triagemate config set vcs.gitlab_token <token>")
		}
	}

	return domainErrors.ErrIssueFetch.WithError(err).
		WithContext("repo", project).
		WithContext("number", number)
}
