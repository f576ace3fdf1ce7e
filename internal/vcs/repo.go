package vcs

import (
	"net/url"
	"strconv"
	"strings"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	ProviderGitHub = "github"
	ProviderGitLab = "gitlab"
)

// ParseRepoURL accepts https://github.com/owner/repo, gitlab.com/group/sub/project,
// scp-like git@host:owner/repo.git and the owner/repo shorthand (GitHub). A trailing
// /issues/N or /-/issues/N suffix is ignored; use ParseIssueURL to keep the number.
func ParseRepoURL(raw string) (models.RepoRef, error) {
	ref, _, err := ParseIssueURL(raw)
	return ref, err
}

// ParseIssueURL is ParseRepoURL that also returns the issue number when the URL
// points at an issue, or 0.
func ParseIssueURL(raw string) (models.RepoRef, int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return models.RepoRef{}, 0, domainErrors.ErrInvalidRepoURL.WithContext("url", raw)
	}

	var host, path string
	switch {
	case strings.HasPrefix(s, "git@"):
		rest := strings.TrimPrefix(s, "git@")
		i := strings.Index(rest, ":")
		if i < 0 {
			return models.RepoRef{}, 0, domainErrors.ErrInvalidRepoURL.WithContext("url", raw)
		}
		host, path = rest[:i], rest[i+1:]
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return models.RepoRef{}, 0, domainErrors.ErrInvalidRepoURL.WithError(err).WithContext("url", raw)
		}
		host, path = u.Host, u.Path
	default:
		first := strings.SplitN(s, "/", 2)[0]
		if strings.Contains(first, ".") {
			host, path = first, strings.TrimPrefix(s, first)
		} else {
			host, path = "github.com", s
		}
	}

	host = strings.ToLower(host)
	segments := splitPath(path)

	cut := len(segments)
	for i := 2; i < len(segments); i++ {
		if segments[i] == "-" || segments[i] == "issues" {
			cut = i
			break
		}
	}
	tail := segments[cut:]
	segments = segments[:cut]
	if len(tail) > 0 && tail[0] == "-" {
		tail = tail[1:]
	}

	number := 0
	if len(tail) >= 2 && tail[0] == "issues" {
		n, err := strconv.Atoi(tail[1])
		if err != nil || n <= 0 {
			return models.RepoRef{}, 0, domainErrors.ErrInvalidIssueNumber.WithContext("url", raw)
		}
		number = n
	}

	if len(segments) < 2 {
		return models.RepoRef{}, 0, domainErrors.ErrInvalidRepoURL.WithContext("url", raw)
	}

	provider := providerForHost(host)
	if provider == ProviderGitHub && len(segments) != 2 {
		return models.RepoRef{}, 0, domainErrors.ErrInvalidRepoURL.WithContext("url", raw)
	}

	ref := models.RepoRef{
		Provider: provider,
		Owner:    strings.Join(segments[:len(segments)-1], "/"),
		Name:     strings.TrimSuffix(segments[len(segments)-1], ".git"),
	}
	if host != "github.com" && host != "gitlab.com" {
		ref.Host = host
	}
	return ref, number, nil
}

func splitPath(p string) []string {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	out := parts[:0]
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func providerForHost(host string) string {
	if strings.Contains(host, "gitlab") {
		return ProviderGitLab
	}
	return ProviderGitHub
}
