package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/vcs"
)

func fakeFetcher(name string) *vcs.MockIssueFetcher {
	f := &vcs.MockIssueFetcher{}
	f.On("Name").Return(name)
	return f
}

func TestRegister(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(fakeFetcher("github")))
	err := r.Register(fakeFetcher("github"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestNewDefault(t *testing.T) {
	r := NewDefault(config.DefaultConfig())

	assert.Equal(t, []string{"github", "gitlab"}, r.List())
}

func TestFetchIssue_RoutesByProvider(t *testing.T) {
	gh := fakeFetcher("github")
	gl := fakeFetcher("gitlab")
	r := New()
	require.NoError(t, r.Register(gh))
	require.NoError(t, r.Register(gl))

	title := "From GitLab"
	repo := models.RepoRef{Provider: "gitlab", Owner: "group", Name: "project"}
	gl.On("FetchIssue", mock.Anything, repo, 3).Return(&models.RawIssue{Title: &title}, nil)

	raw, err := r.FetchIssue(context.Background(), repo, 3)

	require.NoError(t, err)
	assert.Equal(t, "From GitLab", *raw.Title)
	gh.AssertNotCalled(t, "FetchIssue", mock.Anything, mock.Anything, mock.Anything)
}

func TestFetchIssue_DefaultsToGitHub(t *testing.T) {
	gh := fakeFetcher("github")
	r := New()
	require.NoError(t, r.Register(gh))

	repo := models.RepoRef{Owner: "o", Name: "r"}
	gh.On("FetchIssue", mock.Anything, repo, 1).Return(nil, domainErrors.ErrIssueNotFound)

	_, err := r.FetchIssue(context.Background(), repo, 1)

	assert.ErrorIs(t, err, domainErrors.ErrIssueNotFound)
}

func TestFetchIssue_UnknownProvider(t *testing.T) {
	r := New()

	_, err := r.FetchIssue(context.Background(), models.RepoRef{Provider: "bitbucket"}, 1)

	assert.ErrorIs(t, err, domainErrors.ErrVCSNotSupported)
}

// fetchOnly hides the optional capabilities of the wrapped fetcher.
type fetchOnly struct {
	vcs.IssueFetcher
}

func TestListIssues_RoutesByProvider(t *testing.T) {
	gl := fakeFetcher("gitlab")
	r := New()
	require.NoError(t, r.Register(gl))

	repo := models.RepoRef{Provider: "gitlab", Owner: "group", Name: "project"}
	opts := vcs.ListOptions{State: "open", Limit: 5}
	gl.On("ListIssues", mock.Anything, repo, opts).Return([]int{4, 2}, nil)

	numbers, err := r.ListIssues(context.Background(), repo, opts)

	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, numbers)
}

func TestAddLabels_RoutesByProvider(t *testing.T) {
	gh := fakeFetcher("github")
	r := New()
	require.NoError(t, r.Register(gh))

	repo := models.RepoRef{Provider: "github", Owner: "o", Name: "r"}
	gh.On("AddLabels", mock.Anything, repo, 3, []string{"bug"}).Return(nil)

	require.NoError(t, r.AddLabels(context.Background(), repo, 3, []string{"bug"}))
	gh.AssertNumberOfCalls(t, "AddLabels", 1)
}

func TestOptionalCapabilities_NotSupported(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(fetchOnly{fakeFetcher("github")}))
	repo := models.RepoRef{Provider: "github", Owner: "o", Name: "r"}

	_, err := r.ListIssues(context.Background(), repo, vcs.ListOptions{})
	assert.ErrorIs(t, err, domainErrors.ErrVCSNotSupported)

	err = r.AddLabels(context.Background(), repo, 1, []string{"bug"})
	assert.ErrorIs(t, err, domainErrors.ErrVCSNotSupported)
}
