package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
	"github.com/thomas-vilte/triagemate/internal/vcs"
	"github.com/thomas-vilte/triagemate/internal/vcs/github"
	"github.com/thomas-vilte/triagemate/internal/vcs/gitlab"
)

// Registry holds one fetcher per issue tracker and routes each request by
// the provider of its repository reference.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]vcs.IssueFetcher
}

var (
	_ vcs.IssueFetcher = (*Registry)(nil)
	_ vcs.IssueLister  = (*Registry)(nil)
	_ vcs.LabelWriter  = (*Registry)(nil)
)

func New() *Registry {
	return &Registry{
		fetchers: make(map[string]vcs.IssueFetcher),
	}
}

// NewDefault registers the GitHub and GitLab fetchers with the configured tokens.
func NewDefault(cfg *config.Config) *Registry {
	r := New()
	_ = r.Register(github.NewGitHubClient(cfg.VCS.GitHubToken))
	_ = r.Register(gitlab.NewGitLabClient(cfg.VCS.GitLabToken, cfg.VCS.GitLabBaseURL))
	return r
}

func (r *Registry) Register(fetcher vcs.IssueFetcher) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := fetcher.Name()
	if _, exists := r.fetchers[name]; exists {
		return fmt.Errorf("VCS provider '%s' is already registered", name)
	}

	r.fetchers[name] = fetcher
	return nil
}

func (r *Registry) Get(name string) (vcs.IssueFetcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fetcher, exists := r.fetchers[name]
	if !exists {
		return nil, domainErrors.ErrVCSNotSupported.WithContext("provider", name)
	}
	return fetcher, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Name() string {
	return "registry"
}

func (r *Registry) route(repo models.RepoRef) (vcs.IssueFetcher, error) {
	provider := repo.Provider
	if provider == "" {
		provider = vcs.ProviderGitHub
	}
	return r.Get(provider)
}

func (r *Registry) FetchIssue(ctx context.Context, repo models.RepoRef, number int) (*models.RawIssue, error) {
	fetcher, err := r.route(repo)
	if err != nil {
		return nil, err
	}
	return fetcher.FetchIssue(ctx, repo, number)
}

// ListIssues fails with ErrVCSNotSupported when the provider cannot list issues.
func (r *Registry) ListIssues(ctx context.Context, repo models.RepoRef, opts vcs.ListOptions) ([]int, error) {
	fetcher, err := r.route(repo)
	if err != nil {
		return nil, err
	}
	lister, ok := fetcher.(vcs.IssueLister)
	if !ok {
		return nil, domainErrors.ErrVCSNotSupported.WithContext("provider", fetcher.Name()).WithContext("operation", "list issues")
	}
	return lister.ListIssues(ctx, repo, opts)
}

// AddLabels fails with ErrVCSNotSupported when the provider cannot write labels.
func (r *Registry) AddLabels(ctx context.Context, repo models.RepoRef, number int, labels []string) error {
	fetcher, err := r.route(repo)
	if err != nil {
		return err
	}
	writer, ok := fetcher.(vcs.LabelWriter)
	if !ok {
		return domainErrors.ErrVCSNotSupported.WithContext("provider", fetcher.Name()).WithContext("operation", "add labels")
	}
	return writer.AddLabels(ctx, repo, number, labels)
}
