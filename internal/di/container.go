package di

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/thomas-vilte/triagemate/internal/ai"
	airegistry "github.com/thomas-vilte/triagemate/internal/ai/registry"
	"github.com/thomas-vilte/triagemate/internal/cache"
	"github.com/thomas-vilte/triagemate/internal/config"
	"github.com/thomas-vilte/triagemate/internal/i18n"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/services"
	"github.com/thomas-vilte/triagemate/internal/triage"
	vcsregistry "github.com/thomas-vilte/triagemate/internal/vcs/registry"
)

// TriageOptions are the per-invocation switches of the triage service.
type TriageOptions struct {
	RulesOnly bool
	NoCache   bool
}

// Container builds the application services from the configuration.
type Container struct {
	config       *config.Config
	translations *i18n.Translations

	aiRegistry  *airegistry.Registry
	vcsRegistry *vcsregistry.Registry

	mu      sync.Mutex
	store   cache.Store
	closers []io.Closer
}

func NewContainer(cfg *config.Config, trans *i18n.Translations) *Container {
	return &Container{
		config:       cfg,
		translations: trans,
		aiRegistry:   airegistry.NewDefault(),
		vcsRegistry:  vcsregistry.NewDefault(cfg),
	}
}

func (c *Container) GetConfig() *config.Config {
	return c.config
}

func (c *Container) GetTranslations() *i18n.Translations {
	return c.translations
}

func (c *Container) GetAIRegistry() *airegistry.Registry {
	return c.aiRegistry
}

func (c *Container) GetVCSRegistry() *vcsregistry.Registry {
	return c.vcsRegistry
}

// SetCacheStore replaces the store selected from the configuration.
func (c *Container) SetCacheStore(store cache.Store) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
}

// GetCache returns the verdict store (lazy initialization): Redis when a URL is
// configured, otherwise a file store next to the config file.
func (c *Container) GetCache(ctx context.Context) (cache.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.store != nil {
		return c.store, nil
	}
	if !c.config.Cache.Enabled {
		c.store = cache.Nop{}
		return c.store, nil
	}

	if url := c.config.Cache.RedisURL; url != "" {
		store, err := cache.NewRedisStore(ctx, url, c.config.CacheTTL())
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store)
		c.store = store
		return c.store, nil
	}

	dir, err := c.cacheDir()
	if err != nil {
		return nil, err
	}
	store, err := cache.NewFileStore(dir, c.config.CacheTTL())
	if err != nil {
		return nil, err
	}
	c.store = store
	return c.store, nil
}

func (c *Container) cacheDir() (string, error) {
	if c.config.PathFile != "" {
		return filepath.Join(filepath.Dir(c.config.PathFile), "cache"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(config.Dir(home), "cache"), nil
}

// GetCompleter builds the completer of the active provider. A provider that
// cannot be built is logged and the engine runs on rules only.
func (c *Container) GetCompleter(ctx context.Context) ai.Completer {
	completer, err := c.aiRegistry.Build(ctx, c.config)
	if err != nil {
		logger.Warn(ctx, "AI provider unavailable, using rule-based classification",
			"provider", c.config.AI.ActiveProvider,
			"error", err)
		return nil
	}
	return completer
}

// GetEngine builds the classification engine with the configured guidelines.
func (c *Container) GetEngine(ctx context.Context, rulesOnly bool) (*triage.Engine, error) {
	opts := []triage.Option{triage.WithTimeout(c.config.Timeout())}

	if path := c.config.GuidelinesPath; path != "" {
		g, err := triage.LoadGuidelines(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, triage.WithGuidelines(g))
	}

	if !rulesOnly {
		if completer := c.GetCompleter(ctx); completer != nil {
			opts = append(opts, triage.WithCompleter(completer))
		}
	}
	return triage.NewEngine(opts...), nil
}

// GetTriageService wires the fetcher registry, engine and cache.
func (c *Container) GetTriageService(ctx context.Context, opts TriageOptions) (*services.TriageService, error) {
	engine, err := c.GetEngine(ctx, opts.RulesOnly)
	if err != nil {
		return nil, err
	}

	var svcOpts []services.TriageOption
	if !opts.NoCache {
		store, err := c.GetCache(ctx)
		if err != nil {
			logger.Warn(ctx, "verdict cache unavailable, continuing without it", "error", err)
		} else {
			svcOpts = append(svcOpts, services.WithCache(store))
		}
	}

	return services.NewTriageService(c.vcsRegistry, engine, svcOpts...), nil
}

// Close releases connections opened by the container.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, cl := range c.closers {
		errs = append(errs, cl.Close())
	}
	c.closers = nil
	return errors.Join(errs...)
}
