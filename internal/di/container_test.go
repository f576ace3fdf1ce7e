package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/cache"
	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
)

func newConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PathFile = filepath.Join(t.TempDir(), "config.json")
	return cfg
}

func TestContainer_GetEngine(t *testing.T) {
	t.Run("should run rules only when AI is disabled", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.AI.ActiveProvider = config.AINone

		engine, err := NewContainer(cfg, nil).GetEngine(context.Background(), false)

		require.NoError(t, err)
		assert.False(t, engine.AIEnabled())
	})

	t.Run("should degrade to rules when the provider has no key", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.AI.ActiveProvider = config.AIGemini

		engine, err := NewContainer(cfg, nil).GetEngine(context.Background(), false)

		require.NoError(t, err)
		assert.False(t, engine.AIEnabled())
	})

	t.Run("should enable AI for a configured provider", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.AI.ActiveProvider = config.AIOpenAI
		cfg.AIProviders["openai"] = config.AIProviderConfig{APIKey: "sk-test", Model: "gpt-4o-mini"}
		c := NewContainer(cfg, nil)

		engine, err := c.GetEngine(context.Background(), false)
		require.NoError(t, err)
		assert.True(t, engine.AIEnabled())

		rulesOnly, err := c.GetEngine(context.Background(), true)
		require.NoError(t, err)
		assert.False(t, rulesOnly.AIEnabled())
	})

	t.Run("should load guidelines from file", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.AI.ActiveProvider = config.AINone
		path := filepath.Join(t.TempDir(), "guidelines.toml")
		require.NoError(t, os.WriteFile(path, []byte("engagement_threshold = 2\n"), 0644))
		cfg.GuidelinesPath = path

		_, err := NewContainer(cfg, nil).GetEngine(context.Background(), false)

		assert.NoError(t, err)
	})

	t.Run("should fail on missing guidelines file", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.GuidelinesPath = filepath.Join(t.TempDir(), "missing.toml")

		_, err := NewContainer(cfg, nil).GetEngine(context.Background(), false)

		assert.ErrorIs(t, err, domainErrors.ErrGuidelinesFile)
	})
}

func TestContainer_GetCache(t *testing.T) {
	t.Run("should use a file store next to the config", func(t *testing.T) {
		cfg := newConfig(t)
		c := NewContainer(cfg, nil)

		store, err := c.GetCache(context.Background())

		require.NoError(t, err)
		assert.IsType(t, &cache.FileStore{}, store)
		assert.DirExists(t, filepath.Join(filepath.Dir(cfg.PathFile), "cache"))

		again, err := c.GetCache(context.Background())
		require.NoError(t, err)
		assert.Same(t, store, again)
	})

	t.Run("should return a no-op store when disabled", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.Cache.Enabled = false

		store, err := NewContainer(cfg, nil).GetCache(context.Background())

		require.NoError(t, err)
		assert.Equal(t, cache.Nop{}, store)
	})

	t.Run("should fail on an invalid redis url", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.Cache.RedisURL = "not-a-redis-url"

		_, err := NewContainer(cfg, nil).GetCache(context.Background())

		assert.Error(t, err)
	})

	t.Run("should honour an injected store", func(t *testing.T) {
		c := NewContainer(newConfig(t), nil)
		c.SetCacheStore(cache.Nop{})

		store, err := c.GetCache(context.Background())

		require.NoError(t, err)
		assert.Equal(t, cache.Nop{}, store)
	})
}

func TestContainer_GetTriageService(t *testing.T) {
	t.Run("should keep working without a reachable cache", func(t *testing.T) {
		cfg := newConfig(t)
		cfg.AI.ActiveProvider = config.AINone
		cfg.Cache.RedisURL = "not-a-redis-url"
		c := NewContainer(cfg, nil)

		svc, err := c.GetTriageService(context.Background(), TriageOptions{})

		require.NoError(t, err)
		assert.NotNil(t, svc)
		assert.NoError(t, c.Close())
	})

	t.Run("should expose both issue providers", func(t *testing.T) {
		c := NewContainer(newConfig(t), nil)

		assert.Equal(t, []string{"github", "gitlab"}, c.GetVCSRegistry().List())
		assert.Equal(t, []string{"gemini", "openai"}, c.GetAIRegistry().List())
	})
}
