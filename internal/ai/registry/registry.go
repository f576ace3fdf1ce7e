package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/ai/gemini"
	"github.com/thomas-vilte/triagemate/internal/ai/openai"
	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
)

// Factory builds a completer from the loaded configuration.
type Factory func(ctx context.Context, cfg *config.Config) (ai.Completer, error)

// Registry maps provider names to completer factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// NewDefault returns a registry with every built-in provider.
func NewDefault() *Registry {
	r := New()
	_ = r.Register(gemini.ProviderName, func(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
		return gemini.NewGeminiCompleter(ctx, cfg)
	})
	_ = r.Register(openai.ProviderName, func(_ context.Context, cfg *config.Config) (ai.Completer, error) {
		return openai.NewOpenAICompleter(cfg)
	})
	return r
}

func (r *Registry) Register(name string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("AI provider '%s' is already registered", name)
	}

	r.factories[name] = factory
	return nil
}

func (r *Registry) Get(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, domainErrors.ErrProviderNotFound.WithContext("provider", name)
	}
	return factory, nil
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.factories))
	for name := range r.factories {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Build creates the completer for the active provider, wrapped with usage
// instrumentation. It returns nil without error when AI is disabled, so the
// engine runs on rules only.
func (r *Registry) Build(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	name := cfg.AI.ActiveProvider
	if name == "" || name == config.AINone {
		return nil, nil
	}

	factory, err := r.Get(string(name))
	if err != nil {
		return nil, err
	}

	completer, err := factory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.AIProviders[string(name)].Model
	return ai.Instrument(completer, model), nil
}
