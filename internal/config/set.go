package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
)

type setter func(cfg *Config, value string) error

var setters = map[string]setter{
	"language": func(cfg *Config, v string) error {
		cfg.Language = v
		return nil
	},
	"ai.provider": func(cfg *Config, v string) error {
		cfg.AI.ActiveProvider = AI(strings.ToLower(v))
		return nil
	},
	"ai.timeout_seconds": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.AI.TimeoutSeconds = n
		return nil
	},
	"ai.api_key": func(cfg *Config, v string) error {
		return setActiveProvider(cfg, func(p *AIProviderConfig) { p.APIKey = v })
	},
	"ai.model": func(cfg *Config, v string) error {
		return setActiveProvider(cfg, func(p *AIProviderConfig) { p.Model = v })
	},
	"ai.base_url": func(cfg *Config, v string) error {
		return setActiveProvider(cfg, func(p *AIProviderConfig) { p.BaseURL = v })
	},
	"vcs.github_token": func(cfg *Config, v string) error {
		cfg.VCS.GitHubToken = v
		return nil
	},
	"vcs.gitlab_token": func(cfg *Config, v string) error {
		cfg.VCS.GitLabToken = v
		return nil
	},
	"vcs.gitlab_base_url": func(cfg *Config, v string) error {
		cfg.VCS.GitLabBaseURL = v
		return nil
	},
	"guidelines_path": func(cfg *Config, v string) error {
		cfg.GuidelinesPath = v
		return nil
	},
	"cache.enabled": func(cfg *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		cfg.Cache.Enabled = b
		return nil
	},
	"cache.ttl_hours": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Cache.TTLHours = n
		return nil
	},
	"cache.redis_url": func(cfg *Config, v string) error {
		cfg.Cache.RedisURL = v
		return nil
	},
	"server.port": func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		cfg.Server.Port = n
		return nil
	},
}

func setActiveProvider(cfg *Config, apply func(p *AIProviderConfig)) error {
	name := cfg.AI.ActiveProvider
	if name == "" || name == AINone {
		return domainErrors.ErrInvalidConfig.
			WithContext("field", "ai.provider").
			WithSuggestion("Select a provider first: triagemate config set ai.provider gemini")
	}
	if cfg.AIProviders == nil {
		cfg.AIProviders = make(map[string]AIProviderConfig)
	}
	p := cfg.AIProviders[string(name)]
	apply(&p)
	cfg.AIProviders[string(name)] = p
	return nil
}

// SettableKeys lists the keys accepted by Set, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns a single dotted key and validates the result. cfg is left
// unchanged when the new value is rejected.
func Set(cfg *Config, key, value string) error {
	fn, ok := setters[key]
	if !ok {
		return domainErrors.ErrInvalidConfig.
			WithContext("field", key).
			WithSuggestion(fmt.Sprintf("Valid keys: %s", strings.Join(SettableKeys(), ", ")))
	}

	next := *cfg
	next.AIProviders = make(map[string]AIProviderConfig, len(cfg.AIProviders))
	for k, v := range cfg.AIProviders {
		next.AIProviders[k] = v
	}

	if err := fn(&next, value); err != nil {
		var appErr *domainErrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return invalid(key, err)
	}
	if err := validateConfig(&next); err != nil {
		return err
	}

	*cfg = next
	return nil
}
