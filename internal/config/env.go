package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvHFToken      = "HF_TOKEN"
	EnvGitHubToken  = "GITHUB_TOKEN"
	EnvGitLabToken  = "GITLAB_TOKEN"
	EnvAIProvider   = "TRIAGEMATE_AI_PROVIDER"
	EnvRedisURL     = "REDIS_URL"
	EnvPort         = "PORT"
)

// LoadDotEnv loads .env files into the process environment without overriding
// variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on cfg. The result is meant for runtime
// use only; saving it would persist secrets taken from the environment.
func ApplyEnv(cfg *Config) error {
	if cfg.AIProviders == nil {
		cfg.AIProviders = make(map[string]AIProviderConfig)
	}

	if key := os.Getenv(EnvGeminiAPIKey); key != "" {
		p := cfg.AIProviders[string(AIGemini)]
		p.APIKey = key
		cfg.AIProviders[string(AIGemini)] = p
	}

	openaiKey := os.Getenv(EnvOpenAIAPIKey)
	hfToken := os.Getenv(EnvHFToken)
	switch {
	case openaiKey != "":
		p := cfg.AIProviders[string(AIOpenAI)]
		p.APIKey = openaiKey
		cfg.AIProviders[string(AIOpenAI)] = p
	case hfToken != "":
		p := cfg.AIProviders[string(AIOpenAI)]
		if p.APIKey == "" {
			p.APIKey = hfToken
			if p.BaseURL == "" {
				p.BaseURL = HuggingFaceRouterURL
			}
			if p.Model == "" || strings.HasPrefix(p.Model, "gpt-") {
				p.Model = string(ModelLlama31)
			}
		}
		cfg.AIProviders[string(AIOpenAI)] = p
	}

	if provider := os.Getenv(EnvAIProvider); provider != "" {
		cfg.AI.ActiveProvider = AI(strings.ToLower(provider))
	}

	if token := os.Getenv(EnvGitHubToken); token != "" {
		cfg.VCS.GitHubToken = token
	}
	if token := os.Getenv(EnvGitLabToken); token != "" {
		cfg.VCS.GitLabToken = token
	}
	if url := os.Getenv(EnvRedisURL); url != "" {
		cfg.Cache.RedisURL = url
	}
	if port := os.Getenv(EnvPort); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return invalid("server.port", err)
		}
		cfg.Server.Port = n
	}

	return validateConfig(cfg)
}
