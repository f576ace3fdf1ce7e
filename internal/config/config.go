package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
)

type (
	Config struct {
		Language       string                      `json:"language"`
		AI             AIConfig                    `json:"ai"`
		AIProviders    map[string]AIProviderConfig `json:"ai_providers"`
		VCS            VCSConfig                   `json:"vcs"`
		GuidelinesPath string                      `json:"guidelines_path,omitempty"`
		Cache          CacheConfig                 `json:"cache"`
		Server         ServerConfig                `json:"server"`
		PathFile       string                      `json:"path_file"`
	}

	AIConfig struct {
		ActiveProvider AI  `json:"active_provider"`
		TimeoutSeconds int `json:"timeout_seconds"`
	}

	AIProviderConfig struct {
		APIKey  string `json:"api_key,omitempty"`
		Model   string `json:"model,omitempty"`
		BaseURL string `json:"base_url,omitempty"`
	}

	VCSConfig struct {
		GitHubToken   string `json:"github_token,omitempty"`
		GitLabToken   string `json:"gitlab_token,omitempty"`
		GitLabBaseURL string `json:"gitlab_base_url,omitempty"`
	}

	CacheConfig struct {
		Enabled  bool   `json:"enabled"`
		TTLHours int    `json:"ttl_hours"`
		RedisURL string `json:"redis_url,omitempty"`
	}

	ServerConfig struct {
		Port int `json:"port"`
	}
)

const (
	defaultLang           = LangEN
	defaultTimeoutSeconds = 20
	defaultCacheTTLHours  = 24
	defaultServerPort     = 8080

	MinTimeoutSeconds = 10
	MaxTimeoutSeconds = 30

	configDirName  = ".triagemate"
	configFileName = "config.json"
)

// Dir returns the directory holding config.json and the file cache.
func Dir(home string) string {
	return filepath.Join(home, configDirName)
}

// LoadConfig reads the config file. path is either a .json file or a home directory,
// in which case ~/.triagemate/config.json is used and created with defaults when missing.
func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".json" {
		configPath = path
	} else {
		configDir := Dir(path)
		configPath = filepath.Join(configDir, configFileName)

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("error creating config directory: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error decoding config JSON: %w", err)
	}
	config.PathFile = configPath
	if config.AIProviders == nil {
		config.AIProviders = make(map[string]AIProviderConfig)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a config with every default applied and no secrets.
func DefaultConfig() *Config {
	return &Config{
		Language: defaultLang,
		AI: AIConfig{
			ActiveProvider: AIGemini,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		AIProviders: map[string]AIProviderConfig{
			string(AIGemini): {Model: string(DefaultModelForAI(AIGemini))},
			string(AIOpenAI): {Model: string(DefaultModelForAI(AIOpenAI))},
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTLHours: defaultCacheTTLHours,
		},
		Server: ServerConfig{Port: defaultServerPort},
	}
}

func createDefaultConfig(path string) (*Config, error) {
	config := DefaultConfig()
	config.PathFile = path

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("error writing default config: %w", err)
	}

	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return err
	}

	if config.PathFile == "" {
		return errors.New("config file path is not set")
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}

	if err := os.WriteFile(config.PathFile, data, 0600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}

func validateConfig(config *Config) error {
	if config.Language == "" {
		return invalid("language", errors.New("language cannot be empty"))
	}
	if !IsSupportedLanguage(config.Language) {
		return invalid("language", fmt.Errorf("unsupported language %q", config.Language))
	}
	if !IsSupportedAI(config.AI.ActiveProvider) {
		return invalid("ai.active_provider", fmt.Errorf("unsupported AI provider %q", config.AI.ActiveProvider))
	}
	for name := range config.AIProviders {
		if !IsSupportedAI(AI(name)) || AI(name) == AINone {
			return invalid("ai_providers", fmt.Errorf("unsupported AI provider %q", name))
		}
	}
	if t := config.AI.TimeoutSeconds; t != 0 && (t < MinTimeoutSeconds || t > MaxTimeoutSeconds) {
		return invalid("ai.timeout_seconds", fmt.Errorf("timeout must be between %d and %d seconds, got %d", MinTimeoutSeconds, MaxTimeoutSeconds, t))
	}
	if config.Cache.TTLHours < 0 {
		return invalid("cache.ttl_hours", errors.New("cache TTL cannot be negative"))
	}
	if p := config.Server.Port; p < 0 || p > 65535 {
		return invalid("server.port", fmt.Errorf("port out of range: %d", p))
	}
	return nil
}

func invalid(field string, err error) error {
	return domainErrors.ErrInvalidConfig.WithError(err).WithContext("field", field)
}

// Timeout returns the AI call timeout; zero means the engine default.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// CacheTTL returns the verdict cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLHours) * time.Hour
}

// AIEnabled reports whether an AI provider is selected and has credentials.
func (c *Config) AIEnabled() bool {
	p := c.AI.ActiveProvider
	if p == "" || p == AINone {
		return false
	}
	return c.AIProviders[string(p)].APIKey != ""
}

// Redacted returns a copy with every secret masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	out.AIProviders = make(map[string]AIProviderConfig, len(c.AIProviders))
	for name, p := range c.AIProviders {
		p.APIKey = mask(p.APIKey)
		out.AIProviders[name] = p
	}
	out.VCS.GitHubToken = mask(c.VCS.GitHubToken)
	out.VCS.GitLabToken = mask(c.VCS.GitLabToken)
	out.Cache.RedisURL = mask(c.Cache.RedisURL)
	return &out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****" + secret[len(secret)-4:]
}
