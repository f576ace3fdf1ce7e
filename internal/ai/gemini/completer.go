package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"google.golang.org/genai"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-2.5-flash"
)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// GeminiCompleter submits classification prompts to Gemini.
type GeminiCompleter struct {
	Client     *genai.Client
	model      string
	generateFn generateFunc
}

var _ ai.Completer = (*GeminiCompleter)(nil)

func NewGeminiCompleter(ctx context.Context, cfg *config.Config) (*GeminiCompleter, error) {
	providerCfg, exists := cfg.AIProviders[ProviderName]
	if !exists || providerCfg.APIKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", ProviderName)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  providerCfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, domainErrors.ErrAIClientInit.WithError(err).WithContext("provider", ProviderName)
	}

	model := providerCfg.Model
	if model == "" {
		model = DefaultModel
	}

	c := &GeminiCompleter{
		Client: client,
		model:  model,
	}
	c.generateFn = c.defaultGenerate
	return c, nil
}

func (c *GeminiCompleter) Name() string {
	return ProviderName
}

// GetModelName returns the configured model (e.g.: "gemini-2.5-flash").
func (c *GeminiCompleter) GetModelName() string {
	return c.model
}

func (c *GeminiCompleter) defaultGenerate(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return c.Client.Models.GenerateContent(ctx, model, contents, cfg)
}

// Complete makes one GenerateContent call. The verdict schema is always used
// for structured output; req.Schema is consumed by OpenAI-compatible providers.
func (c *GeminiCompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	log := logger.FromContext(ctx)

	genConfig := GetGenerateConfig(c.model, "application/json", verdictSchema(), req.MaxOutputTokens)

	resp, err := c.generateFn(ctx, c.model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		log.Debug("gemini API call failed",
			"error", err,
			"model", c.model)
		return nil, mapError(err)
	}

	text := strings.TrimSpace(formatResponse(resp))
	if text == "" {
		reason := "no candidates"
		if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
			reason = fmt.Sprintf("finish reason %s", resp.Candidates[0].FinishReason)
		}
		return nil, fmt.Errorf("%w: gemini returned no text (%s)", ai.ErrEmptyResponse, reason)
	}

	return &ai.Completion{
		Text:  text,
		Usage: extractUsage(resp, c.model),
	}, nil
}

// mapError classifies Gemini failures from their message, as the SDK exposes no typed codes we rely on.
func mapError(err error) error {
	if ctxErr := ai.ClassifyError(err); ctxErr == ai.ErrTimeout || ctxErr == ai.ErrCanceled {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "resource exhausted") ||
		strings.Contains(errMsg, "resource_exhausted"):
		return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
	case strings.Contains(errMsg, "api key") ||
		strings.Contains(errMsg, "unauthorized") ||
		strings.Contains(errMsg, "unauthenticated") ||
		strings.Contains(errMsg, "permission denied"):
		return fmt.Errorf("%w: %v", ai.ErrAuth, err)
	case strings.Contains(errMsg, "deadline"):
		return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ai.ErrTransport, err)
}
