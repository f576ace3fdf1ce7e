package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/config"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/logger"
	"github.com/thomas-vilte/triagemate/internal/models"
)

const (
	ProviderName     = "openai"
	DefaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1000
)

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint,
// including the Hugging Face router.
type OpenAICompleter struct {
	client  openai.Client
	model   string
	baseURL string
}

var _ ai.Completer = (*OpenAICompleter)(nil)

// NewOpenAICompleter builds the client from the "openai" provider entry. Retries
// are disabled so each Complete call is a single attempt.
func NewOpenAICompleter(cfg *config.Config, extra ...option.RequestOption) (*OpenAICompleter, error) {
	providerCfg, exists := cfg.AIProviders[ProviderName]
	if !exists || providerCfg.APIKey == "" {
		return nil, domainErrors.ErrAPIKeyMissing.WithContext("provider", ProviderName)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(providerCfg.APIKey),
		option.WithMaxRetries(0),
	}
	if providerCfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(providerCfg.BaseURL))
	}
	opts = append(opts, extra...)

	model := providerCfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAICompleter{
		client:  openai.NewClient(opts...),
		model:   model,
		baseURL: providerCfg.BaseURL,
	}, nil
}

func (c *OpenAICompleter) Name() string {
	return ProviderName
}

func (c *OpenAICompleter) GetModelName() string {
	return c.model
}

func (c *OpenAICompleter) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	log := logger.FromContext(ctx)

	maxTokens := req.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:      openai.Int(int64(maxTokens)),
		Temperature:    openai.Float(0.2),
		ResponseFormat: responseFormat(req),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Debug("openai chat completion failed",
			"error", err,
			"model", c.model,
			"base_url", c.baseURL)
		return nil, mapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ai.ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: finish reason %s", ai.ErrEmptyResponse, resp.Choices[0].FinishReason)
	}

	return &ai.Completion{
		Text: text,
		Usage: &models.TokenUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
			Model:        c.model,
		},
	}, nil
}

func responseFormat(req ai.CompletionRequest) openai.ChatCompletionNewParamsResponseFormatUnion {
	if req.Schema == nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	name := req.SchemaName
	if name == "" {
		name = ai.VerdictSchemaName
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        name,
				Description: openai.String("Issue triage verdict"),
				Schema:      req.Schema,
				Strict:      openai.Bool(true),
			},
		},
	}
}

func mapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ai.ErrRateLimited, err)
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: %v", ai.ErrAuth, err)
		case apiErr.StatusCode == http.StatusRequestTimeout, apiErr.StatusCode == http.StatusGatewayTimeout:
			return fmt.Errorf("%w: %v", ai.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ai.ErrTransport, err)
	}
	return fmt.Errorf("%w: %v", ai.ClassifyError(err), err)
}
