package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/triagemate/internal/ai"
	"github.com/thomas-vilte/triagemate/internal/config"
	"google.golang.org/genai"
)

func newStubCompleter(fn generateFunc) *GeminiCompleter {
	return &GeminiCompleter{model: DefaultModel, generateFn: fn}
}

func TestNewGeminiCompleter(t *testing.T) {
	t.Run("should return error if API key is missing", func(t *testing.T) {
		cfg := &config.Config{AIProviders: map[string]config.AIProviderConfig{}}

		c, err := NewGeminiCompleter(context.Background(), cfg)

		assert.Error(t, err)
		assert.Nil(t, c)
		assert.Contains(t, err.Error(), "API key is missing")
	})

	t.Run("should create completer if API key is present", func(t *testing.T) {
		cfg := &config.Config{
			AIProviders: map[string]config.AIProviderConfig{
				ProviderName: {APIKey: "fake-key"},
			},
		}

		c, err := NewGeminiCompleter(context.Background(), cfg)

		require.NoError(t, err)
		assert.Equal(t, DefaultModel, c.GetModelName())
		assert.Equal(t, ProviderName, c.Name())
	})
}

func TestGeminiCompleter_Complete(t *testing.T) {
	t.Run("returns text and usage", func(t *testing.T) {
		var gotCfg *genai.GenerateContentConfig
		c := newStubCompleter(func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			gotCfg = cfg
			assert.Equal(t, DefaultModel, model)
			require.Len(t, contents, 1)
			assert.Equal(t, "classify this", contents[0].Parts[0].Text)
			return &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: ` {"type":"bug"} `}}}}},
				UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
					PromptTokenCount: 5, CandidatesTokenCount: 7, TotalTokenCount: 12,
				},
			}, nil
		})

		resp, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "classify this", MaxOutputTokens: 600})

		require.NoError(t, err)
		assert.Equal(t, `{"type":"bug"}`, resp.Text)
		assert.Equal(t, 12, resp.Usage.TotalTokens)
		assert.Equal(t, "application/json", gotCfg.ResponseMIMEType)
		assert.Equal(t, int32(600), gotCfg.MaxOutputTokens)
	})

	t.Run("empty candidates", func(t *testing.T) {
		c := newStubCompleter(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
			return &genai.GenerateContentResponse{}, nil
		})

		_, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "p"})

		assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	})

	t.Run("errors are mapped", func(t *testing.T) {
		tests := []struct {
			err  error
			want error
		}{
			{errors.New("Error 429, RESOURCE_EXHAUSTED: quota exceeded"), ai.ErrRateLimited},
			{errors.New("API key not valid. Please pass a valid API key."), ai.ErrAuth},
			{context.DeadlineExceeded, ai.ErrTimeout},
			{errors.New("dial tcp: connection refused"), ai.ErrTransport},
		}

		for _, tt := range tests {
			c := newStubCompleter(func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
				return nil, tt.err
			})

			_, err := c.Complete(context.Background(), ai.CompletionRequest{Prompt: "p"})

			assert.ErrorIs(t, err, tt.want, "input %v", tt.err)
		}
	})
}
