package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestExtractUsage(t *testing.T) {
	t.Run("nil response", func(t *testing.T) {
		assert.Nil(t, extractUsage(nil, "m"))
	})

	t.Run("nil UsageMetadata", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{}
		assert.Nil(t, extractUsage(resp, "m"))
	})

	t.Run("valid UsageMetadata", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
				PromptTokenCount:     10,
				CandidatesTokenCount: 20,
				TotalTokenCount:      30,
			},
		}
		usage := extractUsage(resp, "gemini-2.5-flash")
		assert.NotNil(t, usage)
		assert.Equal(t, 10, usage.InputTokens)
		assert.Equal(t, 20, usage.OutputTokens)
		assert.Equal(t, 30, usage.TotalTokens)
		assert.Equal(t, "gemini-2.5-flash", usage.Model)
	})
}

func TestGetGenerateConfig(t *testing.T) {
	t.Run("default config", func(t *testing.T) {
		cfg := GetGenerateConfig("gemini-2.5-flash", "", nil, 0)
		assert.NotNil(t, cfg)
		assert.Equal(t, float32(0.2), *cfg.Temperature)
		assert.Equal(t, int32(defaultMaxOutputTokens), cfg.MaxOutputTokens)
		assert.Empty(t, cfg.ResponseMIMEType)
		assert.Nil(t, cfg.ThinkingConfig)
	})

	t.Run("json response type with schema", func(t *testing.T) {
		cfg := GetGenerateConfig("gemini-2.5-flash", "application/json", verdictSchema(), 800)
		assert.Equal(t, "application/json", cfg.ResponseMIMEType)
		assert.NotNil(t, cfg.ResponseJsonSchema)
		assert.Equal(t, int32(800), cfg.MaxOutputTokens)
	})

	t.Run("Thinking Mode for gemini-3", func(t *testing.T) {
		cfg := GetGenerateConfig("gemini-3-flash-preview", "", nil, 0)
		assert.NotNil(t, cfg.ThinkingConfig)
		assert.Equal(t, genai.ThinkingLevelLow, cfg.ThinkingConfig.ThinkingLevel)
	})
}

func TestFormatResponse(t *testing.T) {
	assert.Equal(t, "", formatResponse(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: `{"type":`},
				{Text: `"bug"}`},
			}}},
		},
	}
	assert.Equal(t, `{"type":"bug"}`, formatResponse(resp))
}

func TestVerdictSchema(t *testing.T) {
	s := verdictSchema()

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Len(t, s.Required, 5)
	assert.Contains(t, s.Properties["type"].Enum, "feature_request")
	assert.Equal(t, int64(3), *s.Properties["suggested_labels"].MaxItems)
}
