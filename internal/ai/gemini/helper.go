package gemini

import (
	"strings"

	"github.com/thomas-vilte/triagemate/internal/models"
	"google.golang.org/genai"
)

const defaultMaxOutputTokens = 1024

// extractUsage extracts usage metadata from the Gemini response
func extractUsage(resp *genai.GenerateContentResponse, model string) *models.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
		Model:        model,
	}
}

// GetGenerateConfig returns the generation config for the model, enabling Thinking Mode if compatible.
// Classification wants short, repeatable answers, so temperature stays low.
func GetGenerateConfig(modelName string, responseType string, schema *genai.Schema, maxOutputTokens int) *genai.GenerateContentConfig {
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}

	config := &genai.GenerateContentConfig{
		Temperature:     float32Ptr(0.2),
		MaxOutputTokens: int32(maxOutputTokens),
	}

	if responseType == "application/json" {
		config.ResponseMIMEType = "application/json"
		if schema != nil {
			config.ResponseJsonSchema = schema
		}
	}

	if strings.HasPrefix(modelName, "gemini-3") {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingLevel:   genai.ThinkingLevelLow,
		}
	}

	return config
}

func float32Ptr(f float32) *float32 {
	return &f
}

// formatResponse concatenates the text parts of every candidate, skipping thoughts.
func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var formattedContent strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			formattedContent.WriteString(part.Text)
		}
	}
	return formattedContent.String()
}

// verdictSchema mirrors models.Verdict for Gemini structured output.
func verdictSchema() *genai.Schema {
	types := make([]string, 0, len(models.IssueTypes()))
	for _, t := range models.IssueTypes() {
		types = append(types, string(t))
	}

	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"summary", "type", "priority_score", "suggested_labels", "potential_impact"},
		PropertyOrdering: []string{
			"summary", "type", "priority_score", "suggested_labels", "potential_impact",
		},
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeString,
				Description: "Plain-text explanation of the issue in 1 to 4 sentences",
			},
			"type": {
				Type: genai.TypeString,
				Enum: types,
			},
			"priority_score": {
				Type:        genai.TypeString,
				Description: "Score from 1 to 5 followed by a justification, formatted as N/5 - justification",
			},
			"suggested_labels": {
				Type:     genai.TypeArray,
				Items:    &genai.Schema{Type: genai.TypeString},
				MinItems: int64Ptr(2),
				MaxItems: int64Ptr(3),
			},
			"potential_impact": {
				Type:        genai.TypeString,
				Description: "User impact for bugs; for other types: " + models.NonBugImpact,
			},
		},
	}
}

func int64Ptr(i int64) *int64 {
	return &i
}
