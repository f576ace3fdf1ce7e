package config

type AI string

const (
	AIGemini AI = "gemini"
	AIOpenAI AI = "openai"
	// AINone disables AI classification; every verdict comes from the rules.
	AINone AI = "none"
)

type Model string

const (
	ModelGeminiV25Pro       Model = "gemini-2.5-pro"
	ModelGeminiV25Flash     Model = "gemini-2.5-flash"
	ModelGeminiV25FlashLite Model = "gemini-2.5-flash-lite"

	ModelGPTV4oMini Model = "gpt-4o-mini"
	ModelGPTV4o     Model = "gpt-4o"
	ModelLlama31    Model = "meta-llama/Llama-3.1-8B-Instruct"
	ModelQwen25     Model = "Qwen/Qwen2.5-7B-Instruct"
)

// HuggingFaceRouterURL is the OpenAI-compatible endpoint used when only HF_TOKEN is set.
const HuggingFaceRouterURL = "https://router.huggingface.co/v1"

func SupportedAIs() []AI {
	return []AI{
		AIGemini,
		AIOpenAI,
	}
}

func IsSupportedAI(ai AI) bool {
	if ai == "" || ai == AINone {
		return true
	}
	for _, s := range SupportedAIs() {
		if s == ai {
			return true
		}
	}
	return false
}

func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
			ModelGeminiV25FlashLite,
		}
	case AIOpenAI:
		return []Model{
			ModelGPTV4oMini,
			ModelGPTV4o,
			ModelLlama31,
			ModelQwen25,
		}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}
