package model

import (
	"fmt"
	"time"

	"github.com/pamonha-express/server/internal/agent/quota"
)

// ================ Config ================
type ConversationConfig struct {
	TTL time.Duration `envconfig:"CONVERSATION_TTL" default:"24h"`
}

type ProviderConfig struct {
	Name    string `envconfig:"GENERATIVE_PROVIDER" default:"gemini"`
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`
}

// TierModelConfig names the backing model of every quota tier.
type TierModelConfig struct {
	Tier1       string  `envconfig:"MODEL_TIER1" default:"gemini-2.0-flash-lite"`
	Tier2       string  `envconfig:"MODEL_TIER2" default:"gemini-2.0-flash"`
	Tier3       string  `envconfig:"MODEL_TIER3" default:"gemini-1.5-flash"`
	MaxTokens   int     `envconfig:"RESPONSE_MAX_TOKENS" default:"1024"`
	Temperature float32 `envconfig:"RESPONSE_TEMPERATURE" default:"0.7"`
}

// DefaultTierModels mirrors the envconfig defaults.
func DefaultTierModels() TierModelConfig {
	return TierModelConfig{
		Tier1:       "gemini-2.0-flash-lite",
		Tier2:       "gemini-2.0-flash",
		Tier3:       "gemini-1.5-flash",
		MaxTokens:   1024,
		Temperature: 0.7,
	}
}

// ModelFor resolves the model name backing a tier.
func (c TierModelConfig) ModelFor(tier quota.Tier) (string, error) {
	var name string
	switch tier {
	case quota.Tier1:
		name = c.Tier1
	case quota.Tier2:
		name = c.Tier2
	case quota.Tier3:
		name = c.Tier3
	default:
		return "", fmt.Errorf("unknown tier %s", tier)
	}
	if name == "" {
		return "", fmt.Errorf("no model configured for %s", tier)
	}
	return name, nil
}

type PromptConfig struct {
	BusinessName  string `envconfig:"PROMPT_BUSINESS_NAME" default:"Pamonha Express"`
	BusinessCity  string `envconfig:"PROMPT_BUSINESS_CITY" default:"Uberlândia-MG"`
	AssistantName string `envconfig:"PROMPT_ASSISTANT_NAME" default:"Sara"`
}

func DefaultPromptConfig() PromptConfig {
	return PromptConfig{BusinessName: "Pamonha Express", BusinessCity: "Uberlândia-MG", AssistantName: "Sara"}
}
