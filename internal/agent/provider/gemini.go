package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/pamonha-express/server/internal/agent/model"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// ErrNoAPIKey is returned when GEMINI_API_KEY is not configured.
var ErrNoAPIKey = errors.New("gemini api key is not configured")

// GeminiFactory builds Gemini chat models over a shared genai client. The
// client is created on first use so a missing key only fails generative turns.
type GeminiFactory struct {
	cfg    model.ProviderConfig
	tiers  model.TierModelConfig
	mu     sync.Mutex
	client *genai.Client
}

func NewGeminiFactory(cfg model.ProviderConfig, tiers model.TierModelConfig) *GeminiFactory {
	return &GeminiFactory{cfg: cfg, tiers: tiers}
}

func (g *GeminiFactory) genaiClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  g.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if g.cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = g.cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	g.client = client
	return client, nil
}

// New satisfies ModelFactory.
func (g *GeminiFactory) New(ctx context.Context, modelName string) (einomodel.BaseChatModel, error) {
	client, err := g.genaiClient(ctx)
	if err != nil {
		return nil, err
	}
	temperature := g.tiers.Temperature
	maxTokens := g.tiers.MaxTokens
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelName).Msg("Error creating Gemini chat model")
		return nil, fmt.Errorf("error creating Gemini chat model: %w", err)
	}
	return chatModel, nil
}
