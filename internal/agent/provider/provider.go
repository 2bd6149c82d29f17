package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/pamonha-express/server/internal/agent/model"
	"github.com/pamonha-express/server/internal/agent/observers"
	"github.com/pamonha-express/server/internal/agent/quota"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// ErrEmptyReply is returned when the model answers with no content.
var ErrEmptyReply = errors.New("model returned an empty reply")

// Conversation is one multi-turn exchange with a backing model. The full
// history is resent on every Send.
type Conversation interface {
	ID() string
	Model() string
	Send(ctx context.Context, text string) (string, error)
	Close(ctx context.Context) error
}

// Provider opens conversations against the model backing a quota tier.
type Provider interface {
	Start(ctx context.Context, tier quota.Tier) (Conversation, error)
}

// ModelFactory builds the chat model for a model name.
type ModelFactory func(ctx context.Context, modelName string) (einomodel.BaseChatModel, error)

type runnable = compose.Runnable[map[string]any, *schema.Message]

// ChainProvider compiles one history-aware chain per model and keeps the
// conversation history in a ConversationRepository.
type ChainProvider struct {
	factory ModelFactory
	models  model.TierModelConfig
	repo    model.ConversationRepository

	mu     sync.Mutex
	chains map[string]runnable
}

func NewChainProvider(factory ModelFactory, models model.TierModelConfig, repo model.ConversationRepository) *ChainProvider {
	return &ChainProvider{
		factory: factory,
		models:  models,
		repo:    repo,
		chains:  make(map[string]runnable),
	}
}

func (p *ChainProvider) Start(ctx context.Context, tier quota.Tier) (Conversation, error) {
	name, err := p.models.ModelFor(tier)
	if err != nil {
		return nil, err
	}
	chain, err := p.chain(ctx, name)
	if err != nil {
		return nil, err
	}
	c := &chainConversation{
		id:        uuid.NewString(),
		modelName: name,
		chain:     chain,
		repo:      p.repo,
	}
	logx.Info().Str("conversation_id", c.id).Str("model", name).Str("tier", tier.String()).Msg("generative conversation started")
	return c, nil
}

func (p *ChainProvider) chain(ctx context.Context, modelName string) (runnable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.chains[modelName]; ok {
		return r, nil
	}

	chatModel, err := p.factory(ctx, modelName)
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", modelName, err)
	}

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(chatModel)

	r, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain for %s: %w", modelName, err)
	}
	p.chains[modelName] = r
	return r, nil
}

type chainConversation struct {
	id        string
	modelName string
	chain     runnable
	repo      model.ConversationRepository
}

func (c *chainConversation) ID() string {
	return c.id
}

func (c *chainConversation) Model() string {
	return c.modelName
}

// Send runs the chain over the stored history plus text. The exchange is only
// stored once the model has answered.
func (c *chainConversation) Send(ctx context.Context, text string) (string, error) {
	history, err := c.repo.LoadHistory(ctx, c.id)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	out, err := c.chain.Invoke(ctx, map[string]any{
		"history": history.Messages,
		"query":   text,
	}, compose.WithCallbacks(observers.NewChainCallbacks(c.modelName)))
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", c.modelName, err)
	}
	if out == nil || out.Content == "" {
		return "", ErrEmptyReply
	}

	if err := c.repo.AddMessage(ctx, c.id, schema.UserMessage(text)); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}
	if err := c.repo.AddMessage(ctx, c.id, schema.AssistantMessage(out.Content, nil)); err != nil {
		return "", fmt.Errorf("save assistant message: %w", err)
	}
	return out.Content, nil
}

func (c *chainConversation) Close(ctx context.Context) error {
	if n, err := c.repo.GetMessageCount(ctx, c.id); err == nil {
		logx.Debug().Str("conversation_id", c.id).Int("messages", n).Msg("clearing conversation history")
	}
	return c.repo.ClearHistory(ctx, c.id)
}
