package bridge

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pamonha-express/server/internal/agent/prompts"
	"github.com/pamonha-express/server/internal/agent/provider"
	"github.com/pamonha-express/server/internal/agent/quota"
	errx "github.com/pamonha-express/server/internal/core/error"
	"github.com/pamonha-express/server/internal/metrics"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// closeTimeout bounds clearing the provider-side history of an evicted
// conversation.
const closeTimeout = 5 * time.Second

type handle struct {
	conv   provider.Conversation
	tier   quota.Tier
	primed bool
	// counted is set while the attempt taken by Acquire has not been sent yet
	counted bool
}

// Bridge relays generative-arm turns to the provider, one conversation per
// session. Conversations idle for longer than the bridge's TTL are closed.
// No lock is held across a provider call.
type Bridge struct {
	selector *quota.Selector
	provider provider.Provider
	persona  string
	idleTTL  time.Duration

	convs *cache.Cache
}

type Option func(*Bridge)

// WithIdleTTL expires a session's conversation after d without turns.
func WithIdleTTL(d time.Duration) Option {
	return func(b *Bridge) {
		b.idleTTL = d
	}
}

func New(selector *quota.Selector, p provider.Provider, persona string, opts ...Option) *Bridge {
	b := &Bridge{
		selector: selector,
		provider: p,
		persona:  persona,
	}
	for _, opt := range opts {
		opt(b)
	}
	exp := cache.NoExpiration
	if b.idleTTL > 0 {
		exp = b.idleTTL
	}
	b.convs = cache.New(exp, 10*time.Minute)
	b.convs.OnEvicted(func(sessionID string, v interface{}) {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		b.close(ctx, sessionID, v.(*handle))
	})
	return b
}

func (b *Bridge) get(sessionID string) *handle {
	v, ok := b.convs.Get(sessionID)
	if !ok {
		return nil
	}
	return v.(*handle)
}

// StartConversation opens a conversation on the tier the quota allows and
// replaces any conversation the session already holds. Acquiring the tier
// counts the conversation's first attempt.
func (b *Bridge) StartConversation(ctx context.Context, sessionID string) error {
	tier, err := b.selector.Acquire(ctx)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("quota unavailable, defaulting to tier1")
		tier = quota.Tier1
	}

	conv, err := b.provider.Start(ctx, tier)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Str("tier", tier.String()).Msg("failed to start generative conversation")
		return errx.EngineInit(err)
	}

	// evicting the previous handle, expired or not, closes it
	b.convs.Delete(sessionID)
	b.convs.SetDefault(sessionID, &handle{conv: conv, tier: tier, counted: true})
	return nil
}

// SendTurn forwards text within the session's conversation, starting one if
// needed. Every attempt counts against the quota. The first turn that the
// provider accepts carries the persona instructions.
func (b *Bridge) SendTurn(ctx context.Context, sessionID, text string) (string, error) {
	h := b.get(sessionID)
	if h == nil {
		if err := b.StartConversation(ctx, sessionID); err != nil {
			return "", err
		}
		if h = b.get(sessionID); h == nil {
			return "", errx.EngineInit(nil)
		}
	}

	if h.counted {
		h.counted = false
	} else if _, err := b.selector.Record(ctx); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record quota attempt")
	}
	b.convs.SetDefault(sessionID, h)

	msg := text
	if !h.primed {
		msg = prompts.WrapFirstTurn(b.persona, text)
	}

	started := time.Now()
	reply, err := h.conv.Send(ctx, msg)
	metrics.GenerativeDuration.WithLabelValues(h.tier.String()).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.GenerativeAttempts.WithLabelValues(h.tier.String(), "error").Inc()
		logx.Error().Err(err).Str("session_id", sessionID).Str("conversation_id", h.conv.ID()).Msg("generative turn failed")
		return "", errx.EngineCall(err)
	}
	metrics.GenerativeAttempts.WithLabelValues(h.tier.String(), "ok").Inc()

	h.primed = true
	logx.Info().Str("session_id", sessionID).Str("conversation_id", h.conv.ID()).Str("model", h.conv.Model()).Msg("generative turn relayed")
	return reply, nil
}

// EndConversation drops the session's conversation and its provider-side
// history. The next SendTurn starts over with the persona.
func (b *Bridge) EndConversation(_ context.Context, sessionID string) {
	b.convs.Delete(sessionID)
}

func (b *Bridge) close(ctx context.Context, sessionID string, h *handle) {
	if err := h.conv.Close(ctx); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Str("conversation_id", h.conv.ID()).Msg("failed to clear generative history")
		return
	}
	logx.Debug().Str("session_id", sessionID).Str("conversation_id", h.conv.ID()).Msg("generative conversation closed")
}
