package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamonha-express/server/internal/agent/quota"
)

func TestModelFor(t *testing.T) {
	cfg := DefaultTierModels()

	for tier, want := range map[quota.Tier]string{
		quota.Tier1: "gemini-2.0-flash-lite",
		quota.Tier2: "gemini-2.0-flash",
		quota.Tier3: "gemini-1.5-flash",
	} {
		got, err := cfg.ModelFor(tier)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := cfg.ModelFor(quota.Tier(9))
	assert.Error(t, err)

	cfg.Tier2 = ""
	_, err = cfg.ModelFor(quota.Tier2)
	assert.Error(t, err)
}

func TestComputeCost(t *testing.T) {
	in, out, total := ComputeCost(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}, ResolvePricing("gemini-2.0-flash"))
	assert.InDelta(t, 0.10, in, 1e-9)
	assert.InDelta(t, 0.20, out, 1e-9)
	assert.InDelta(t, 0.30, total, 1e-9)

	_, _, total = ComputeCost(nil, ResolvePricing("gemini-2.0-flash"))
	assert.Zero(t, total)

	assert.Equal(t, Pricing{}, ResolvePricing("unknown"))
}
