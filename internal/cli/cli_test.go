package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pamonha-express/server/internal/agent/model"
	"github.com/pamonha-express/server/internal/agent/quota"
	"github.com/pamonha-express/server/internal/dialog"
	"github.com/pamonha-express/server/internal/order"
	pkgredis "github.com/pamonha-express/server/pkg/redis"
)

func testConfig(t *testing.T) *AppConfig {
	return &AppConfig{
		Env:            "testing",
		StorageBackend: "memory",
		ArchiveBackend: "file",
		ArchiveDir:     t.TempDir(),
		Provider:       model.ProviderConfig{Name: "mock"},
		TierModels:     model.DefaultTierModels(),
		Quota:          quota.DefaultConfig(),
		Prompt:         model.DefaultPromptConfig(),
		Conversation:   model.ConversationConfig{TTL: time.Hour},
		SessionTTL:     time.Hour,
		ArmSeed:        7,
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("GENERATIVE_PROVIDER", "mock")
	t.Setenv("CONVERSATION_TTL", "2h")
	t.Setenv("QUOTA_TIER2_THRESHOLD", "10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StorageBackend)
	assert.Equal(t, "logs", cfg.ArchiveDir)
	assert.Equal(t, "mock", cfg.Provider.Name)
	assert.Equal(t, 2*time.Hour, cfg.Conversation.TTL)
	assert.Equal(t, int64(10), cfg.Quota.Tier2Threshold)
	assert.Equal(t, int64(2500), cfg.Quota.Tier3Threshold)
	assert.Equal(t, "gemini-2.0-flash-lite", cfg.TierModels.Tier1)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestConfigValidation(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.validate())

	bad := *cfg
	bad.StorageBackend = "postgres"
	assert.Error(t, bad.validate())

	bad = *cfg
	bad.ArchiveBackend = "redis"
	assert.Error(t, bad.validate(), "redis archive without REDIS_URL")

	bad = *cfg
	bad.Provider.Name = "openai"
	assert.Error(t, bad.validate())
}

func TestMenuForPersona(t *testing.T) {
	lines := menuForPersona(order.DefaultCatalog())
	require.Len(t, lines, 8)
	assert.Equal(t, "Pamonha Doce: R$ 10,00", lines[0])
	assert.Equal(t, "Água Mineral: R$ 3,00", lines[7])
}

func TestBuildAndConsole(t *testing.T) {
	ctx := context.Background()
	app, err := Build(ctx, testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	var out bytes.Buffer
	in := strings.NewReader("oi\n\nsair\n")
	require.NoError(t, runConsole(ctx, app.Engine, "console-1", in, &out))

	s, err := app.Engine.Session(ctx, "console-1")
	require.NoError(t, err)
	assert.Equal(t, dialog.Evaluation, s.State)
	assert.Contains(t, out.String(), "Gostaria de responder a um breve questionário de avaliação?")
	assert.Contains(t, out.String(), "[1] Sim (sim)")
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.StorageBackend = "redis"
	cfg.ArchiveBackend = "redis"
	cfg.Redis = pkgredis.Config{URL: "redis://" + mr.Addr(), ReadTimeout: 1, WriteTimeout: 1, DialTimeout: 1}
	require.NoError(t, cfg.validate())

	ctx := context.Background()
	app, err := Build(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Engine.HandleTurn(ctx, "web-9", "oi")
	require.NoError(t, err)
	assert.True(t, mr.Exists("session:web-9"))

	snap, err := app.Quota.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006-01-02"), snap.ResetDate)
}
