package cli

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pamonha-express/server/internal/agent/bridge"
	"github.com/pamonha-express/server/internal/agent/model"
	"github.com/pamonha-express/server/internal/agent/prompts"
	"github.com/pamonha-express/server/internal/agent/provider"
	"github.com/pamonha-express/server/internal/agent/quota"
	"github.com/pamonha-express/server/internal/agent/repo"
	"github.com/pamonha-express/server/internal/archive"
	"github.com/pamonha-express/server/internal/assessment"
	"github.com/pamonha-express/server/internal/dialog"
	"github.com/pamonha-express/server/internal/order"
	"github.com/pamonha-express/server/internal/transcript"
	logx "github.com/pamonha-express/server/pkg/logger"
)

// App is the fully wired assistant.
type App struct {
	Engine *dialog.Engine
	Quota  *quota.Selector
	rdb    *goredis.Client
}

func (a *App) Close() error {
	if a.rdb != nil {
		return a.rdb.Close()
	}
	return nil
}

// Build wires stores, the generative bridge, the recorders and the dialog
// engine from cfg.
func Build(ctx context.Context, cfg *AppConfig) (*App, error) {
	app := &App{}

	if cfg.needsRedis() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise Redis client: %w", err)
		}
		app.rdb = rdb
		logx.Info().Msg("connected to redis")
	}

	catalog := order.DefaultCatalog()
	if cfg.CatalogFile != "" {
		c, err := order.LoadCatalog(cfg.CatalogFile)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		catalog = c
	}

	var (
		sessions dialog.Store
		counter  quota.Store
		history  model.ConversationRepository
	)
	if cfg.StorageBackend == "redis" {
		sessions = dialog.NewRedisStore(app.rdb, cfg.SessionTTL)
		counter = quota.NewRedisStore(app.rdb)
		history = repo.NewRedisConversationRepository(app.rdb, cfg.Conversation.TTL)
	} else {
		sessions = dialog.NewMemoryStore(cfg.SessionTTL)
		counter = quota.NewMemoryStore()
		history = repo.NewMemoryConversationRepository(cfg.Conversation.TTL)
	}

	var docs archive.Archive
	if cfg.ArchiveBackend == "redis" {
		docs = archive.NewRedisArchive(app.rdb)
	} else {
		docs = archive.NewFileArchive(cfg.ArchiveDir)
	}

	selector, err := quota.NewSelector(counter, cfg.Quota)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	var factory provider.ModelFactory = provider.MockFactory
	if cfg.Provider.Name == "gemini" {
		factory = provider.NewGeminiFactory(cfg.Provider, cfg.TierModels).New
		if cfg.Provider.APIKey == "" {
			logx.Warn().Msg("GEMINI_API_KEY is empty, generative turns will fail")
		}
	}
	chains := provider.NewChainProvider(factory, cfg.TierModels, history)

	persona, err := prompts.RenderPersona(ctx, cfg.Prompt, menuForPersona(catalog))
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	engine, err := dialog.NewEngine(dialog.Deps{
		Store:       sessions,
		Catalog:     catalog,
		Generator:   bridge.New(selector, chains, persona, bridge.WithIdleTTL(cfg.SessionTTL)),
		Recorder:    transcript.NewRecorder(docs, transcript.WithIdleTTL(cfg.SessionTTL)),
		Assessments: assessment.NewCollector(docs),
		Picker:      dialog.NewRandomPicker(cfg.ArmSeed),
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Engine = engine
	app.Quota = selector

	logx.Info().
		Str("storage", cfg.StorageBackend).
		Str("archive", cfg.ArchiveBackend).
		Str("provider", cfg.Provider.Name).
		Int("catalog_items", len(catalog.Items())).
		Msg("assistant ready")
	return app, nil
}

// menuForPersona lists catalog entries as "Name: R$ X,XX".
func menuForPersona(c *order.Catalog) []string {
	lines := c.Lines()
	out := make([]string, len(lines))
	for i, line := range lines {
		if _, rest, ok := strings.Cut(line, " - "); ok {
			line = rest
		}
		out[i] = line
	}
	return out
}
