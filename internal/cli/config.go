package cli

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/pamonha-express/server/internal/agent/model"
	"github.com/pamonha-express/server/internal/agent/quota"
	"github.com/pamonha-express/server/internal/core"
	logx "github.com/pamonha-express/server/pkg/logger"
	pkgredis "github.com/pamonha-express/server/pkg/redis"
)

// AppConfig defines every configurable parameter of the assistant, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	// HTTP
	HTTPAddr      string        `envconfig:"HTTP_ADDR" default:":8000"`
	AllowedOrigin string        `envconfig:"CORS_ALLOWED_ORIGIN" default:"*"`
	TurnTimeout   time.Duration `envconfig:"TURN_TIMEOUT" default:"60s"`

	// Infrastructure
	Redis          pkgredis.Config
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"memory"`
	ArchiveBackend string `envconfig:"ARCHIVE_BACKEND" default:"file"`
	ArchiveDir     string `envconfig:"ARCHIVE_DIR" default:"logs"`

	// Generative arm
	Provider     model.ProviderConfig
	TierModels   model.TierModelConfig
	Quota        quota.Config
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig

	// Dialog
	SessionTTL  time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	ArmSeed     uint64        `envconfig:"ARM_SEED" default:"0"`
	CatalogFile string        `envconfig:"CATALOG_FILE"`
}

func (c AppConfig) Environment() core.Environment {
	return core.ParseEnvironment(c.Env)
}

// LoadConfig reads .env when present and processes the environment.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Debug().Err(err).Msg("no .env file loaded")
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c AppConfig) validate() error {
	switch c.StorageBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND %q (memory|redis)", c.StorageBackend)
	}
	switch c.ArchiveBackend {
	case "file", "redis":
	default:
		return fmt.Errorf("invalid ARCHIVE_BACKEND %q (file|redis)", c.ArchiveBackend)
	}
	switch c.Provider.Name {
	case "gemini", "mock":
	default:
		return fmt.Errorf("invalid GENERATIVE_PROVIDER %q (gemini|mock)", c.Provider.Name)
	}
	if (c.StorageBackend == "redis" || c.ArchiveBackend == "redis") && !c.Redis.Enabled() {
		return fmt.Errorf("REDIS_URL is required by the redis backend")
	}
	return nil
}

func (c AppConfig) needsRedis() bool {
	return c.StorageBackend == "redis" || c.ArchiveBackend == "redis"
}
