// Package bootstrap opens the backends selected by config.App. It is shared
// by the HTTP server and the admin CLI.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/config"
	"github.com/yoockh/interviewer/internal/cache"
	"github.com/yoockh/interviewer/internal/providers/llm"
	mongorepo "github.com/yoockh/interviewer/internal/repositories/mongo"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/services"
	"gorm.io/gorm"
)

type Repos struct {
	Employers  pgrepo.EmployerRepository
	Interviews pgrepo.InterviewRepository
	Messages   pgrepo.MessageRepository
	Roles      pgrepo.RoleRepository
}

func NewRepos(db *gorm.DB) Repos {
	return Repos{
		Employers:  pgrepo.NewEmployerRepo(db),
		Interviews: pgrepo.NewInterviewRepo(db),
		Messages:   pgrepo.NewMessageRepo(db),
		Roles:      pgrepo.NewRoleRepo(db),
	}
}

// Postgres connects the transcript store and migrates it when enabled.
func Postgres(cfg *config.App) (*gorm.DB, error) {
	if err := config.InitPostgres(); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if cfg.AutoMigrate {
		if err := pgrepo.AutoMigrate(config.PostgresDB); err != nil {
			return nil, fmt.Errorf("postgres migrate: %w", err)
		}
	}
	return config.PostgresDB, nil
}

// NeedsRedis reports whether any selected backend lives in redis. A configured
// redis address also enables the shared event bus.
func NeedsRedis(cfg *config.App) bool {
	return cfg.SessionBackend == "redis" || cfg.RatingQueue == "redis" || config.RedisConfigured()
}

// SessionStore opens the session backend. Redis must already be initialised
// for the redis backend.
func SessionStore(cfg *config.App) (services.SessionStore, error) {
	switch cfg.SessionBackend {
	case "redis":
		if config.RedisClient == nil {
			return nil, fmt.Errorf("session backend redis: client not initialised")
		}
		return services.NewCacheSessionStore(cache.NewRedisCache(config.RedisClient, "interviewer:"), cfg.SessionTTL), nil
	case "mongo":
		if config.MongoClient == nil {
			if err := config.InitMongo(); err != nil {
				return nil, fmt.Errorf("session backend mongo: %w", err)
			}
		}
		if err := config.EnsureMongoIndexes(cfg.SessionTTL); err != nil {
			return nil, fmt.Errorf("session backend mongo indexes: %w", err)
		}
		db, err := config.MongoDatabase()
		if err != nil {
			return nil, err
		}
		return services.NewMongoSessionStore(mongorepo.NewSessionRepo(db)), nil
	default:
		return services.NewMemorySessionStore(), nil
	}
}

// LLM opens the completion provider named by LLM_PROVIDER.
func LLM(ctx context.Context, cfg *config.App) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "vertex":
		return llm.NewVertexGemini(ctx, cfg.GCPProject, cfg.GCPLocation, cfg.LLMModel, cfg.GoogleCredentialsFile)
	case "gemini":
		return llm.NewGemini(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}

// LinkSecret returns LINK_SECRET, or a random per-process secret when it is
// unset. Links signed with a random secret stop verifying after a restart.
func LinkSecret(cfg *config.App, log *logrus.Logger) string {
	if cfg.LinkSecret != "" {
		return cfg.LinkSecret
	}
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	log.Warn("LINK_SECRET not set; using a random secret, interview links will not survive a restart")
	return hex.EncodeToString(b)
}
