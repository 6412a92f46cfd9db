package main

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"github.com/marzelet/intern-registry/internal/core/service"
	"github.com/marzelet/intern-registry/internal/infrastructure/db/mongo"
	"github.com/marzelet/intern-registry/internal/infrastructure/db/redis"
	"github.com/marzelet/intern-registry/internal/infrastructure/queue"
	"github.com/marzelet/intern-registry/internal/pkg/config"
	"github.com/marzelet/intern-registry/pkg/logger"
)

const serviceName = "intern-registry"

// app holds the connected stores and the services built on them.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	mongoClient *mongodriver.Client
	db          *mongodriver.Database
	rdb         *goredis.Client
	dispatcher  *queue.Dispatcher

	sessions  *service.SessionService
	registry  *service.RegistryService
	drafts    *service.DraftService
	dashboard *service.DashboardService
	exporter  *service.ExportService
}

// loadConfig reads the environment and initialises the logger singleton.
func loadConfig(ctx context.Context) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Logger{}, err
	}
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})
	return cfg, log, nil
}

// newApp connects MongoDB and Redis and wires every service.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	policy, err := service.ParseKeyPolicy(cfg.Registry.IdentityKeyPolicy)
	if err != nil {
		return nil, err
	}
	adminHash, err := adminPassphraseHash(cfg.Auth)
	if err != nil {
		return nil, err
	}

	client, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
		Timeout:  cfg.Registry.StoreTimeout,
	})
	if err != nil {
		return nil, err
	}
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:    cfg.Redis.Addr,
		DB:      cfg.Redis.DB,
		Timeout: cfg.Registry.StoreTimeout,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	a := &app{cfg: cfg, log: log, mongoClient: client, db: db, rdb: rdb}
	a.dispatcher = queue.NewDispatcher(cfg.Registry.UpsertWorkers, logger.Component("dispatcher"))

	resolver := service.NewIdentityResolver(policy)
	a.sessions = service.NewSessionService(
		mongo.NewAccountRepository(db),
		redis.NewSessionStore(rdb),
		resolver,
		service.SessionConfig{
			AdminPassphraseHash: adminHash,
			JWTSecret:           cfg.JWTSecret,
			TTL:                 cfg.Auth.SessionTTL,
		},
		logger.Component("sessions"),
	)
	a.registry = service.NewRegistryService(
		mongo.NewProfileRepository(db),
		resolver,
		logger.Component("registry"),
		service.WithMirror(redis.NewProfileMirror(rdb)),
		service.WithSerializer(a.dispatcher),
		service.WithStoreTimeout(cfg.Registry.StoreTimeout),
	)
	a.drafts = service.NewDraftService(
		redis.NewDraftStore(rdb),
		a.registry,
		resolver,
		cfg.Registry.DraftTTL,
		logger.Component("drafts"),
	)
	a.dashboard = service.NewDashboardService(a.registry)
	a.exporter = service.NewExportService(a.registry, logger.Component("export"))

	log.Info().
		Str("identity_key_policy", string(policy)).
		Int("upsert_workers", cfg.Registry.UpsertWorkers).
		Msg("services ready")
	return a, nil
}

// close releases both store connections.
func (a *app) close(ctx context.Context) {
	if err := a.rdb.Close(); err != nil {
		a.log.Warn().Err(err).Msg("redis close")
	}
	if err := a.mongoClient.Disconnect(ctx); err != nil {
		a.log.Warn().Err(err).Msg("mongo disconnect")
	}
}

func adminPassphraseHash(cfg config.AuthConfig) (string, error) {
	if cfg.AdminPassphraseHash != "" {
		return cfg.AdminPassphraseHash, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash admin passphrase: %w", err)
	}
	return string(hash), nil
}
