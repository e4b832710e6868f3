package wire

import (
	"context"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"botrelay/internal/chat/handler"
	"botrelay/internal/common"
	"botrelay/internal/config"
	"botrelay/internal/dbmongo"
	"botrelay/internal/dbmysql"
	"botrelay/internal/media"
	"botrelay/internal/notif"
	"botrelay/internal/relay"
)

const devJWTSecret = "botrelay-development-secret"

type Application struct {
	Config      *config.Config
	Log         zerolog.Logger
	DB          *gorm.DB
	Bus         *notif.EventBus
	Relay       *relay.Relay
	ChatHandler *handler.ChatHandler
	Media       *media.HTTPServer
	Auth        mux.MiddlewareFunc
}

func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	db, err := dbmysql.NewMySQL(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return db, cleanup, nil
}

func ProvideMongo(cfg *config.Config, log zerolog.Logger) (*dbmongo.MongoClient, func(), error) {
	client, err := dbmongo.NewMongoConnection(context.Background(), cfg)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("database", cfg.MongoDB.Database).Str("bucket", cfg.MongoDB.Bucket).Msg("connected to MongoDB")

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to disconnect MongoDB")
		}
	}
	return client, cleanup, nil
}

func ProvideEventBus(cfg *config.Config, log zerolog.Logger) *notif.EventBus {
	return notif.NewEventBus(cfg.Relay.Workers, cfg.Relay.QueueSize, log)
}

func ProvideLimiter(cfg *config.Config) *handler.KeyedLimiter {
	return handler.NewKeyedLimiter(cfg.Relay.InboundRatePerMinute)
}

func ProvideTokenIssuer(cfg *config.Config, log zerolog.Logger) *common.TokenIssuer {
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		log.Warn().Msg("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return common.NewTokenIssuer(secret, cfg.Auth.TokenTTL)
}

func ProvideAuthMiddleware(issuer *common.TokenIssuer) mux.MiddlewareFunc {
	return common.AuthMiddleware(issuer)
}

func ProvideRuleset(cfg *config.Config) (*relay.Ruleset, error) {
	return relay.LoadRuleset(cfg.Relay.PatternsFile)
}

func ProvideEngine(cfg *config.Config, blobs relay.BlobStore, log zerolog.Logger) *relay.Engine {
	return relay.NewEngine(cfg.Relay, blobs, log)
}

// ProvideGuard shares delivery claims through Redis when REDIS_URL is set.
func ProvideGuard(cfg *config.Config, log zerolog.Logger) (relay.Guard, func(), error) {
	if cfg.Redis.URL == "" {
		return relay.NewMemoryGuard(cfg.Relay.GuardTTL), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := relay.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("delivery guard backed by redis")

	return relay.NewRedisGuard(client, cfg.Relay.GuardTTL), func() { _ = client.Close() }, nil
}

// ProvideRelay builds the relay and subscribes it to committed messages.
func ProvideRelay(
	cfg *config.Config,
	store relay.Store,
	classifier *relay.Classifier,
	engine *relay.Engine,
	ingestor *relay.Ingestor,
	guard relay.Guard,
	bus *notif.EventBus,
	log zerolog.Logger,
) *relay.Relay {
	r := relay.NewRelay(cfg.Relay, store, classifier, engine, ingestor, guard, log)
	bus.Subscribe(r)
	return r
}
