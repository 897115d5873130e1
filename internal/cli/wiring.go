package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/catalog"
	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/infra/memory"
	pginfra "flag-quiz-service/internal/infra/postgres"
	redisinfra "flag-quiz-service/internal/infra/redis"
	s3infra "flag-quiz-service/internal/infra/s3"
	sqliteinfra "flag-quiz-service/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// runtime holds the connections behind a QuizService.
type runtime struct {
	service *app.QuizService
	redis   *redis.Client
	pool    *pgxpool.Pool
	closers []func()
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// buildRuntime connects the configured backends and assembles the service.
func buildRuntime(ctx context.Context, cfg config.Config, opts ...app.Option) (*runtime, error) {
	rt := &runtime{}

	if cfg.Redis.Addr != "" {
		rt.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		rt.closers = append(rt.closers, func() { _ = rt.redis.Close() })
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.pool = pool
		rt.closers = append(rt.closers, pool.Close)
	}

	kv, err := rt.kvStore(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}

	loader, err := rt.catalogLoader(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)

	var catalogs app.CatalogRepository
	var sessions app.SessionRepository
	if rt.redis != nil {
		catalogs = redisinfra.NewCatalogRepository(rt.redis, loader, catalogTTL)
		sessions = redisinfra.NewSessionStore(rt.redis, config.TTLDuration(cfg.Redis.TTL, 30*time.Minute))
	} else {
		catalogs = memory.NewCatalogRepository(loader, catalogTTL)
		sessions = memory.NewSessionStore()
	}

	opts = append([]app.Option{
		app.WithFinishDelay(config.TTLDuration(cfg.Game.FinishDelay, time.Second)),
	}, opts...)
	rt.service = app.NewQuizService(sessions, catalogs, kv, cfg.Storage.Namespace, opts...)
	return rt, nil
}

func (rt *runtime) kvStore(cfg config.Config) (app.KVStore, error) {
	backend := cfg.ResolvedBackend()
	log.Debug().Str("backend", backend).Msg("selecting storage backend")
	switch backend {
	case config.BackendMemory:
		return memory.NewKVStore(), nil
	case config.BackendRedis:
		if rt.redis == nil {
			return nil, fmt.Errorf("storage backend redis: redis.addr not configured")
		}
		return redisinfra.NewKVStore(rt.redis), nil
	case config.BackendPostgres:
		if rt.pool == nil {
			return nil, fmt.Errorf("storage backend postgres: postgres.url not configured")
		}
		return pginfra.NewKVStore(rt.pool), nil
	case config.BackendSQLite:
		store, err := sqliteinfra.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = store.Close() })
		return store, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", backend)
}

func (rt *runtime) catalogLoader(ctx context.Context, cfg config.Config) (catalog.Loader, error) {
	source := strings.TrimSpace(cfg.Catalog.Source)
	switch {
	case source == "":
		c, err := catalog.Default()
		if err != nil {
			return nil, err
		}
		return memory.NewStaticCatalogLoader(c), nil
	case source == "postgres":
		if rt.pool == nil {
			return nil, fmt.Errorf("catalog source postgres: postgres.url not configured")
		}
		return pginfra.NewCatalogLoader(rt.pool), nil
	case strings.HasPrefix(source, "s3://"):
		return s3infra.NewCatalogLoader(ctx, source, s3infra.Options{
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	}
	return catalog.NewFileLoader(source), nil
}

// loadLocalConfig is for the terminal commands: with nothing configured they
// keep records in the SQLite file so they survive between runs.
func loadLocalConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if cfg.ResolvedBackend() == config.BackendMemory && cfg.Storage.Backend == "" {
		cfg.Storage.Backend = config.BackendSQLite
	}
	return cfg, nil
}
