package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"flag-quiz-service/internal/catalog"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const catalogKey = "flagquiz:catalog"

// CatalogRepository caches the catalog JSON in Redis and falls back to a loader
// on cache miss, so instances share one copy of a slow source.
type CatalogRepository struct {
	client *redis.Client
	loader catalog.Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCatalogRepository(client *redis.Client, loader catalog.Loader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if c, ok := r.cached(ctx); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(catalogKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx); ok {
			return c, nil
		}

		c, err := r.loader.LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		if err := r.client.Set(ctx, catalogKey, raw, r.ttlWithJitter()).Err(); err != nil {
			log.Warn().Err(err).Msg("cache catalog in redis")
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*catalog.Catalog), nil
}

func (r *CatalogRepository) cached(ctx context.Context) (*catalog.Catalog, bool) {
	raw, err := r.client.Get(ctx, catalogKey).Bytes()
	if err != nil || len(raw) == 0 {
		return nil, false
	}
	c, err := catalog.Parse(raw)
	if err != nil {
		log.Warn().Err(err).Msg("discarding cached catalog")
		return nil, false
	}
	return c, true
}

func (r *CatalogRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
