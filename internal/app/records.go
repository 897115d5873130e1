package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Keys of the persisted records, prefixed by the configured namespace.
const (
	StatsKey       = "flagQuizStats"
	LeaderboardKey = "flagQuizLeaderboard"
	DarkModeKey    = "flagQuizDarkMode"
)

// KVStore persists JSON documents under string keys (memory, Redis, Postgres, SQLite).
// Set replaces the whole value atomically.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}

// records reads and writes whole JSON documents in a KVStore.
type records struct {
	kv        KVStore
	namespace string
}

func (r records) key(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + ":" + name
}

// load decodes the document at name into dst. A missing or undecodable
// document reports false so callers fall back to their default.
func (r records) load(ctx context.Context, name string, dst any) (bool, error) {
	key := r.key(name)
	raw, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("discarding corrupt record")
		return false, nil
	}
	return true, nil
}

func (r records) save(ctx context.Context, name string, value any) error {
	key := r.key(name)
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
