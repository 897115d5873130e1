package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends selectable through storage.backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	Storage struct {
		// Backend is memory, redis, postgres or sqlite. Empty picks the first
		// configured of postgres, redis, then memory.
		Backend   string `yaml:"backend"`
		Namespace string `yaml:"namespace"`
	} `yaml:"storage"`
	Catalog struct {
		// Source is empty (embedded), a file path, s3://bucket/key or "postgres".
		Source string `yaml:"source"`
		TTL    string `yaml:"ttl"`
	} `yaml:"catalog"`
	S3 struct {
		Region          string `yaml:"region"`
		Endpoint        string `yaml:"endpoint"`
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"s3"`
	Game struct {
		FinishDelay string `yaml:"finish_delay"`
		SessionTTL  string `yaml:"session_ttl"`
	} `yaml:"game"`
}

// Default is the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.SQLite.Path = "flagquiz.db"
	cfg.Redis.TTL = "30m"
	cfg.Catalog.TTL = "10m"
	cfg.Game.FinishDelay = "1s"
	cfg.Game.SessionTTL = "30m"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ResolvedBackend applies the storage.backend fallback order.
func (c Config) ResolvedBackend() string {
	switch {
	case c.Storage.Backend != "":
		return c.Storage.Backend
	case c.Postgres.URL != "":
		return BackendPostgres
	case c.Redis.Addr != "":
		return BackendRedis
	}
	return BackendMemory
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
