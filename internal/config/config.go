// Package config collects every environment-variable-driven setting a
// kvsync process needs into a single struct, following the teacher's
// getenv/mustGetenv idiom but gathering the scattered calls into one
// place instead of reading os.Getenv throughout main.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dreamware/kvsync/internal/service"
)

// Backend names the adapter a process should construct.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendHTTPSQL  Backend = "httpsql"
	BackendRedis    Backend = "redis"
)

// Config is every setting a kvsync server process reads at startup.
type Config struct {
	// Backend selects which adapter to construct; DSN is interpreted
	// according to Backend (a file path for sqlite, a connection
	// string for postgres, a URL for httpsql, a host:port for redis).
	Backend Backend
	DSN     string

	ListenAddr string
	LogLevel   string

	Limits service.Limits

	// DefaultTenantID and DefaultNamespace backstop the identity
	// middleware when a request omits the corresponding header.
	DefaultTenantID  string
	DefaultNamespace string

	ReadinessInterval time.Duration
	ReadinessStaleAge time.Duration
}

// FromEnv builds a Config from the process environment, applying the
// same defaults spec.md assigns each setting.
func FromEnv() (Config, error) {
	limits := service.DefaultLimits()

	cfg := Config{
		Backend:           Backend(getenv("KVSYNC_BACKEND", string(BackendMemory))),
		DSN:               getenv("KVSYNC_DSN", ""),
		ListenAddr:        getenv("KVSYNC_LISTEN_ADDR", ":8080"),
		LogLevel:          getenv("KVSYNC_LOG_LEVEL", "info"),
		Limits:            limits,
		DefaultTenantID:   getenv("KVSYNC_DEFAULT_TENANT_ID", ""),
		DefaultNamespace:  getenv("KVSYNC_DEFAULT_NAMESPACE", ""),
		ReadinessInterval: 5 * time.Second,
		ReadinessStaleAge: 15 * time.Second,
	}

	var err error
	if cfg.Limits.MaxKeyLength, err = getenvInt("KVSYNC_MAX_KEY_LENGTH", limits.MaxKeyLength); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxValueBytes, err = getenvInt("KVSYNC_MAX_VALUE_BYTES", limits.MaxValueBytes); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxBatchSize, err = getenvInt("KVSYNC_MAX_BATCH_SIZE", limits.MaxBatchSize); err != nil {
		return Config{}, err
	}
	if cfg.Limits.MaxListLimit, err = getenvInt("KVSYNC_MAX_LIST_LIMIT", limits.MaxListLimit); err != nil {
		return Config{}, err
	}

	switch cfg.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres, BackendHTTPSQL, BackendRedis:
	default:
		return Config{}, fmt.Errorf("unknown KVSYNC_BACKEND %q", cfg.Backend)
	}
	if cfg.Backend != BackendMemory && cfg.DSN == "" {
		return Config{}, fmt.Errorf("KVSYNC_DSN is required for backend %q", cfg.Backend)
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}
