// Package config provides runtime configuration values for the client and stub backend.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds configuration knobs for the storefront client.
type Config struct {
	APIURL         string
	StateBackend   string
	StatePath      string
	StateNamespace string
	DatabaseURL    string
	HTTPTimeout    time.Duration
	ToastDisplay   time.Duration
	ToastExit      time.Duration
	LogLevel       string
	LogFormat      string
}

// StubConfig holds configuration for the stub backend.
type StubConfig struct {
	Addr            string
	JWTSecret       string
	DatabaseURL     string
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "shopfront", "state.json")
}

// Load collects client configuration from environment with defaults.
func Load() Config {
	backend := getenv("SHOP_STATE_BACKEND", BackendFile)
	switch backend {
	case BackendFile, BackendMemory, BackendPostgres:
	default:
		backend = BackendFile
	}
	return Config{
		APIURL:         getenv("SHOP_API_URL", "http://localhost:8080/api"),
		StateBackend:   backend,
		StatePath:      getenv("SHOP_STATE_PATH", defaultStatePath()),
		StateNamespace: getenv("SHOP_STATE_NAMESPACE", "default"),
		DatabaseURL:    getenv("DATABASE_URL", ""),
		HTTPTimeout:    durenvms("SHOP_HTTP_TIMEOUT_MS", 15000),
		ToastDisplay:   durenvms("SHOP_TOAST_MS", 3000),
		ToastExit:      durenvms("SHOP_TOAST_EXIT_MS", 300),
		LogLevel:       getenv("LOG_LEVEL", "warn"),
		LogFormat:      getenv("LOG_FORMAT", "text"),
	}
}

// LoadStub collects stub backend configuration from environment with defaults.
func LoadStub() StubConfig {
	return StubConfig{
		Addr:            getenv("STUB_ADDR", ":8080"),
		JWTSecret:       getenv("JWT_SECRET", "dev-secret"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 10),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogFormat:       getenv("LOG_FORMAT", "json"),
	}
}
