package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	HTTPAddr   string        // "127.0.0.1:8087"
	DBPath     string        // sqlite file path
	ConfigFile string        // path to mentor.yaml
	AgeKeyPath string        // path to age identity file
	Timeout    time.Duration // per backend attempt
	LogLevel   slog.Level
}

// defaultDataPath returns ~/.mentor/<filename>, falling back to a
// CWD-relative path if the home directory can't be resolved.
func defaultDataPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filename
	}
	return filepath.Join(home, ".mentor", filename)
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddr:   envOr("MENTOR_HTTP_ADDR", "127.0.0.1:8087"),
		DBPath:     envOr("MENTOR_DB_PATH", defaultDataPath("mentor.db")),
		ConfigFile: envOr("MENTOR_CONFIG", defaultDataPath("mentor.yaml")),
		AgeKeyPath: envOr("MENTOR_AGE_KEY", defaultDataPath("key.age")),
		Timeout:    parseTimeoutSec(envOr("MENTOR_TIMEOUT_SEC", "10")),
		LogLevel:   parseLogLevel(envOr("MENTOR_LOG_LEVEL", "info")),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseTimeoutSec(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n) * time.Second
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
