// Package config loads the service settings from .env files and the
// process environment. Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Leaderboard backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds every tunable of the server process.
type Config struct {
	Addr     string       // CAMBIO_ADDR
	LogLevel logrus.Level // CAMBIO_LOG_LEVEL

	Leaderboard   string // CAMBIO_LEADERBOARD: memory, redis or postgres
	RedisAddr     string // REDIS_ADDR
	RedisPassword string // REDIS_PASSWORD
	RedisDB       int    // REDIS_DB
	DatabaseURL   string // DATABASE_URL

	Build         string        // CAMBIO_BUILD, attached to submitted scores
	SubmitTimeout time.Duration // CAMBIO_SUBMIT_TIMEOUT_MS
	TickInterval  time.Duration // CAMBIO_TICK_MS, session clock resolution
	SessionTTL    time.Duration // CAMBIO_SESSION_TTL_MIN, idle sessions are pruned after this
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:          ":8080",
		LogLevel:      logrus.InfoLevel,
		Leaderboard:   BackendMemory,
		RedisAddr:     "localhost:6379",
		Build:         "dev",
		SubmitTimeout: 5 * time.Second,
		TickInterval:  50 * time.Millisecond,
		SessionTTL:    time.Hour,
	}
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Missing files are skipped; empty variables count as unset.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	fileVars := make(map[string]string)
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: read %s: %w", f, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}
	return parse(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

func parse(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		*dst = n
		return nil
	}
	dur := func(key string, unit time.Duration, dst *time.Duration) error {
		n := -1
		if err := num(key, &n); err != nil {
			return err
		}
		if n == -1 {
			return nil
		}
		if n <= 0 {
			return fmt.Errorf("config: %s must be positive, got %d", key, n)
		}
		*dst = time.Duration(n) * unit
		return nil
	}

	str("CAMBIO_ADDR", &cfg.Addr)
	str("CAMBIO_LEADERBOARD", &cfg.Leaderboard)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("CAMBIO_BUILD", &cfg.Build)

	if err := num("REDIS_DB", &cfg.RedisDB); err != nil {
		return Config{}, err
	}
	if err := dur("CAMBIO_SUBMIT_TIMEOUT_MS", time.Millisecond, &cfg.SubmitTimeout); err != nil {
		return Config{}, err
	}
	if err := dur("CAMBIO_TICK_MS", time.Millisecond, &cfg.TickInterval); err != nil {
		return Config{}, err
	}
	if err := dur("CAMBIO_SESSION_TTL_MIN", time.Minute, &cfg.SessionTTL); err != nil {
		return Config{}, err
	}

	if v, ok := lookup("CAMBIO_LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		lvl, err := logrus.ParseLevel(strings.TrimSpace(v))
		if err != nil {
			return Config{}, fmt.Errorf("config: CAMBIO_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = lvl
	}

	cfg.Leaderboard = strings.ToLower(cfg.Leaderboard)
	switch cfg.Leaderboard {
	case BackendMemory, BackendRedis:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("config: DATABASE_URL is required for the postgres leaderboard")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown leaderboard backend %q", cfg.Leaderboard)
	}
	return cfg, nil
}
