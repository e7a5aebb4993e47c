package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	// AuthSecret signs and verifies the bearer tokens minted by the
	// account service. Required unless DevMode is on.
	AuthSecret string
	DevMode    bool

	TicketTTL             time.Duration
	TicketJanitorInterval time.Duration

	SendBufferSize int
	HistoryLimit   int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:              envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:      envOrDefault("APP_METRICS_NAMESPACE", "tutorhub"),
		AuthSecret:            strings.TrimSpace(os.Getenv("APP_AUTH_SECRET")),
		DatabaseURL:           strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ShutdownTimeout:       15 * time.Second,
		TicketTTL:             60 * time.Second,
		TicketJanitorInterval: 30 * time.Second,
		SendBufferSize:        64,
		HistoryLimit:          50,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TicketTTL, err = durationFromEnv("APP_TICKET_TTL", cfg.TicketTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.TicketJanitorInterval, err = durationFromEnv("APP_TICKET_JANITOR_INTERVAL", cfg.TicketJanitorInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.SendBufferSize, err = intFromEnv("APP_SEND_BUFFER_SIZE", cfg.SendBufferSize)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("APP_HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.DevMode, err = boolFromEnv("APP_DEV_MODE", cfg.DevMode)
	if err != nil {
		return Config{}, err
	}

	if cfg.TicketTTL < time.Second {
		return Config{}, fmt.Errorf("APP_TICKET_TTL must be at least 1s")
	}
	if cfg.SendBufferSize <= 0 {
		return Config{}, fmt.Errorf("APP_SEND_BUFFER_SIZE must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_LIMIT must be positive")
	}
	if cfg.AuthSecret == "" && !cfg.DevMode {
		return Config{}, fmt.Errorf("APP_AUTH_SECRET is required (or set APP_DEV_MODE=1)")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
