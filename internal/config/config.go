package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates the service configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Store    StoreConfig
	Activity ActivityConfig
	Feed     FeedConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	logCfg, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	activity, err := loadActivityConfig()
	if err != nil {
		return nil, err
	}

	feed, err := loadFeedConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: logCfg, Store: store, Activity: activity, Feed: feed}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}

	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value: %q", level)
	}

	return LogConfig{Level: level, Development: dev}, nil
}

// StoreConfig controls the initial contents of the book store.
type StoreConfig struct {
	Seed bool
}

func loadStoreConfig() (StoreConfig, error) {
	seed, err := parseBoolEnv("BOOKS_SEED", true)
	if err != nil {
		return StoreConfig{}, err
	}
	return StoreConfig{Seed: seed}, nil
}

// ActivityConfig describes per-user request tracking.
type ActivityConfig struct {
	Limit    int
	MaxUsers int
	RedisURL string
}

// UseRedis reports whether activity should be kept in redis instead of memory.
func (c ActivityConfig) UseRedis() bool {
	return c.RedisURL != ""
}

func loadActivityConfig() (ActivityConfig, error) {
	limit, err := parseIntEnvMin("ACTIVITY_LIMIT", 3, 1)
	if err != nil {
		return ActivityConfig{}, err
	}

	maxUsers, err := parseIntEnvMin("ACTIVITY_MAX_USERS", 1024, 1)
	if err != nil {
		return ActivityConfig{}, err
	}

	return ActivityConfig{
		Limit:    limit,
		MaxUsers: maxUsers,
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
	}, nil
}

// FeedConfig tunes the change feed.
type FeedConfig struct {
	Buffer    int
	Heartbeat time.Duration
}

func loadFeedConfig() (FeedConfig, error) {
	buffer, err := parseIntEnvMin("FEED_BUFFER", 16, 1)
	if err != nil {
		return FeedConfig{}, err
	}

	seconds, err := parseIntEnvMin("FEED_HEARTBEAT_SECONDS", 15, 1)
	if err != nil {
		return FeedConfig{}, err
	}

	return FeedConfig{Buffer: buffer, Heartbeat: time.Duration(seconds) * time.Second}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseIntEnvMin returns defaultValue when key is unset and clamps values below minimum.
func parseIntEnvMin(key string, defaultValue, minimum int) (int, error) {
	override, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if override == nil {
		return defaultValue, nil
	}
	if *override < minimum {
		return minimum, nil
	}
	return *override, nil
}
