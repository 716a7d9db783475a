package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings for the coordinator.
type Config struct {
	MongoURI  string
	Database  string
	RedisAddr string
	Port      string

	JWTSecret    string
	HostUsername string
	HostPassword string

	// Privileged override identities with authority over any session,
	// injected instead of hardcoded so the authority check stays testable.
	SuperHostIDs    []string
	SuperHostEmails []string
	SuperHostNames  []string

	HeartbeatInterval time.Duration
	StaleThreshold    time.Duration
	PollInterval      time.Duration
}

// Load reads configuration from the environment, picking up a .env file if
// one is present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		MongoURI:  getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database:  getEnv("MONGO_DATABASE", "classbattle"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		Port:      getEnv("PORT", "8080"),

		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-in-production"),
		HostUsername: getEnv("HOST_USERNAME", "teacher"),
		HostPassword: getEnv("HOST_PASSWORD", "password123"),

		SuperHostIDs:    splitList(os.Getenv("SUPER_HOST_IDS")),
		SuperHostEmails: splitList(os.Getenv("SUPER_HOST_EMAILS")),
		SuperHostNames:  splitList(os.Getenv("SUPER_HOST_NAMES")),

		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 10*time.Second),
		StaleThreshold:    getEnvDuration("STALE_THRESHOLD", 30*time.Second),
		PollInterval:      getEnvDuration("POLL_INTERVAL", 2*time.Second),
	}
}

// Validate rejects interval combinations that would produce false-positive
// disconnects. The stale threshold must exceed the heartbeat interval by at
// least 2x so one delayed heartbeat does not read as a disconnect.
func (c *Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %s", c.HeartbeatInterval)
	}
	if c.StaleThreshold < 2*c.HeartbeatInterval {
		return fmt.Errorf("stale threshold %s must be at least twice the heartbeat interval %s",
			c.StaleThreshold, c.HeartbeatInterval)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
