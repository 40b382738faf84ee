// Package config loads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the settings for the serve command.
type Config struct {
	Port            int
	APIKey          string
	Model           string
	CORSOrigins     []string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Load reads configuration from the environment, applying defaults for
// everything except the API key.
func Load() *Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))

	pollInterval := 2 * time.Second
	if v := os.Getenv("VLINGO_POLL_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			pollInterval = time.Duration(secs) * time.Second
		}
	}

	maxPollAttempts := 150
	if v := os.Getenv("VLINGO_MAX_POLL_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxPollAttempts = n
		}
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:            port,
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		Model:           getEnv("VLINGO_MODEL", "gemini-2.5-flash"),
		CORSOrigins:     corsOrigins,
		PollInterval:    pollInterval,
		MaxPollAttempts: maxPollAttempts,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
