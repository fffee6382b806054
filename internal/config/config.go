// Package config reads the gateway's settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// ParamPrefix roots the SSM parameters of the inquiry assistant. Empty
	// disables the assistant.
	ParamPrefix string

	// SubmissionsTable enables the DynamoDB submission log when set.
	SubmissionsTable string

	// RoutesFile overrides the embedded chat routing table.
	RoutesFile string

	SubmitDelay  time.Duration
	SubmitJitter time.Duration
	ChatDelay    time.Duration

	MaxMessageLength int
	MaxQueryLength   int

	LogLevel slog.Level
}

// Load reads the configuration. Nothing is required; malformed numbers fall
// back to their defaults.
func Load() Config {
	return Config{
		ParamPrefix:      strings.TrimRight(getEnv("PARAM_PREFIX", ""), "/"),
		SubmissionsTable: getEnv("SUBMISSIONS_TABLE", ""),
		RoutesFile:       getEnv("ROUTES_FILE", ""),
		SubmitDelay:      getEnvMillis("SUBMIT_DELAY_MS", 1000),
		SubmitJitter:     getEnvMillis("SUBMIT_JITTER_MS", 0),
		ChatDelay:        getEnvMillis("CHAT_DELAY_MS", 1500),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 1000),
		MaxQueryLength:   getEnvInt("MAX_QUERY_LENGTH", 500),
		LogLevel:         ParseLevel(getEnv("LOG_LEVEL", "info")),
	}
}

// InquiryEnabled reports whether the generative assistant can be wired.
func (c Config) InquiryEnabled() bool {
	return c.ParamPrefix != ""
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && n >= 0 {
			return n
		}
	}
	return defaultVal
}

func getEnvMillis(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMS)) * time.Millisecond
}
