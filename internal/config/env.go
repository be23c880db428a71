package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"medialinkd/internal/log"
)

// ParseString reads a string from an environment variable or returns
// defaultValue, logging the source for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	if v == "" {
		logger.Debug().Str("key", key).Str("default", defaultValue).Str("source", "default").Msg("using default value (environment variable is empty)")
		return defaultValue
	}
	logger.Debug().Str("key", key).Str("value", v).Str("source", "environment").Msg("using environment variable")
	return v
}

// ParseInt reads an integer from an environment variable, falling back to
// defaultValue on absence or parse error.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Int("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseDuration reads a Go duration (e.g. "30s") from an environment
// variable, falling back to defaultValue on absence or parse error.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Dur("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseBool reads a boolean from an environment variable. Accepts
// true/false/1/0/yes/no, case-insensitive.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Bool("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		logger.Debug().Str("key", key).Bool("value", true).Str("source", "environment").Msg("using environment variable")
		return true
	case "false", "0", "no":
		logger.Debug().Str("key", key).Bool("value", false).Str("source", "environment").Msg("using environment variable")
		return false
	default:
		logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseStringList reads a comma-separated list from an environment
// variable, trimming whitespace around each element.
func ParseStringList(key string, defaultValue []string) []string {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logger.Debug().Str("key", key).Strs("default", defaultValue).Str("source", "default").Msg("using default value")
		return defaultValue
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	logger.Debug().Str("key", key).Strs("value", out).Str("source", "environment").Msg("using environment variable")
	return out
}

// FromEnv builds a Config by layering environment variables over base.
func FromEnv(base Config) Config {
	c := base
	c.SourceDir = ParseString("SOURCE_DIR", c.SourceDir)
	c.TargetDir = ParseString("TARGET_DIR", c.TargetDir)
	c.ScanIntervalSeconds = ParseInt("SCAN_INTERVAL_SECONDS", c.ScanIntervalSeconds)
	c.VideoExtensions = ParseStringList("VIDEO_EXTENSIONS", c.VideoExtensions)
	c.MinFileSizeMB = ParseInt("MIN_FILE_SIZE_MB", c.MinFileSizeMB)
	c.ScanExcludeTarget = ParseBool("SCAN_EXCLUDE_TARGET_DIR", c.ScanExcludeTarget)
	c.ScanFollowSymlinks = ParseBool("SCAN_FOLLOW_SYMLINKS", c.ScanFollowSymlinks)
	c.WorkerCount = ParseInt("WORKER_COUNT", c.WorkerCount)
	c.TMDBConcurrency = ParseInt("TMDB_CONCURRENCY", c.TMDBConcurrency)
	c.TMDBLanguage = ParseString("TMDB_LANGUAGE", c.TMDBLanguage)
	c.EnableTMDB = ParseBool("ENABLE_TMDB", c.EnableTMDB)
	c.EnableLLM = ParseBool("ENABLE_LLM", c.EnableLLM)
	c.LogLevel = ParseString("LOG_LEVEL", c.LogLevel)
	c.AnalyserBaseURL = ParseString("ANALYSER_BASE_URL", c.AnalyserBaseURL)
	c.AnalyserTimeout = ParseDuration("ANALYSER_TIMEOUT", c.AnalyserTimeout)
	c.CatalogueBaseURL = ParseString("TMDB_BASE_URL", c.CatalogueBaseURL)
	c.CatalogueTimeout = ParseDuration("TMDB_TIMEOUT", c.CatalogueTimeout)
	c.DataDir = ParseString("DATA_DIR", c.DataDir)
	return c
}
