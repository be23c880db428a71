package config

import "fmt"

// Validate rejects a Config that would make the pipeline unsafe or
// nonsensical to run, rather than letting it fail confusingly downstream.
func Validate(c Config) error {
	if c.SourceDir == "" {
		return fmt.Errorf("SOURCE_DIR must be set")
	}
	if c.TargetDir == "" {
		return fmt.Errorf("TARGET_DIR must be set")
	}
	if c.SourceDir == c.TargetDir {
		return fmt.Errorf("SOURCE_DIR and TARGET_DIR must differ")
	}
	if c.ScanIntervalSeconds < 1 {
		return fmt.Errorf("SCAN_INTERVAL_SECONDS must be >= 1, got %d", c.ScanIntervalSeconds)
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be >= 1, got %d", c.WorkerCount)
	}
	if c.TMDBConcurrency < 1 {
		return fmt.Errorf("TMDB_CONCURRENCY must be >= 1, got %d", c.TMDBConcurrency)
	}
	if len(c.VideoExtensions) == 0 {
		return fmt.Errorf("VIDEO_EXTENSIONS must not be empty")
	}
	if c.MinFileSizeMB < 0 {
		return fmt.Errorf("MIN_FILE_SIZE_MB must be >= 0, got %d", c.MinFileSizeMB)
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error, got %q", c.LogLevel)
	}
	if c.EnableTMDB && c.CatalogueBaseURL == "" {
		return fmt.Errorf("TMDB_BASE_URL must be set when ENABLE_TMDB is true")
	}
	if c.EnableLLM && c.AnalyserBaseURL == "" {
		return fmt.Errorf("ANALYSER_BASE_URL must be set when ENABLE_LLM is true")
	}
	return nil
}
