// Package config loads and hot-reloads the daemon's typed configuration
// value from environment variables, with an optional YAML file providing
// lower-precedence defaults.
package config

import "time"

// Config is the single typed configuration value the lifecycle controller
// constructs at startup and republishes on every reload.
type Config struct {
	SourceDir string
	TargetDir string

	ScanIntervalSeconds int
	VideoExtensions     []string
	MinFileSizeMB       int
	ScanExcludeTarget   bool
	ScanFollowSymlinks  bool

	WorkerCount     int
	TMDBConcurrency int
	TMDBLanguage    string

	EnableTMDB bool
	EnableLLM  bool

	LogLevel string

	AnalyserBaseURL string
	AnalyserTimeout time.Duration

	CatalogueBaseURL string
	CatalogueTimeout time.Duration

	DataDir string // holds the registry database and, optionally, config.yaml
}

// Defaults returns the built-in configuration used when neither a file nor
// an environment variable supplies a value.
func Defaults() Config {
	return Config{
		ScanIntervalSeconds: 300,
		VideoExtensions:     []string{".mkv", ".mp4", ".avi", ".m4v"},
		MinFileSizeMB:       0,
		ScanExcludeTarget:   true,
		ScanFollowSymlinks:  false,
		WorkerCount:         4,
		TMDBConcurrency:     10,
		TMDBLanguage:        "en-US",
		EnableTMDB:          true,
		EnableLLM:           true,
		LogLevel:            "info",
		AnalyserTimeout:     30 * time.Second,
		CatalogueTimeout:    15 * time.Second,
		DataDir:             "./data",
	}
}

// ExtensionSet returns VideoExtensions as a lower-cased lookup set for the
// prober's allow-list filter.
func (c Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.VideoExtensions))
	for _, ext := range c.VideoExtensions {
		set[normalizeExt(ext)] = struct{}{}
	}
	return set
}

func normalizeExt(ext string) string {
	if ext == "" {
		return ext
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		b := ext[i]
		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}
		out[i] = b
	}
	return string(out)
}

// MinFileSizeBytes converts MinFileSizeMB to bytes for the prober.
func (c Config) MinFileSizeBytes() uint64 {
	return uint64(c.MinFileSizeMB) * 1024 * 1024
}
