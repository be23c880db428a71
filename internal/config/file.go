package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"medialinkd/internal/log"
)

// fileConfig mirrors Config but with every field optional, so a config.yaml
// only needs to set the keys it wants to override from Defaults().
type fileConfig struct {
	SourceDir string `yaml:"source_dir"`
	TargetDir string `yaml:"target_dir"`

	ScanIntervalSeconds *int     `yaml:"scan_interval_seconds"`
	VideoExtensions     []string `yaml:"video_extensions"`
	MinFileSizeMB       *int     `yaml:"min_file_size_mb"`
	ScanExcludeTarget   *bool    `yaml:"scan_exclude_target_dir"`
	ScanFollowSymlinks  *bool    `yaml:"scan_follow_symlinks"`

	WorkerCount     *int   `yaml:"worker_count"`
	TMDBConcurrency *int   `yaml:"tmdb_concurrency"`
	TMDBLanguage    string `yaml:"tmdb_language"`

	EnableTMDB *bool `yaml:"enable_tmdb"`
	EnableLLM  *bool `yaml:"enable_llm"`

	LogLevel string `yaml:"log_level"`

	AnalyserBaseURL string `yaml:"analyser_base_url"`
	AnalyserTimeout string `yaml:"analyser_timeout"`

	CatalogueBaseURL string `yaml:"tmdb_base_url"`
	CatalogueTimeout string `yaml:"tmdb_timeout"`
}

// LoadFile reads a YAML config file and overlays its set fields onto base.
// A missing path is not an error — it simply returns base unchanged, since
// the file is an optional lower-precedence layer beneath the environment.
func LoadFile(path string, base Config) (Config, error) {
	logger := log.WithComponent("config")
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("path", path).Msg("config file not found, skipping")
			return base, nil
		}
		return base, fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var fc fileConfig
	if err := dec.Decode(&fc); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}

	c := base
	if fc.SourceDir != "" {
		c.SourceDir = fc.SourceDir
	}
	if fc.TargetDir != "" {
		c.TargetDir = fc.TargetDir
	}
	if fc.ScanIntervalSeconds != nil {
		c.ScanIntervalSeconds = *fc.ScanIntervalSeconds
	}
	if len(fc.VideoExtensions) > 0 {
		c.VideoExtensions = fc.VideoExtensions
	}
	if fc.MinFileSizeMB != nil {
		c.MinFileSizeMB = *fc.MinFileSizeMB
	}
	if fc.ScanExcludeTarget != nil {
		c.ScanExcludeTarget = *fc.ScanExcludeTarget
	}
	if fc.ScanFollowSymlinks != nil {
		c.ScanFollowSymlinks = *fc.ScanFollowSymlinks
	}
	if fc.WorkerCount != nil {
		c.WorkerCount = *fc.WorkerCount
	}
	if fc.TMDBConcurrency != nil {
		c.TMDBConcurrency = *fc.TMDBConcurrency
	}
	if fc.TMDBLanguage != "" {
		c.TMDBLanguage = fc.TMDBLanguage
	}
	if fc.EnableTMDB != nil {
		c.EnableTMDB = *fc.EnableTMDB
	}
	if fc.EnableLLM != nil {
		c.EnableLLM = *fc.EnableLLM
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.AnalyserBaseURL != "" {
		c.AnalyserBaseURL = fc.AnalyserBaseURL
	}
	if fc.AnalyserTimeout != "" {
		if d, err := time.ParseDuration(fc.AnalyserTimeout); err == nil {
			c.AnalyserTimeout = d
		} else {
			logger.Warn().Str("value", fc.AnalyserTimeout).Msg("invalid analyser_timeout in config file, ignoring")
		}
	}
	if fc.CatalogueBaseURL != "" {
		c.CatalogueBaseURL = fc.CatalogueBaseURL
	}
	if fc.CatalogueTimeout != "" {
		if d, err := time.ParseDuration(fc.CatalogueTimeout); err == nil {
			c.CatalogueTimeout = d
		} else {
			logger.Warn().Str("value", fc.CatalogueTimeout).Msg("invalid tmdb_timeout in config file, ignoring")
		}
	}

	logger.Info().Str("path", path).Msg("config file loaded")
	return c, nil
}

// Load applies the full precedence chain: defaults, then an optional YAML
// file, then environment variables (highest precedence), then validation.
func Load(filePath string) (Config, error) {
	c := Defaults()
	c, err := LoadFile(filePath, c)
	if err != nil {
		return Config{}, err
	}
	c = FromEnv(c)
	if err := Validate(c); err != nil {
		return Config{}, err
	}
	return c, nil
}
