// Package config provides configuration loading and structs for the Nexus ingestion pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	SMB       SMBConfig       `yaml:"smb"`
	Crawl     CrawlConfig     `yaml:"crawl"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Status    StatusConfig    `yaml:"status"`
	Server    ServerConfig    `yaml:"server"`
	Inbox     InboxConfig     `yaml:"inbox"`
}

// SMBConfig holds remote share server settings. Credentials are passed through
// to the share client as-is.
type SMBConfig struct {
	Server   string `yaml:"server"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// LocalRoot, when set, backs shares with subdirectories of a local
	// directory (mounted shares or a test tree) instead of a network server.
	LocalRoot string `yaml:"local_root"`
	// Shares restricts the run to the named shares; empty means all visible shares.
	Shares []string `yaml:"shares"`
}

// CrawlConfig holds traversal settings.
type CrawlConfig struct {
	MaxDepth     int `yaml:"max_depth"`
	FetchRetries int `yaml:"fetch_retries"`
}

// PipelineConfig holds content processing settings.
type PipelineConfig struct {
	AllowedExtensions []string `yaml:"allowed_extensions"`
	MaxFileSizeBytes  int64    `yaml:"max_file_size_bytes"`
	WorkerPoolSize    int      `yaml:"worker_pool_size"`
}

// StorageConfig holds paths for the cache database and indices.
type StorageConfig struct {
	DatabasePath     string `yaml:"database_path"`
	VectorIndexPath  string `yaml:"vector_index_path"`
	KeywordIndexPath string `yaml:"keyword_index_path"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	ModelPath  string `yaml:"model_path"`
	Dimensions int    `yaml:"dimensions"`
	MaxTokens  int    `yaml:"max_tokens"`
	CacheSize  int    `yaml:"cache_size"`
}

// StatusConfig holds status artifact settings.
type StatusConfig struct {
	Path                 string  `yaml:"path"`
	WriteIntervalSeconds float64 `yaml:"write_interval_seconds"`
}

// ServerConfig holds dashboard HTTP API settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// InboxConfig holds local drop-folder settings. Files placed in Directory are
// ingested through the pipeline under the pseudo-share "inbox".
type InboxConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.KeywordIndexPath = expandPath(cfg.Storage.KeywordIndexPath, configDir)
	cfg.Status.Path = expandPath(cfg.Status.Path, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}
	if cfg.SMB.LocalRoot != "" {
		cfg.SMB.LocalRoot = expandPath(cfg.SMB.LocalRoot, configDir)
	}
	if cfg.Inbox.Directory != "" {
		cfg.Inbox.Directory = expandPath(cfg.Inbox.Directory, configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
