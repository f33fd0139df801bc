package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
smb:
  local_root: /mnt/shared_drives
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Crawl.MaxDepth != 10 {
		t.Errorf("MaxDepth = %d, want 10", cfg.Crawl.MaxDepth)
	}
	if cfg.Crawl.FetchRetries != 2 {
		t.Errorf("FetchRetries = %d, want 2", cfg.Crawl.FetchRetries)
	}
	if cfg.Pipeline.WorkerPoolSize != 4 {
		t.Errorf("WorkerPoolSize = %d, want 4", cfg.Pipeline.WorkerPoolSize)
	}
	if cfg.Pipeline.MaxFileSizeBytes != 50*1024*1024 {
		t.Errorf("MaxFileSizeBytes = %d", cfg.Pipeline.MaxFileSizeBytes)
	}
	if len(cfg.Pipeline.AllowedExtensions) == 0 {
		t.Error("AllowedExtensions should have defaults")
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("Dimensions = %d, want 384", cfg.Embedding.Dimensions)
	}
	if cfg.Status.WriteIntervalSeconds != 2 {
		t.Errorf("WriteIntervalSeconds = %v, want 2", cfg.Status.WriteIntervalSeconds)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.SMB.LocalRoot != "/mnt/shared_drives" {
		t.Errorf("LocalRoot = %q", cfg.SMB.LocalRoot)
	}
}

func TestLoadExpandsRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: ./data/cache.db
status:
  path: ./status.json
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	want := filepath.Join(dir, "data", "cache.db")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Storage.DatabasePath, want)
	}
	if cfg.Status.Path != filepath.Join(dir, "status.json") {
		t.Errorf("Status.Path = %q", cfg.Status.Path)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.SMB.Shares = []string{"docs", "media"}
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(loaded.SMB.Shares) != 2 || loaded.SMB.Shares[0] != "docs" {
		t.Errorf("Shares = %v", loaded.SMB.Shares)
	}
}

func TestInboxExtensionsDefaultToPipeline(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.AllowedExtensions = []string{".txt"}
	ApplyDefaults(cfg)
	if len(cfg.Inbox.Extensions) != 1 || cfg.Inbox.Extensions[0] != ".txt" {
		t.Errorf("Inbox.Extensions = %v", cfg.Inbox.Extensions)
	}
}
