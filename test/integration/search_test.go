// Package integration exercises the full ingest-then-search flow over real
// storage and indices.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/config"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/embedding"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/index"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/ingest"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/keyword"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/smb"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/vector"
)

func TestIntegration_IngestAndSearch(t *testing.T) {
	shares := t.TempDir()
	for rel, content := range map[string]string{
		"docs/ml.txt":      "machine learning algorithms learn from data",
		"docs/search.txt":  "semantic search uses embeddings to find similar content",
		"archive/misc.txt": "grocery list and reminders",
	} {
		p := filepath.Join(shares, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	dir := t.TempDir()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Crawl.MaxDepth = 3
	cfg.Pipeline.AllowedExtensions = []string{".txt"}
	cfg.Pipeline.WorkerPoolSize = 2
	cfg.Storage.DatabasePath = filepath.Join(dir, "cache.db")
	cfg.Storage.VectorIndexPath = filepath.Join(dir, "vectors.json")
	cfg.Storage.KeywordIndexPath = filepath.Join(dir, "bleve")
	cfg.Status.Path = filepath.Join(dir, "status.json")
	cfg.Status.WriteIntervalSeconds = 3600

	client, err := smb.NewDirClient(shares)
	if err != nil {
		t.Fatal(err)
	}
	metadata, err := cache.NewSQLiteCache(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	defer metadata.Close()

	vecIndex, err := vector.NewMemoryIndex(64)
	if err != nil {
		t.Fatal(err)
	}
	kwIndex, err := keyword.NewBleveIndex(cfg.Storage.KeywordIndexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer kwIndex.Close()

	idx := index.NewSearchIndex(embedding.NewHashEmbedder(64), vecIndex, kwIndex, metadata)
	ctx := context.Background()

	runStats := stats.NewRunStats()
	ingestor := ingest.New(client, metadata, idx, runStats, cfg)
	if err := ingestor.Run(ctx); err != nil {
		t.Fatal(err)
	}

	snap := runStats.Snapshot()
	if snap.FilesVectorized != 3 {
		t.Fatalf("FilesVectorized = %d, want 3", snap.FilesVectorized)
	}

	resp, err := idx.Query(ctx, "machine learning algorithms learn from data", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp) == 0 {
		t.Fatal("expected at least 1 semantic result")
	}
	if resp[0].Meta.Path != "ml.txt" {
		t.Errorf("top result = %s, want ml.txt", resp[0].Meta.Path)
	}

	kwResults, err := idx.KeywordQuery(ctx, "embeddings", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(kwResults) != 1 || kwResults[0].Meta.Path != "search.txt" {
		t.Errorf("keyword results = %+v", kwResults)
	}

	// A record for every discovered file, all terminal.
	count, err := metadata.CountByState(ctx, models.StateVectorized)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("vectorized records = %d, want 3", count)
	}
}
