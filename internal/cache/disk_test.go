package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSized(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "cache.db")
	vectors := filepath.Join(dir, "vectors.json")
	bleve := filepath.Join(dir, "bleve")
	writeSized(t, db, 100)
	writeSized(t, vectors, 40)
	writeSized(t, filepath.Join(bleve, "index", "segment.zap"), 7)
	writeSized(t, filepath.Join(bleve, "store.bolt"), 3)

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{db}, 100},
		{"directory recursed", []string{bleve}, 10},
		{"all storage paths", []string{db, vectors, bleve}, 150},
		{"missing path skipped", []string{db, filepath.Join(dir, "absent")}, 100},
		{"empty path skipped", []string{"", vectors}, 40},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatalf("DiskUsageBytes error: %v", err)
			}
			if got != tt.want {
				t.Errorf("DiskUsageBytes = %d, want %d", got, tt.want)
			}
		})
	}
}
