package status

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
)

func TestWriteOnceAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	runStats := stats.NewRunStats()
	runStats.SetSharesFound(2)
	runStats.FileFound()
	runStats.FileCached()

	r := NewReporter(path, time.Second, runStats, WithRunID("run-1"))
	if err := r.WriteOnce(); err != nil {
		t.Fatalf("WriteOnce error: %v", err)
	}

	artifact, found, err := Read(path)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !found {
		t.Fatal("artifact not found after write")
	}
	if artifact.RunID != "run-1" {
		t.Errorf("RunID = %q", artifact.RunID)
	}
	if artifact.SharesFound != 2 || artifact.FilesFound != 1 || artifact.FilesCached != 1 {
		t.Errorf("artifact = %+v", artifact)
	}
}

func TestArtifactFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	r := NewReporter(path, time.Second, stats.NewRunStats())
	if err := r.WriteOnce(); err != nil {
		t.Fatalf("WriteOnce error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, field := range []string{
		"shares_found", "shares_scanned", "current_share",
		"directories_scanned", "files_found", "files_cached",
		"files_processed", "files_vectorized", "current_file",
		"errors", "elapsed_time", "files_per_second",
		"processing_rate", "processing_progress",
	} {
		if _, ok := raw[field]; !ok {
			t.Errorf("artifact missing field %q", field)
		}
	}
}

func TestReadMissingFile(t *testing.T) {
	_, found, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if found {
		t.Error("missing file reported found")
	}
}

func TestReadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Read(path); err == nil {
		t.Error("corrupt file should fail to parse")
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")
	r := NewReporter(path, time.Second, stats.NewRunStats())
	for i := 0; i < 5; i++ {
		if err := r.WriteOnce(); err != nil {
			t.Fatalf("WriteOnce error: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "status.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only status.json", names)
	}
}

func TestConcurrentReadersSeeCompleteArtifacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	runStats := stats.NewRunStats()
	r := NewReporter(path, time.Hour, runStats, WithRunID("run-live"))
	// Seed the file so every read should find a complete artifact.
	if err := r.WriteOnce(); err != nil {
		t.Fatalf("WriteOnce error: %v", err)
	}

	const writes = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < writes; i++ {
			runStats.FileFound()
			if err := r.WriteOnce(); err != nil {
				t.Errorf("WriteOnce error: %v", err)
				return
			}
		}
	}()

	// Read continuously while the writer loops; the rename-based write means
	// a reader sees either the previous or the new artifact, never a torn one.
	for {
		artifact, found, err := Read(path)
		if err != nil {
			t.Fatalf("Read error during writes: %v", err)
		}
		if !found {
			t.Fatal("artifact missing during writes")
		}
		if artifact.RunID != "run-live" {
			t.Fatalf("RunID = %q during writes", artifact.RunID)
		}
		if artifact.FilesFound < 0 || artifact.FilesFound > writes {
			t.Fatalf("FilesFound = %d out of range", artifact.FilesFound)
		}
		select {
		case <-done:
			artifact, _, err := Read(path)
			if err != nil {
				t.Fatalf("final Read error: %v", err)
			}
			if artifact.FilesFound != writes {
				t.Errorf("final FilesFound = %d, want %d", artifact.FilesFound, writes)
			}
			return
		default:
		}
	}
}

func TestRunWritesFinalSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	runStats := stats.NewRunStats()
	// Long interval so only the final cancellation write happens.
	r := NewReporter(path, time.Hour, runStats)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	runStats.FileFound()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	artifact, found, err := Read(path)
	if err != nil || !found {
		t.Fatalf("Read = %v, found=%v", err, found)
	}
	if artifact.FilesFound != 1 {
		t.Errorf("final snapshot FilesFound = %d, want 1", artifact.FilesFound)
	}
}

func TestWriteCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "status.json")
	r := NewReporter(path, time.Second, stats.NewRunStats())
	if err := r.WriteOnce(); err != nil {
		t.Fatalf("WriteOnce error: %v", err)
	}
	if _, _, err := Read(path); err != nil {
		t.Errorf("Read error: %v", err)
	}
}
