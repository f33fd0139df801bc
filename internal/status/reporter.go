// Package status writes the periodically refreshed status artifact that
// external dashboards poll, and reads it back on the dashboard side.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
)

// Artifact is the on-disk status snapshot. Every field is best-effort and
// eventually consistent; readers must tolerate the file being absent.
type Artifact struct {
	RunID string `json:"run_id,omitempty"`
	stats.Snapshot
}

// Reporter periodically serializes RunStats to the status path. The file is
// written to a temporary path and renamed into place so a concurrent reader
// never observes a partial write.
type Reporter struct {
	path     string
	interval time.Duration
	runStats *stats.RunStats
	runID    string
	logger   *zap.Logger // optional
}

// ReporterOption configures a Reporter.
type ReporterOption func(*Reporter)

// WithLogger sets a logger for write failures.
func WithLogger(l *zap.Logger) ReporterOption {
	return func(r *Reporter) { r.logger = l }
}

// WithRunID stamps snapshots with a run identifier.
func WithRunID(id string) ReporterOption {
	return func(r *Reporter) { r.runID = id }
}

// NewReporter creates a reporter writing to path every interval.
func NewReporter(path string, interval time.Duration, runStats *stats.RunStats, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		path:     path,
		interval: interval,
		runStats: runStats,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run writes snapshots at the configured cadence until ctx is cancelled,
// then writes one final snapshot reflecting the stopped state.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := r.WriteOnce(); err != nil && r.logger != nil {
				r.logger.Warn("final status write failed", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := r.WriteOnce(); err != nil && r.logger != nil {
				r.logger.Warn("status write failed", zap.Error(err))
			}
		}
	}
}

// WriteOnce writes a single snapshot atomically.
func (r *Reporter) WriteOnce() error {
	artifact := Artifact{RunID: r.runID, Snapshot: r.runStats.Snapshot()}
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return writeAtomic(r.path, data)
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path. Rename within one filesystem is atomic on POSIX.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create status dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp status file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename status file: %w", err)
	}
	return nil
}

// Read loads the status artifact at path. Returns found=false without error
// when the file does not exist (the run has not started yet).
func Read(path string) (*Artifact, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read status file: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, false, fmt.Errorf("parse status file: %w", err)
	}
	return &artifact, true, nil
}
