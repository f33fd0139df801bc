// Package stats provides run-wide counters shared by the crawler and pipeline,
// and the derived-metric snapshot consumed by the progress reporter.
package stats

import (
	"sync"
	"time"
)

// RunStats holds the counters for one ingestion run. All mutations go through
// methods that hold the mutex; Snapshot returns a consistent copy with derived
// metrics computed at read time. RunStats is a metrics side-channel only;
// nothing reads it for control flow.
type RunStats struct {
	mu sync.Mutex

	sharesFound        int
	sharesScanned      int
	currentShare       string
	directoriesScanned int
	filesFound         int
	filesCached        int
	filesProcessed     int
	filesVectorized    int
	currentFile        string
	errors             int
	startTime          time.Time
}

// NewRunStats returns stats with startTime set to now.
func NewRunStats() *RunStats {
	return &RunStats{startTime: time.Now()}
}

// SetSharesFound records the number of shares visible at run start.
func (s *RunStats) SetSharesFound(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sharesFound = n
}

// SetCurrentShare records the share about to be scanned.
func (s *RunStats) SetCurrentShare(share string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentShare = share
}

// ShareScanned increments the completed-share counter.
func (s *RunStats) ShareScanned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sharesScanned++
}

// DirectoryScanned increments the directory counter.
func (s *RunStats) DirectoryScanned() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directoriesScanned++
}

// FileFound increments the discovered-file counter.
func (s *RunStats) FileFound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesFound++
}

// FileCached increments the cached-file counter.
func (s *RunStats) FileCached() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesCached++
}

// FileProcessed increments the processed-file counter.
func (s *RunStats) FileProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesProcessed++
}

// FileVectorized increments the vectorized-file counter.
func (s *RunStats) FileVectorized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filesVectorized++
}

// SetCurrentFile records the file about to be fetched, extracted, or embedded.
func (s *RunStats) SetCurrentFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFile = path
}

// Error increments the error counter.
func (s *RunStats) Error() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors++
}

// Snapshot is a consistent view of the counters plus derived metrics.
// Field names match the status artifact contract.
type Snapshot struct {
	SharesFound        int     `json:"shares_found"`
	SharesScanned      int     `json:"shares_scanned"`
	CurrentShare       string  `json:"current_share"`
	DirectoriesScanned int     `json:"directories_scanned"`
	FilesFound         int     `json:"files_found"`
	FilesCached        int     `json:"files_cached"`
	FilesProcessed     int     `json:"files_processed"`
	FilesVectorized    int     `json:"files_vectorized"`
	CurrentFile        string  `json:"current_file"`
	Errors             int     `json:"errors"`
	ElapsedTime        float64 `json:"elapsed_time"`
	FilesPerSecond     float64 `json:"files_per_second"`
	ProcessingRate     float64 `json:"processing_rate"`
	ProcessingProgress float64 `json:"processing_progress"`
}

// Snapshot copies the counters and computes derived metrics from the current
// values and elapsed time. Derived metrics are never stored.
func (s *RunStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SharesFound:        s.sharesFound,
		SharesScanned:      s.sharesScanned,
		CurrentShare:       s.currentShare,
		DirectoriesScanned: s.directoriesScanned,
		FilesFound:         s.filesFound,
		FilesCached:        s.filesCached,
		FilesProcessed:     s.filesProcessed,
		FilesVectorized:    s.filesVectorized,
		CurrentFile:        s.currentFile,
		Errors:             s.errors,
	}

	elapsed := time.Since(s.startTime).Seconds()
	snap.ElapsedTime = elapsed
	if elapsed > 0 {
		snap.FilesPerSecond = float64(s.filesProcessed) / elapsed
	}
	denom := s.filesProcessed
	if denom < 1 {
		denom = 1
	}
	snap.ProcessingRate = float64(s.filesVectorized) / float64(denom)
	found := s.filesFound
	if found < 1 {
		found = 1
	}
	progress := float64(s.filesProcessed) / float64(found) * 100
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	snap.ProcessingProgress = progress

	return snap
}
