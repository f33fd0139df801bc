// Package inbox watches a local drop folder and ingests files placed in it
// through the content pipeline under the pseudo-share "inbox".
package inbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/pipeline"
)

// Share is the pseudo-share name under which inbox files are recorded.
const Share = "inbox"

// defaultDebounce delays ingestion after the last write event so files still
// being copied in are picked up whole.
const defaultDebounce = 400 * time.Millisecond

// Watcher ingests files dropped into a directory. Each settled file is
// upserted into the metadata cache and pushed through the pipeline; failures
// are file-local, matching an ingestion run.
type Watcher struct {
	dir        string
	extensions []string
	cache      cache.MetadataCache
	pipe       *pipeline.Pipeline
	debounce   time.Duration
	logger     *zap.Logger

	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	debounceMap map[string]*time.Timer
	started     bool
	done        chan struct{}
	stopOnce    sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for event and ingestion output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// NewWatcher creates a drop-folder watcher over dir. extensions filters
// which files are ingested (empty = all); pipe must be built over a client
// that exposes dir as the "inbox" share.
func NewWatcher(dir string, extensions []string, metadata cache.MetadataCache, pipe *pipeline.Pipeline, opts ...Option) *Watcher {
	w := &Watcher{
		dir:         dir,
		extensions:  extensions,
		cache:       metadata,
		pipe:        pipe,
		debounce:    defaultDebounce,
		logger:      zap.NewNop(),
		debounceMap: make(map[string]*time.Timer),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It returns after the watch is established; events
// are handled until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		w.mu.Unlock()
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return err
	}
	w.watcher = watcher
	w.started = true
	w.mu.Unlock()

	w.logger.Info("inbox watching", zap.String("dir", w.dir))
	go w.run(ctx)
	return nil
}

// SyncExisting ingests files already present in the inbox when the watcher
// starts.
func (w *Watcher) SyncExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("inbox sync failed", zap.Error(err))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !w.matchExtension(e.Name()) {
			continue
		}
		w.ingest(ctx, filepath.Join(w.dir, e.Name()))
	}
}

func (w *Watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("inbox watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		if w.matchExtension(ev.Name) {
			w.debounceIngest(ctx, ev.Name)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(ev.Name)
	}
}

func (w *Watcher) matchExtension(name string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range w.extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) debounceIngest(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.ingest(ctx, path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// ingest records the file under the inbox share and runs it through the
// pipeline.
func (w *Watcher) ingest(ctx context.Context, absPath string) {
	rel, err := filepath.Rel(w.dir, absPath)
	if err != nil {
		w.logger.Warn("inbox path outside directory", zap.String("path", absPath))
		return
	}
	info, err := os.Stat(absPath)
	if err != nil {
		w.logger.Debug("inbox file vanished before ingestion", zap.String("path", absPath))
		return
	}
	rec := &models.CacheRecord{
		Share:        Share,
		Path:         filepath.ToSlash(rel),
		SizeBytes:    info.Size(),
		DiscoveredAt: time.Now().UTC(),
		ModifiedAt:   info.ModTime(),
		State:        models.StateDiscovered,
	}
	if err := w.cache.Upsert(ctx, rec); err != nil {
		w.logger.Error("inbox cache upsert failed", zap.String("path", rec.Path), zap.Error(err))
		return
	}
	if err := w.pipe.Process(ctx, rec); err != nil {
		w.logger.Error("inbox ingestion failed", zap.String("path", rec.Path), zap.Error(err))
		return
	}
	w.logger.Info("inbox file ingested", zap.String("path", rec.Path))
}

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
