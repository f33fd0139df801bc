// Package pipeline runs the per-file content stages: eligibility, fetch,
// cache, extract, embed, and index.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/extract"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/fileid"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/index"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/smb"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
)

// Pipeline processes discovered files through the content stages with a
// bounded worker pool. Failures are file-local: a file that cannot be
// fetched, extracted, or embedded is marked Errored and the rest of the run
// continues.
type Pipeline struct {
	client      smb.ShareClient
	cache       cache.MetadataCache
	extractor   *extract.Extractor
	idx         *index.SearchIndex
	stats       *stats.RunStats
	allowedExts map[string]bool
	maxSize     int64
	workers     int
	retries     int
	logger      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for per-file progress and error output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a pipeline. allowedExts holds lowercase extensions with the
// leading dot; maxSize is the per-file byte limit; workers bounds the number
// of files in flight; retries is the number of extra fetch attempts after a
// connection error.
func New(
	client smb.ShareClient,
	metadata cache.MetadataCache,
	extractor *extract.Extractor,
	idx *index.SearchIndex,
	runStats *stats.RunStats,
	allowedExts []string,
	maxSize int64,
	workers, retries int,
	opts ...Option,
) *Pipeline {
	exts := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(ext)] = true
	}
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		client:      client,
		cache:       metadata,
		extractor:   extractor,
		idx:         idx,
		stats:       runStats,
		allowedExts: exts,
		maxSize:     maxSize,
		workers:     workers,
		retries:     retries,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run consumes records from files until the channel closes, processing up to
// the configured number of files concurrently. It returns the first
// infrastructure error (cache or context); per-file content failures only
// mark the file Errored.
func (p *Pipeline) Run(ctx context.Context, files <-chan *models.CacheRecord) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case rec, ok := <-files:
					if !ok {
						return nil
					}
					if err := p.processOne(ctx, rec); err != nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}

// Process runs a single record through the content stages. It shares the
// file-local failure semantics of Run.
func (p *Pipeline) Process(ctx context.Context, rec *models.CacheRecord) error {
	return p.processOne(ctx, rec)
}

// processOne runs one file through all stages. The returned error is nil for
// file-local failures; it is non-nil only when the run itself must stop.
func (p *Pipeline) processOne(ctx context.Context, rec *models.CacheRecord) error {
	display := rec.Share + "/" + rec.Path

	// Eligibility by extension is a silent skip; the record stays Discovered.
	ext := strings.ToLower(path.Ext(rec.Path))
	if !p.allowedExts[ext] {
		p.logger.Debug("skipping ineligible extension", zap.String("file", display))
		return nil
	}

	current, found, err := p.cache.Get(ctx, rec.Share, rec.Path)
	if err != nil {
		return fmt.Errorf("read cache record %s: %w", display, err)
	}
	state := models.StateDiscovered
	prevHash := ""
	if found {
		state = current.State
		prevHash = current.ContentHash
	}
	// Errored is terminal; the failure stays recorded until the operator
	// clears the cache entry.
	if state == models.StateErrored {
		return nil
	}
	// An indexed file whose remote mtime and size match the stamp recorded
	// at the last fetch has not changed; skip without re-fetching it.
	if state == models.StateVectorized && !rec.ModifiedAt.IsZero() &&
		rec.ModifiedAt.Equal(current.ModifiedAt) && rec.SizeBytes == current.SizeBytes {
		p.logger.Debug("file unchanged since indexing, skipping fetch", zap.String("file", display))
		return nil
	}

	if p.maxSize > 0 && rec.SizeBytes > p.maxSize {
		return p.failFile(ctx, rec, "file too large", nil)
	}

	p.stats.SetCurrentFile(display)

	content, err := p.fetch(ctx, rec)
	if err != nil {
		if ctx.Err() != nil {
			return p.cancelFile(ctx, rec)
		}
		if state == models.StateVectorized {
			p.stats.Error()
			p.logger.Warn("fetch failed for indexed file", zap.String("file", display), zap.Error(err))
			return nil
		}
		return p.failFile(ctx, rec, "fetch failed", err)
	}
	hash := hashContent(content)

	if state == models.StateVectorized {
		return p.refreshIndexed(ctx, rec, content, ext, hash)
	}
	if hash == prevHash && state >= models.StateCached {
		// Resumed run; the earlier stages already ran for this content, so
		// continue from where the record left off without recounting.
	} else {
		if err := p.cache.SetContentHash(ctx, rec.Share, rec.Path, hash, rec.ModifiedAt); err != nil {
			return fmt.Errorf("store content hash %s: %w", display, err)
		}
	}
	if state == models.StateDiscovered {
		if err := p.cache.SetState(ctx, rec.Share, rec.Path, models.StateCached, ""); err != nil {
			return fmt.Errorf("advance %s to cached: %w", display, err)
		}
		state = models.StateCached
		p.stats.FileCached()
	}

	text, err := p.extractor.Extract(content, ext)
	if err != nil {
		return p.failFile(ctx, rec, "extraction failed", err)
	}
	if state == models.StateCached {
		if err := p.cache.SetState(ctx, rec.Share, rec.Path, models.StateProcessed, ""); err != nil {
			return fmt.Errorf("advance %s to processed: %w", display, err)
		}
		state = models.StateProcessed
		p.stats.FileProcessed()
	}

	if err := p.idx.Add(ctx, fileid.DocID(rec.Share, rec.Path), text, hash, p.docMeta(rec)); err != nil {
		if ctx.Err() != nil {
			return p.cancelFile(ctx, rec)
		}
		return p.failFile(ctx, rec, "embedding failed", err)
	}
	if err := p.cache.SetState(ctx, rec.Share, rec.Path, models.StateVectorized, ""); err != nil {
		return fmt.Errorf("advance %s to vectorized: %w", display, err)
	}
	p.stats.FileVectorized()
	p.logger.Debug("file vectorized", zap.String("file", display))
	return nil
}

// refreshIndexed handles a file whose record is already Vectorized. Unchanged
// content is a no-op; changed content is re-extracted and re-indexed in place
// without touching the record state. A refresh counts through every stage so
// the per-run counters keep files_found >= files_cached >= files_processed >=
// files_vectorized.
func (p *Pipeline) refreshIndexed(ctx context.Context, rec *models.CacheRecord, content []byte, ext, hash string) error {
	display := rec.Share + "/" + rec.Path
	docID := fileid.DocID(rec.Share, rec.Path)
	needs, err := p.idx.NeedsIndexing(ctx, docID, hash)
	if err != nil {
		return fmt.Errorf("check index for %s: %w", display, err)
	}
	if !needs {
		// Content identical after a metadata-only change; refresh the
		// stamp so the next run skips the fetch too.
		if !rec.ModifiedAt.IsZero() {
			if err := p.cache.SetContentHash(ctx, rec.Share, rec.Path, hash, rec.ModifiedAt); err != nil {
				return fmt.Errorf("store content hash %s: %w", display, err)
			}
		}
		p.logger.Debug("content unchanged, skipping", zap.String("file", display))
		return nil
	}
	p.stats.FileCached()
	text, err := p.extractor.Extract(content, ext)
	if err != nil {
		p.stats.Error()
		p.logger.Warn("re-extraction failed", zap.String("file", display), zap.Error(err))
		return nil
	}
	p.stats.FileProcessed()
	if err := p.idx.Add(ctx, docID, text, hash, p.docMeta(rec)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.stats.Error()
		p.logger.Warn("re-indexing failed", zap.String("file", display), zap.Error(err))
		return nil
	}
	if err := p.cache.SetContentHash(ctx, rec.Share, rec.Path, hash, rec.ModifiedAt); err != nil {
		return fmt.Errorf("store content hash %s: %w", display, err)
	}
	p.stats.FileVectorized()
	p.logger.Debug("file re-indexed", zap.String("file", display))
	return nil
}

func (p *Pipeline) docMeta(rec *models.CacheRecord) models.DocumentMeta {
	return models.DocumentMeta{
		FileName:  path.Base(rec.Path),
		Share:     rec.Share,
		Path:      rec.Path,
		SizeBytes: rec.SizeBytes,
		IndexedAt: time.Now().UTC(),
	}
}

func (p *Pipeline) fetch(ctx context.Context, rec *models.CacheRecord) ([]byte, error) {
	var content []byte
	err := smb.WithRetry(ctx, p.retries, func() error {
		var fetchErr error
		content, fetchErr = p.client.FetchContent(ctx, rec.Share, rec.Path)
		return fetchErr
	})
	return content, err
}

// failFile marks rec Errored and counts it. Marking uses a background-derived
// context so a cancelled run can still record failures.
func (p *Pipeline) failFile(ctx context.Context, rec *models.CacheRecord, reason string, cause error) error {
	msg := reason
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", reason, cause)
	}
	p.stats.Error()
	p.logger.Warn("file failed",
		zap.String("share", rec.Share),
		zap.String("path", rec.Path),
		zap.String("reason", msg))
	err := p.cache.SetState(context.WithoutCancel(ctx), rec.Share, rec.Path, models.StateErrored, msg)
	if err != nil && !errors.Is(err, cache.ErrInvalidTransition) {
		return fmt.Errorf("mark %s/%s errored: %w", rec.Share, rec.Path, err)
	}
	return nil
}

// cancelFile marks an in-flight file Errored when the run is cancelled, then
// surfaces the cancellation.
func (p *Pipeline) cancelFile(ctx context.Context, rec *models.CacheRecord) error {
	if err := p.failFile(ctx, rec, "cancelled", nil); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("cancelled")
}

func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
