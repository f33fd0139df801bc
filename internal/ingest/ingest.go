// Package ingest orchestrates one ingestion run: crawl, content pipeline,
// and status reporting.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/config"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/crawler"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/extract"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/index"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/pipeline"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/smb"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/status"
)

// fileQueueSize buffers discovered files between the crawler and the worker
// pool so slow extraction does not stall the walk.
const fileQueueSize = 256

// Ingestor runs the full ingestion flow: enumerate and walk shares, push
// every discovered file through the content pipeline, and keep the status
// artifact fresh while the run is in flight.
type Ingestor struct {
	client   smb.ShareClient
	cache    cache.MetadataCache
	idx      *index.SearchIndex
	runStats *stats.RunStats
	cfg      *config.Config
	logger   *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets a logger for run progress.
func WithLogger(l *zap.Logger) Option {
	return func(i *Ingestor) { i.logger = l }
}

// New creates an ingestor over the given share client, metadata cache, and
// search index.
func New(client smb.ShareClient, metadata cache.MetadataCache, idx *index.SearchIndex, runStats *stats.RunStats, cfg *config.Config, opts ...Option) *Ingestor {
	ing := &Ingestor{
		client:   client,
		cache:    metadata,
		idx:      idx,
		runStats: runStats,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}
	return ing
}

// Run executes one ingestion run and blocks until it completes or ctx is
// cancelled. The vector index is saved and a final status snapshot is
// written on both paths.
func (i *Ingestor) Run(ctx context.Context) error {
	runID := uuid.New().String()
	i.logger.Info("ingestion run starting", zap.String("run_id", runID))

	reporter := status.NewReporter(
		i.cfg.Status.Path,
		time.Duration(i.cfg.Status.WriteIntervalSeconds*float64(time.Second)),
		i.runStats,
		status.WithRunID(runID),
		status.WithLogger(i.logger),
	)
	reporterCtx, stopReporter := context.WithCancel(context.Background())
	var reporterDone sync.WaitGroup
	reporterDone.Add(1)
	go func() {
		defer reporterDone.Done()
		reporter.Run(reporterCtx)
	}()

	runErr := i.runPipeline(ctx)

	// The final snapshot must reflect the finished counters, so stop the
	// reporter only after the workers are done.
	stopReporter()
	reporterDone.Wait()

	if err := i.idx.Save(i.cfg.Storage.VectorIndexPath); err != nil {
		i.logger.Error("vector index save failed", zap.Error(err))
		if runErr == nil {
			runErr = fmt.Errorf("save vector index: %w", err)
		}
	}

	if runErr != nil {
		i.logger.Warn("ingestion run finished with error", zap.String("run_id", runID), zap.Error(runErr))
		return runErr
	}
	snap := i.runStats.Snapshot()
	i.logger.Info("ingestion run complete",
		zap.String("run_id", runID),
		zap.Int("files_found", snap.FilesFound),
		zap.Int("files_vectorized", snap.FilesVectorized),
		zap.Int("errors", snap.Errors))
	return nil
}

func (i *Ingestor) runPipeline(ctx context.Context) error {
	crawl := crawler.New(
		i.client, i.cache, i.runStats,
		i.cfg.Crawl.MaxDepth, i.cfg.Crawl.FetchRetries,
		crawler.WithLogger(i.logger),
		crawler.WithShares(i.cfg.SMB.Shares),
	)
	pipe := pipeline.New(
		i.client, i.cache, extract.NewExtractor(), i.idx, i.runStats,
		i.cfg.Pipeline.AllowedExtensions, i.cfg.Pipeline.MaxFileSizeBytes,
		i.cfg.Pipeline.WorkerPoolSize, i.cfg.Crawl.FetchRetries,
		pipeline.WithLogger(i.logger),
	)

	files := make(chan *models.CacheRecord, fileQueueSize)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(files)
		return crawl.Crawl(gctx, func(rec *models.CacheRecord) {
			select {
			case files <- rec:
			case <-gctx.Done():
			}
		})
	})
	g.Go(func() error {
		return pipe.Run(gctx, files)
	})

	return g.Wait()
}
