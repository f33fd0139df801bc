// Package crawler walks remote shares to a bounded depth and records every
// file it finds in the metadata cache.
package crawler

import (
	"context"
	"fmt"
	"path"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/smb"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/stats"
)

// frame is one pending directory on the traversal stack.
type frame struct {
	share string
	path  string
	depth int
}

// Crawler enumerates shares and walks each one iteratively. Directories at
// the maximum depth are recorded but not descended into. A directory listing
// that still fails after retries is skipped; the walk continues with the
// rest of the share.
type Crawler struct {
	client   smb.ShareClient
	cache    cache.MetadataCache
	stats    *stats.RunStats
	maxDepth int
	retries  int
	shares   map[string]bool
	logger   *zap.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithLogger sets a logger for progress and error output.
func WithLogger(l *zap.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithShares restricts the crawl to the named shares. An empty list means
// all visible shares.
func WithShares(shares []string) Option {
	return func(c *Crawler) {
		if len(shares) == 0 {
			return
		}
		c.shares = make(map[string]bool, len(shares))
		for _, s := range shares {
			c.shares[s] = true
		}
	}
}

// New creates a crawler. maxDepth bounds how deep the walk descends below
// each share root; retries is the number of extra attempts after a
// connection error.
func New(client smb.ShareClient, metadata cache.MetadataCache, runStats *stats.RunStats, maxDepth, retries int, opts ...Option) *Crawler {
	c := &Crawler{
		client:   client,
		cache:    metadata,
		stats:    runStats,
		maxDepth: maxDepth,
		retries:  retries,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl enumerates all shares in lexicographic order and walks each one,
// upserting a Discovered record for every file and passing it to emit.
// Share enumeration failure fails the whole run; per-directory failures are
// counted and skipped.
func (c *Crawler) Crawl(ctx context.Context, emit func(*models.CacheRecord)) error {
	var shares []string
	err := smb.WithRetry(ctx, c.retries, func() error {
		var listErr error
		shares, listErr = c.client.ListShares(ctx)
		return listErr
	})
	if err != nil {
		return fmt.Errorf("list shares: %w", err)
	}

	if c.shares != nil {
		filtered := shares[:0]
		for _, s := range shares {
			if c.shares[s] {
				filtered = append(filtered, s)
			}
		}
		shares = filtered
	}
	sort.Strings(shares)
	c.stats.SetSharesFound(len(shares))
	c.logger.Info("share enumeration complete", zap.Int("shares", len(shares)))

	for _, share := range shares {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.stats.SetCurrentShare(share)
		if err := c.crawlShare(ctx, share, emit); err != nil {
			return err
		}
		c.stats.ShareScanned()
	}
	c.stats.SetCurrentShare("")
	return nil
}

func (c *Crawler) crawlShare(ctx context.Context, share string, emit func(*models.CacheRecord)) error {
	stack := []frame{{share: share, path: "", depth: 0}}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var entries []models.DirEntry
		err := smb.WithRetry(ctx, c.retries, func() error {
			var listErr error
			entries, listErr = c.client.ListEntries(ctx, top.share, top.path)
			return listErr
		})
		if err != nil {
			c.stats.Error()
			c.logger.Warn("directory listing failed, skipping",
				zap.String("share", top.share),
				zap.String("path", top.path),
				zap.Error(err))
			continue
		}
		c.stats.DirectoryScanned()

		var children []frame
		for _, entry := range entries {
			if entry.IsDirectory {
				if top.depth < c.maxDepth {
					children = append(children, frame{share: top.share, path: entry.Path, depth: top.depth + 1})
				}
				continue
			}
			rec := &models.CacheRecord{
				Share:        top.share,
				Path:         path.Clean(entry.Path),
				SizeBytes:    entry.SizeBytes,
				DiscoveredAt: time.Now().UTC(),
				ModifiedAt:   entry.ModifiedAt,
				State:        models.StateDiscovered,
			}
			if err := c.cache.Upsert(ctx, rec); err != nil {
				return fmt.Errorf("record file %s/%s: %w", rec.Share, rec.Path, err)
			}
			c.stats.FileFound()
			if emit != nil {
				emit(rec)
			}
		}
		// Push in reverse so the stack pops sibling directories in the
		// order the listing returned them.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nil
}
