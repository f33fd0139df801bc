// Package index provides the searchable document index: embeddings in the
// vector index, metadata in the cache database, and extracted text in the
// keyword index.
package index

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/cache"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/embedding"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/keyword"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
	"github.com/jonclaudedotnet/Hinkey-sub001/internal/vector"
)

// SearchIndex stores one entry per processed document and answers
// nearest-neighbor and keyword queries. Adding an existing docID with a new
// content hash replaces the previous entry; there are never duplicates for
// the same docID.
type SearchIndex struct {
	embedder embedding.Embedder
	vectors  vector.Index
	keywords keyword.Index
	meta     cache.MetadataCache
	logger   *zap.Logger // optional
}

// Option configures a SearchIndex.
type Option func(*SearchIndex)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *SearchIndex) { s.logger = l }
}

// NewSearchIndex creates a search index with the given dependencies.
// keywords may be nil; keyword queries then return nothing.
func NewSearchIndex(
	embedder embedding.Embedder,
	vectors vector.Index,
	keywords keyword.Index,
	meta cache.MetadataCache,
	opts ...Option,
) *SearchIndex {
	s := &SearchIndex{
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		meta:     meta,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NeedsIndexing reports whether docID must be (re-)indexed for the given
// content hash. An existing entry with an unchanged hash is skipped.
func (s *SearchIndex) NeedsIndexing(ctx context.Context, docID, contentHash string) (bool, error) {
	doc, found, err := s.meta.GetIndexedDocument(ctx, docID)
	if err != nil {
		return false, err
	}
	if !found {
		return true, nil
	}
	return doc.ContentHash != contentHash, nil
}

// Add embeds text and upserts the document into the vector index, metadata
// store, and keyword index. Re-adding with a changed content hash replaces
// the embedding.
func (s *SearchIndex) Add(ctx context.Context, docID, text, contentHash string, meta models.DocumentMeta) error {
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}
	if err := s.vectors.Upsert(ctx, []string{docID}, [][]float32{emb}); err != nil {
		return fmt.Errorf("index vector: %w", err)
	}
	if err := s.meta.UpsertIndexedDocument(ctx, &models.IndexedDocument{
		DocID:       docID,
		ContentHash: contentHash,
		Meta:        meta,
	}); err != nil {
		return fmt.Errorf("store document metadata: %w", err)
	}
	if s.keywords != nil {
		kwDoc := &keyword.Document{
			Name:    meta.FileName,
			Share:   meta.Share,
			Path:    meta.Path,
			Content: text,
		}
		if err := s.keywords.Index(ctx, docID, kwDoc); err != nil {
			return fmt.Errorf("index keywords: %w", err)
		}
	}
	if s.logger != nil {
		s.logger.Debug("document indexed",
			zap.String("doc_id", docID),
			zap.String("share", meta.Share),
			zap.String("path", meta.Path))
	}
	return nil
}

// Query embeds text with the ingestion embedder and returns up to limit
// documents ordered by descending similarity, ties broken by docID.
// limit <= 0 returns nothing.
func (s *SearchIndex) Query(ctx context.Context, text string, limit int) ([]*models.ScoredDocument, error) {
	if limit <= 0 {
		return nil, nil
	}
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := s.vectors.Search(ctx, emb, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return s.attachMetadata(ctx, hits)
}

// KeywordQuery returns up to limit documents matching the query terms,
// ordered by BM25 score. Returns nothing when no keyword index is configured.
func (s *SearchIndex) KeywordQuery(ctx context.Context, text string, limit int) ([]*models.ScoredDocument, error) {
	if s.keywords == nil || limit <= 0 {
		return nil, nil
	}
	hits, err := s.keywords.Search(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	out := make([]*models.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		doc, found, err := s.meta.GetIndexedDocument(ctx, hit.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		out = append(out, &models.ScoredDocument{DocID: hit.ID, Score: hit.Score, Meta: doc.Meta})
	}
	return out, nil
}

func (s *SearchIndex) attachMetadata(ctx context.Context, hits []*vector.Result) ([]*models.ScoredDocument, error) {
	out := make([]*models.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		doc, found, err := s.meta.GetIndexedDocument(ctx, hit.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			// Vector present but metadata missing; skip rather than return a hole.
			continue
		}
		out = append(out, &models.ScoredDocument{DocID: hit.ID, Score: hit.Score, Meta: doc.Meta})
	}
	return out, nil
}

// Size returns the number of vectors in the index.
func (s *SearchIndex) Size() int {
	return s.vectors.Size()
}

// Save persists the vector index to path.
func (s *SearchIndex) Save(path string) error {
	return s.vectors.Save(path)
}

// Load restores the vector index from path if it exists.
func (s *SearchIndex) Load(path string) error {
	return s.vectors.Load(path)
}
