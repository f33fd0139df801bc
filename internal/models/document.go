package models

import "time"

// DocumentMeta is the metadata stored alongside an indexed document.
type DocumentMeta struct {
	FileName  string    `json:"file_name"`
	Share     string    `json:"share"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	IndexedAt time.Time `json:"indexed_at"`
}

// IndexedDocument is one search index entry: a document ID, its content hash
// at indexing time, and metadata. The embedding itself lives in the vector index.
type IndexedDocument struct {
	DocID       string       `json:"doc_id"`
	ContentHash string       `json:"content_hash"`
	Meta        DocumentMeta `json:"meta"`
}

// ScoredDocument is a single search hit ordered by descending similarity.
type ScoredDocument struct {
	DocID string       `json:"doc_id"`
	Score float64      `json:"score"`
	Meta  DocumentMeta `json:"meta"`
}
