// Package keyword provides keyword (BM25) search over extracted document text.
package keyword

import "context"

// Document is the searchable shape of an indexed file.
type Document struct {
	Name    string `json:"name"`
	Share   string `json:"share"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Result is a single keyword search hit.
type Result struct {
	ID    string
	Score float64
}

// Index defines keyword search operations.
type Index interface {
	Index(ctx context.Context, id string, doc *Document) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, id string) error
	DocCount() (uint64, error)
	Close() error
}
