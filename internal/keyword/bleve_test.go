package keyword

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "keyword"))
	if err != nil {
		t.Fatalf("NewBleveIndex error: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := map[string]*Document{
		"doc1": {Name: "report.txt", Share: "docs", Path: "report.txt", Content: "quarterly revenue grew strongly"},
		"doc2": {Name: "notes.md", Share: "docs", Path: "notes.md", Content: "meeting notes about hiring"},
	}
	for id, doc := range docs {
		if err := idx.Index(ctx, id, doc); err != nil {
			t.Fatalf("Index(%s) error: %v", id, err)
		}
	}

	results, err := idx.Search(ctx, "revenue", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc1" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchByFileName(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	doc := &Document{Name: "project_plan.docx", Share: "docs", Path: "project_plan.docx", Content: "timeline and milestones"}
	if err := idx.Index(ctx, "doc1", doc); err != nil {
		t.Fatalf("Index error: %v", err)
	}
	// Underscored names are searchable by their words.
	results, err := idx.Search(ctx, "plan", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchLimitZero(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc1", &Document{Name: "a.txt", Content: "hello"})
	results, err := idx.Search(ctx, "hello", 0)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("limit 0 returned %d results", len(results))
	}
}

func TestDelete(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc1", &Document{Name: "a.txt", Content: "hello world"})
	if err := idx.Delete(ctx, "doc1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	results, err := idx.Search(ctx, "hello", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted document still found: %+v", results)
	}
}

func TestReindexReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc1", &Document{Name: "a.txt", Content: "original content"})
	_ = idx.Index(ctx, "doc1", &Document{Name: "a.txt", Content: "replacement text"})

	results, err := idx.Search(ctx, "original", 10)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale content still found: %+v", results)
	}
	results, _ = idx.Search(ctx, "replacement", 10)
	if len(results) != 1 {
		t.Errorf("new content not found: %+v", results)
	}
}

func TestDocCount(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	_ = idx.Index(ctx, "doc1", &Document{Name: "a.txt", Content: "one"})
	_ = idx.Index(ctx, "doc2", &Document{Name: "b.txt", Content: "two"})
	n, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount error: %v", err)
	}
	if n != 2 {
		t.Errorf("DocCount = %d, want 2", n)
	}
}
