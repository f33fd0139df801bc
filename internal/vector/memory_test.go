package vector

import (
	"context"
	"path/filepath"
	"testing"
)

func unit(dims int, axis int) []float32 {
	v := make([]float32, dims)
	v[axis] = 1
	return v
}

func TestUpsertAndSearch(t *testing.T) {
	idx, err := NewMemoryIndex(4)
	if err != nil {
		t.Fatalf("NewMemoryIndex error: %v", err)
	}
	ctx := context.Background()

	ids := []string{"a", "b", "c"}
	vectors := [][]float32{unit(4, 0), unit(4, 1), unit(4, 2)}
	if err := idx.Upsert(ctx, ids, vectors); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}

	results, err := idx.Search(ctx, unit(4, 1), 2)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ID != "b" {
		t.Errorf("top result = %q, want b", results[0].ID)
	}
	if results[0].Score <= results[1].Score {
		t.Errorf("scores not descending: %v then %v", results[0].Score, results[1].Score)
	}
}

func TestSearchTieBreakByID(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	// Identical vectors, so scores tie; IDs break the tie ascending.
	if err := idx.Upsert(ctx, []string{"zz", "aa", "mm"}, [][]float32{unit(2, 0), unit(2, 0), unit(2, 0)}); err != nil {
		t.Fatalf("Upsert error: %v", err)
	}
	results, err := idx.Search(ctx, unit(2, 0), 3)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if results[0].ID != "aa" || results[1].ID != "mm" || results[2].ID != "zz" {
		t.Errorf("tie order = %v %v %v", results[0].ID, results[1].ID, results[2].ID)
	}
}

func TestSearchLimitZero(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []string{"a"}, [][]float32{unit(2, 0)})

	for _, k := range []int{0, -5} {
		results, err := idx.Search(ctx, unit(2, 0), k)
		if err != nil {
			t.Fatalf("Search(k=%d) error: %v", k, err)
		}
		if len(results) != 0 {
			t.Errorf("Search(k=%d) returned %d results", k, len(results))
		}
	}
}

func TestUpsertReplaces(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []string{"a"}, [][]float32{unit(2, 0)})
	_ = idx.Upsert(ctx, []string{"a"}, [][]float32{unit(2, 1)})

	if idx.Size() != 1 {
		t.Errorf("Size = %d, want 1", idx.Size())
	}
	results, _ := idx.Search(ctx, unit(2, 1), 1)
	if len(results) != 1 || results[0].ID != "a" || results[0].Score < 0.99 {
		t.Errorf("results = %+v", results)
	}
}

func TestRemove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	_ = idx.Upsert(ctx, []string{"a", "b"}, [][]float32{unit(2, 0), unit(2, 1)})
	if err := idx.Remove(ctx, []string{"a"}); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("Size = %d, want 1", idx.Size())
	}
	results, _ := idx.Search(ctx, unit(2, 0), 5)
	for _, r := range results {
		if r.ID == "a" {
			t.Error("removed vector still returned")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")
	ctx := context.Background()

	idx, _ := NewMemoryIndex(3)
	_ = idx.Upsert(ctx, []string{"a", "b"}, [][]float32{unit(3, 0), unit(3, 2)})
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	loaded, _ := NewMemoryIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Size() != 2 {
		t.Fatalf("Size after load = %d, want 2", loaded.Size())
	}
	results, err := loaded.Search(ctx, unit(3, 2), 1)
	if err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "b" {
		t.Errorf("results = %+v", results)
	}
}

func TestLoadMissingFile(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	if err := idx.Load(filepath.Join(t.TempDir(), "missing.bin")); err != nil {
		t.Errorf("Load of missing file should be a no-op, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("Size = %d", idx.Size())
	}
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if got := CosineSimilarity(a, a); got < 0.99 {
		t.Errorf("identical vectors similarity = %v", got)
	}
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("orthogonal vectors similarity = %v", got)
	}
}
