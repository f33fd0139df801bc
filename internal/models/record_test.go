package models

import "testing"

func TestStateStringRoundTrip(t *testing.T) {
	for _, state := range AllStates {
		parsed, err := ParseState(state.String())
		if err != nil {
			t.Fatalf("ParseState(%q) error: %v", state.String(), err)
		}
		if parsed != state {
			t.Errorf("ParseState(%q) = %v, want %v", state.String(), parsed, state)
		}
	}
}

func TestParseStateUnknown(t *testing.T) {
	if _, err := ParseState("bogus"); err == nil {
		t.Error("ParseState(bogus) should fail")
	}
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"discovered to cached", StateDiscovered, StateCached, true},
		{"cached to processed", StateCached, StateProcessed, true},
		{"processed to vectorized", StateProcessed, StateVectorized, true},
		{"discovered to errored", StateDiscovered, StateErrored, true},
		{"processed to errored", StateProcessed, StateErrored, true},
		{"skip a stage", StateDiscovered, StateProcessed, false},
		{"regression", StateProcessed, StateCached, false},
		{"same state", StateCached, StateCached, false},
		{"out of vectorized", StateVectorized, StateErrored, false},
		{"out of errored", StateErrored, StateDiscovered, false},
		{"errored to errored", StateErrored, StateErrored, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanAdvance(tt.to); got != tt.want {
				t.Errorf("%v.CanAdvance(%v) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	if StateDiscovered.Terminal() || StateCached.Terminal() || StateProcessed.Terminal() {
		t.Error("non-terminal states reported terminal")
	}
	if !StateVectorized.Terminal() || !StateErrored.Terminal() {
		t.Error("terminal states reported non-terminal")
	}
}

func TestCacheRecordKey(t *testing.T) {
	rec := &CacheRecord{Share: "docs", Path: "reports/q1.pdf"}
	if got := rec.Key(); got != "docs/reports/q1.pdf" {
		t.Errorf("Key() = %q", got)
	}
}

func TestSearchQueryValidate(t *testing.T) {
	t.Run("empty query rejected", func(t *testing.T) {
		q := &SearchQuery{}
		if err := q.Validate(); err == nil {
			t.Error("empty query should fail validation")
		}
	})
	t.Run("zero limit gets default", func(t *testing.T) {
		q := &SearchQuery{Query: "test"}
		if err := q.Validate(); err != nil {
			t.Fatalf("Validate error: %v", err)
		}
		if q.Limit != 10 {
			t.Errorf("Limit = %d, want 10", q.Limit)
		}
	})
	t.Run("limit capped", func(t *testing.T) {
		q := &SearchQuery{Query: "test", Limit: 500}
		if err := q.Validate(); err != nil {
			t.Fatalf("Validate error: %v", err)
		}
		if q.Limit != 100 {
			t.Errorf("Limit = %d, want 100", q.Limit)
		}
	})
	t.Run("negative limit kept", func(t *testing.T) {
		q := &SearchQuery{Query: "test", Limit: -1}
		if err := q.Validate(); err != nil {
			t.Fatalf("Validate error: %v", err)
		}
		if q.Limit != -1 {
			t.Errorf("Limit = %d, want -1", q.Limit)
		}
	})
}
