// Package models defines core data structures for discovered files, cache records, and search results.
package models

import (
	"fmt"
	"time"
)

// State is the processing state of a cache record. States advance monotonically
// (Discovered → Cached → Processed → Vectorized) or divert to Errored; they never regress.
type State int

const (
	StateDiscovered State = iota
	StateCached
	StateProcessed
	StateVectorized
	StateErrored
)

// AllStates lists every state in advancement order.
var AllStates = []State{StateDiscovered, StateCached, StateProcessed, StateVectorized, StateErrored}

// String returns the state name as stored in the cache database.
func (s State) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateCached:
		return "cached"
	case StateProcessed:
		return "processed"
	case StateVectorized:
		return "vectorized"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ParseState converts a stored state name back to a State.
func ParseState(s string) (State, error) {
	switch s {
	case "discovered":
		return StateDiscovered, nil
	case "cached":
		return StateCached, nil
	case "processed":
		return StateProcessed, nil
	case "vectorized":
		return StateVectorized, nil
	case "errored":
		return StateErrored, nil
	default:
		return 0, fmt.Errorf("unknown state: %q", s)
	}
}

// CanAdvance reports whether a transition from s to next is allowed.
// Forward steps and the Errored divert are allowed; regressions and
// transitions out of a terminal state are not.
func (s State) CanAdvance(next State) bool {
	if s == StateErrored || s == StateVectorized {
		return false
	}
	if next == StateErrored {
		return true
	}
	return next == s+1
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateVectorized || s == StateErrored
}

// DirEntry is one listing result from a remote share. Transient; not persisted.
type DirEntry struct {
	Name        string
	Path        string // share-relative
	IsDirectory bool
	SizeBytes   int64
	ModifiedAt  time.Time // zero when the protocol does not report it
}

// CacheRecord is the persisted record for one discovered file, keyed by (Share, Path).
type CacheRecord struct {
	Share        string
	Path         string
	SizeBytes    int64
	DiscoveredAt time.Time
	ModifiedAt   time.Time // remote mtime observed when the content was last fetched
	State        State
	ErrorMessage string // set when State is Errored
	ContentHash  string // sha256 hex; set once content has been fetched
}

// Key returns the cache key for the record.
func (r *CacheRecord) Key() string {
	return r.Share + "/" + r.Path
}
