// Package cache defines the durable metadata cache for discovered files and
// indexed document metadata.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
)

// ErrInvalidTransition is returned by SetState when the requested transition
// would regress the state machine or leave a terminal state.
var ErrInvalidTransition = errors.New("invalid state transition")

// MetadataCache persists cache records keyed by (share, path) and the
// metadata of indexed documents. Implementations must be safe for
// concurrent use by the crawler and pipeline workers.
type MetadataCache interface {
	// Upsert inserts the record if absent. Re-discovering an existing
	// record refreshes only its size; state, discoveredAt, and contentHash
	// are preserved so repeated crawls never regress progress.
	Upsert(ctx context.Context, rec *models.CacheRecord) error
	Get(ctx context.Context, share, path string) (*models.CacheRecord, bool, error)
	// SetState advances the record's state. Transitions that violate the
	// monotonic state machine are rejected with an error.
	SetState(ctx context.Context, share, path string, next models.State, errorMessage string) error
	// SetContentHash records the content hash and the remote mtime observed
	// at the fetch that produced it. The mtime lets a later run skip the
	// fetch entirely when the file has not changed.
	SetContentHash(ctx context.Context, share, path, contentHash string, modifiedAt time.Time) error
	CountByState(ctx context.Context, state models.State) (int, error)
	ListByState(ctx context.Context, state models.State) ([]*models.CacheRecord, error)

	// Indexed document metadata (search index side).
	UpsertIndexedDocument(ctx context.Context, doc *models.IndexedDocument) error
	GetIndexedDocument(ctx context.Context, docID string) (*models.IndexedDocument, bool, error)
	ListIndexedDocuments(ctx context.Context) ([]*models.IndexedDocument, error)
	CountIndexedDocuments(ctx context.Context) (int64, error)

	Close() error
}
