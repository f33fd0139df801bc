package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
)

// SQLiteCache implements MetadataCache using SQLite.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	// Pipeline workers and the crawler share this connection; serialize writers
	// instead of surfacing SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cached_files (
		share TEXT NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		discovered_at TIMESTAMP NOT NULL,
		modified_at TIMESTAMP,
		state TEXT NOT NULL,
		error_message TEXT,
		content_hash TEXT,
		PRIMARY KEY (share, path)
	);

	CREATE INDEX IF NOT EXISTS idx_cached_files_state ON cached_files(state);

	CREATE TABLE IF NOT EXISTS indexed_documents (
		doc_id TEXT PRIMARY KEY,
		content_hash TEXT NOT NULL,
		metadata TEXT NOT NULL,
		indexed_at TIMESTAMP NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Upsert inserts the record if absent. Re-discovering an existing record
// only refreshes its size; state, timestamps, and hash are untouched so a
// repeated crawl never regresses progress.
func (c *SQLiteCache) Upsert(ctx context.Context, rec *models.CacheRecord) error {
	if rec.DiscoveredAt.IsZero() {
		rec.DiscoveredAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO cached_files (share, path, size_bytes, discovered_at, modified_at, state, error_message, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(share, path) DO UPDATE SET
		 	size_bytes = excluded.size_bytes`,
		rec.Share, rec.Path, rec.SizeBytes, rec.DiscoveredAt, rec.ModifiedAt,
		rec.State.String(), rec.ErrorMessage, rec.ContentHash,
	)
	return err
}

// Get returns the record for (share, path) and whether it exists.
func (c *SQLiteCache) Get(ctx context.Context, share, path string) (*models.CacheRecord, bool, error) {
	var rec models.CacheRecord
	var stateName string
	var errMsg, hash sql.NullString
	var modified sql.NullTime

	err := c.db.QueryRowContext(ctx,
		`SELECT share, path, size_bytes, discovered_at, modified_at, state, error_message, content_hash
		 FROM cached_files WHERE share = ? AND path = ?`, share, path,
	).Scan(&rec.Share, &rec.Path, &rec.SizeBytes, &rec.DiscoveredAt, &modified, &stateName, &errMsg, &hash)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	state, err := models.ParseState(stateName)
	if err != nil {
		return nil, false, err
	}
	rec.State = state
	rec.ModifiedAt = modified.Time
	rec.ErrorMessage = errMsg.String
	rec.ContentHash = hash.String
	return &rec, true, nil
}

// SetState advances the record's state, enforcing the monotonic state machine.
func (c *SQLiteCache) SetState(ctx context.Context, share, path string, next models.State, errorMessage string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stateName string
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM cached_files WHERE share = ? AND path = ?`, share, path,
	).Scan(&stateName)
	if err == sql.ErrNoRows {
		return fmt.Errorf("record not found: %s/%s", share, path)
	}
	if err != nil {
		return err
	}
	current, err := models.ParseState(stateName)
	if err != nil {
		return err
	}
	if !current.CanAdvance(next) {
		return fmt.Errorf("%w: %s -> %s for %s/%s", ErrInvalidTransition, current, next, share, path)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE cached_files SET state = ?, error_message = ? WHERE share = ? AND path = ?`,
		next.String(), errorMessage, share, path,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// SetContentHash records the content hash and the remote modification time
// observed at the fetch that produced it.
func (c *SQLiteCache) SetContentHash(ctx context.Context, share, path, contentHash string, modifiedAt time.Time) error {
	result, err := c.db.ExecContext(ctx,
		`UPDATE cached_files SET content_hash = ?, modified_at = ? WHERE share = ? AND path = ?`,
		contentHash, modifiedAt, share, path,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("record not found: %s/%s", share, path)
	}
	return nil
}

// CountByState returns the number of records in the given state.
func (c *SQLiteCache) CountByState(ctx context.Context, state models.State) (int, error) {
	var count int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cached_files WHERE state = ?`, state.String(),
	).Scan(&count)
	return count, err
}

// ListByState returns all records in the given state ordered by share then path.
func (c *SQLiteCache) ListByState(ctx context.Context, state models.State) ([]*models.CacheRecord, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT share, path, size_bytes, discovered_at, modified_at, state, error_message, content_hash
		 FROM cached_files WHERE state = ? ORDER BY share, path`, state.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.CacheRecord
	for rows.Next() {
		var rec models.CacheRecord
		var stateName string
		var errMsg, hash sql.NullString
		var modified sql.NullTime
		if err := rows.Scan(&rec.Share, &rec.Path, &rec.SizeBytes, &rec.DiscoveredAt, &modified, &stateName, &errMsg, &hash); err != nil {
			return nil, err
		}
		st, err := models.ParseState(stateName)
		if err != nil {
			return nil, err
		}
		rec.State = st
		rec.ModifiedAt = modified.Time
		rec.ErrorMessage = errMsg.String
		rec.ContentHash = hash.String
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// UpsertIndexedDocument inserts or replaces the metadata for an indexed document.
func (c *SQLiteCache) UpsertIndexedDocument(ctx context.Context, doc *models.IndexedDocument) error {
	metaJSON, err := json.Marshal(doc.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if doc.Meta.IndexedAt.IsZero() {
		doc.Meta.IndexedAt = time.Now()
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO indexed_documents (doc_id, content_hash, metadata, indexed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET
		 	content_hash = excluded.content_hash,
		 	metadata = excluded.metadata,
		 	indexed_at = excluded.indexed_at`,
		doc.DocID, doc.ContentHash, string(metaJSON), doc.Meta.IndexedAt,
	)
	return err
}

// GetIndexedDocument returns the indexed document metadata for docID.
func (c *SQLiteCache) GetIndexedDocument(ctx context.Context, docID string) (*models.IndexedDocument, bool, error) {
	var doc models.IndexedDocument
	var metaJSON string
	var indexedAt time.Time

	err := c.db.QueryRowContext(ctx,
		`SELECT doc_id, content_hash, metadata, indexed_at FROM indexed_documents WHERE doc_id = ?`,
		docID,
	).Scan(&doc.DocID, &doc.ContentHash, &metaJSON, &indexedAt)

	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &doc, true, nil
}

// ListIndexedDocuments returns all indexed document metadata ordered by doc_id.
func (c *SQLiteCache) ListIndexedDocuments(ctx context.Context) ([]*models.IndexedDocument, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT doc_id, content_hash, metadata FROM indexed_documents ORDER BY doc_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.IndexedDocument
	for rows.Next() {
		var doc models.IndexedDocument
		var metaJSON string
		if err := rows.Scan(&doc.DocID, &doc.ContentHash, &metaJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metaJSON), &doc.Meta); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// CountIndexedDocuments returns the total number of indexed documents.
func (c *SQLiteCache) CountIndexedDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM indexed_documents`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
