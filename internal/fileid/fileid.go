// Package fileid provides a deterministic document ID from a share and path.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
)

const prefix = "smb:"

// DocID returns a stable document ID for the given share and share-relative
// path. The same (share, path) always yields the same ID, so re-indexing
// updates the existing index entry instead of creating a duplicate.
func DocID(share, relPath string) string {
	normalized := share + "/" + path.Clean(relPath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
