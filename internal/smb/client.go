// Package smb defines the remote share client contract used by the crawler
// and content pipeline, plus a local-directory-backed implementation.
package smb

import (
	"context"
	"errors"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
)

// ErrConnection indicates a transport or authentication failure. Fatal when
// listing shares; recoverable (skip the directory or file) everywhere else.
var ErrConnection = errors.New("share connection failed")

// ErrNotFound indicates the path does not exist, e.g. it vanished between
// listing and fetch. Always a file-local failure.
var ErrNotFound = errors.New("share path not found")

// ShareClient is the narrow contract over a remote share protocol.
// Implementations do not retry; retry policy belongs to the caller.
type ShareClient interface {
	// ListShares returns all shares visible with the configured credentials.
	ListShares(ctx context.Context) ([]string, error)
	// ListEntries lists immediate children of path within share;
	// path "" means the share root.
	ListEntries(ctx context.Context, share, path string) ([]models.DirEntry, error)
	// FetchContent retrieves the file bytes at path within share.
	FetchContent(ctx context.Context, share, path string) ([]byte, error)
}
