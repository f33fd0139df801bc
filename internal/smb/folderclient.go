package smb

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
)

// FolderClient implements ShareClient over a single local directory exposed
// as one named share. It backs the inbox drop folder.
type FolderClient struct {
	dir   string
	share string
}

// NewFolderClient returns a client exposing dir as a share named share.
// The directory is created if it does not exist.
func NewFolderClient(dir, share string) (*FolderClient, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrConnection, dir, err)
	}
	return &FolderClient{dir: dir, share: share}, nil
}

// ListShares returns the single configured share name.
func (c *FolderClient) ListShares(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []string{c.share}, nil
}

// ListEntries lists the immediate children of path within the share.
func (c *FolderClient) ListEntries(ctx context.Context, share, relPath string) ([]models.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if share != c.share {
		return nil, fmt.Errorf("%w: share %s", ErrNotFound, share)
	}
	dir := filepath.Join(c.dir, filepath.FromSlash(relPath))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, share, relPath)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnection, dir, err)
	}
	out := make([]models.DirEntry, 0, len(entries))
	for _, e := range entries {
		info, infoErr := e.Info()
		if infoErr != nil {
			continue
		}
		entry := models.DirEntry{
			Name:        e.Name(),
			Path:        path.Join(relPath, e.Name()),
			IsDirectory: e.IsDir(),
			ModifiedAt:  info.ModTime(),
		}
		if !e.IsDir() {
			entry.SizeBytes = info.Size()
		}
		out = append(out, entry)
	}
	return out, nil
}

// FetchContent reads the file bytes at path within the share.
func (c *FolderClient) FetchContent(ctx context.Context, share, relPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if share != c.share {
		return nil, fmt.Errorf("%w: share %s", ErrNotFound, share)
	}
	file := filepath.Join(c.dir, filepath.FromSlash(relPath))
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, share, relPath)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnection, file, err)
	}
	return data, nil
}
