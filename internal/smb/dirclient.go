package smb

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/jonclaudedotnet/Hinkey-sub001/internal/models"
)

// DirClient implements ShareClient over a local directory tree: each
// subdirectory of the root is exposed as a share. This backs mounted
// network shares (e.g. /mnt/shared_drives) and test fixtures.
type DirClient struct {
	root string
}

// NewDirClient returns a client exposing root's subdirectories as shares.
// Fails with ErrConnection if root does not exist or is not a directory.
func NewDirClient(root string) (*DirClient, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrConnection, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrConnection, root)
	}
	return &DirClient{root: root}, nil
}

// ListShares returns the names of all subdirectories of the root, sorted.
func (c *DirClient) ListShares(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnection, c.root, err)
	}
	var shares []string
	for _, e := range entries {
		if e.IsDir() {
			shares = append(shares, e.Name())
		}
	}
	sort.Strings(shares)
	return shares, nil
}

// ListEntries lists the immediate children of path within share.
func (c *DirClient) ListEntries(ctx context.Context, share, relPath string) ([]models.DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir := filepath.Join(c.root, share, filepath.FromSlash(relPath))
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

// FetchContent reads the file bytes at path within share.
func (c *DirClient) FetchContent(ctx context.Context, share, relPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := filepath.Join(c.root, share, filepath.FromSlash(relPath))
	data, err := os.ReadFile(file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, share, relPath)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrConnection, file, err)
	}
	return data, nil
}
