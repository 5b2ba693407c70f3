// Package localstorage stores archives in a local directory.
package localstorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sgaunet/review-importer/pkg/constants"
)

const tempPattern = ".partial-*"

// LocalStorage implements storage interface for local file system.
type LocalStorage struct {
	dirpath string
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(dirpath string) *LocalStorage {
	return &LocalStorage{
		dirpath: dirpath,
	}
}

// SaveFile copies archiveFilePath to dstFilename below the storage directory.
// The archive only appears under its final name once it is complete.
func (s *LocalStorage) SaveFile(ctx context.Context, archiveFilePath string, dstFilename string) error {
	if ctx.Err() != nil {
		return fmt.Errorf("operation cancelled before starting: %w", ctx.Err())
	}

	src, err := os.Open(archiveFilePath) //nolint:gosec // G304: archive path is built by the importer
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", archiveFilePath, err)
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(s.dirpath, dstFilename)
	dstDir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dstDir, constants.DefaultDirPermission); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	tmp, err := os.CreateTemp(dstDir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create destination file in %s: %w", dstDir, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	buf := make([]byte, constants.CopyBufferSize)
	if _, err := io.CopyBuffer(tmp, &contextReader{ctx: ctx, r: src}, buf); err != nil {
		return fmt.Errorf("failed to copy %s: %w", archiveFilePath, err)
	}
	if err := tmp.Chmod(constants.PrivateFilePermission); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", dstPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dstPath); err != nil {
		return fmt.Errorf("failed to move archive to %s: %w", dstPath, err)
	}
	committed = true
	return nil
}

// contextReader fails the copy as soon as ctx is done.
type contextReader struct {
	ctx context.Context //nolint:containedctx // scoped to a single SaveFile call
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("copy cancelled: %w", err)
	}
	n, err := c.r.Read(p)
	return n, err //nolint:wrapcheck // io.EOF must reach io.Copy unwrapped
}
