package storage

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sgaunet/review-importer/pkg/constants"
)

var (
	// ErrPathTraversal is returned when an archive entry name escapes the archive root.
	ErrPathTraversal = errors.New("path traversal detected in archive")
	// ErrArchiveNotFound is returned when archive file doesn't exist.
	ErrArchiveNotFound = errors.New("archive not found")
	// ErrArchiveIsDirectory is returned when archive path points to a directory.
	ErrArchiveIsDirectory = errors.New("archive path is a directory")
	// ErrArchiveEmpty is returned when archive file is empty.
	ErrArchiveEmpty = errors.New("archive is empty")
)

// Entry is one file of an archive.
type Entry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// CreateArchive writes entries as a tar.gz file at path.
func CreateArchive(ctx context.Context, path string, entries []Entry) error {
	//nolint:gosec // G304: archive path is built by the caller
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.PrivateFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	gzw := gzip.NewWriter(f)
	tw := tar.NewWriter(gzw)

	err = writeEntries(ctx, tw, entries)
	if cerr := tw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish tar stream: %w", cerr)
	}
	if cerr := gzw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish gzip stream: %w", cerr)
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close archive: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func writeEntries(ctx context.Context, tw *tar.Writer, entries []Entry) error {
	for _, e := range entries {
		if ctx.Err() != nil {
			return fmt.Errorf("archive cancelled: %w", ctx.Err())
		}
		if !isValidPath(filepath.Clean(e.Name)) {
			return fmt.Errorf("%w: %s", ErrPathTraversal, e.Name)
		}
		modTime := e.ModTime
		if modTime.IsZero() {
			modTime = time.Now()
		}
		header := &tar.Header{
			Name:     filepath.ToSlash(e.Name),
			Mode:     constants.PrivateFilePermission,
			Size:     int64(len(e.Data)),
			ModTime:  modTime,
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	return nil
}

// ReadArchive returns the regular files of a tar.gz archive. Other entry types are skipped.
func ReadArchive(ctx context.Context, path string) ([]Entry, error) {
	tr, cleanup, err := openTarArchive(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var out []Entry
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("read cancelled: %w", ctx.Err())
		default:
		}

		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if !isValidPath(filepath.Clean(header.Name)) {
			return nil, fmt.Errorf("%w: %s", ErrPathTraversal, header.Name)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, header.Size))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		out = append(out, Entry{Name: header.Name, Data: data, ModTime: header.ModTime})
	}
	return out, nil
}

// openTarArchive opens a tar.gz archive and returns a tar reader and cleanup function.
func openTarArchive(archivePath string) (*tar.Reader, func(), error) {
	//nolint:gosec // G304: Archive path is validated by caller
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}

	gzr, err := gzip.NewReader(file)
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}

	cleanup := func() {
		_ = gzr.Close()
		_ = file.Close()
	}

	return tar.NewReader(gzr), cleanup, nil
}

// isValidPath checks if a path is relative and does not contain traversal sequences.
func isValidPath(path string) bool {
	if filepath.IsAbs(path) {
		return false
	}
	if strings.Contains(path, "..") {
		return false
	}
	return path != "."
}

// ValidateArchive checks that a file exists, is not empty and reads as tar.gz.
// It does NOT extract the archive.
func ValidateArchive(archivePath string) error {
	info, err := os.Stat(archivePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArchiveNotFound, archivePath)
		}
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrArchiveIsDirectory, archivePath)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrArchiveEmpty, archivePath)
	}

	//nolint:gosec // G304: Archive path is provided by caller and validated
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("invalid gzip format: %w", err)
	}
	defer func() {
		_ = gzr.Close()
	}()

	tr := tar.NewReader(gzr)
	_, err = tr.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid tar format: %w", err)
	}

	return nil
}
