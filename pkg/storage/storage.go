// Package storage holds the archives of completed imports.
package storage

import (
	"context"
)

// Storage saves a local file under a destination name.
type Storage interface {
	SaveFile(ctx context.Context, archiveFilePath string, dstFilename string) error
}
