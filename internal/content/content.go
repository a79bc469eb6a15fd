// Package content stores binary content files (store logos) in a local directory
// or in S3-compatible object storage. When no bucket is configured the
// FileSystemStore is used and files are served by the HTTP server itself.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hyperengineering/shopkeep/internal/config"
	"github.com/hyperengineering/shopkeep/internal/types"
)

// ErrNotFound is returned when a content object does not exist.
var ErrNotFound = errors.New("content not found")

// Store persists content files and resolves their public URLs.
type Store interface {
	// Put writes r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the location clients use to fetch key.
	URL(ctx context.Context, key string) (string, error)
}

// ObjectKey returns the key for a store's content file.
// Convention: {store_code}/{content_type}/{file_name}
func ObjectKey(storeCode string, ct types.FileContentType, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", storeCode, ct, fileName)
}

// NewStore creates the appropriate Store based on configuration.
// Returns a FileSystemStore when the bucket is empty, an S3Store otherwise.
func NewStore(cfg config.ContentConfig) (Store, error) {
	if cfg.S3.Bucket == "" {
		return NewFileSystemStore(cfg.Dir, cfg.BaseURL)
	}
	return NewS3Store(cfg.S3)
}
