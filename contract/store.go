//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package contract

import (
	"context"
	"io"
	"time"
)

// BlobStore persists transferred payloads keyed by origin-prefixed filename.
// Writing a key that already exists replaces it once the new blob is committed.
type BlobStore interface {
	Create(ctx context.Context, key string, size int64) (BlobWriter, error)
	// Open returns the blob content and its size, or ErrBlobNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	List(ctx context.Context) ([]BlobInfo, error)
	Close() error
}

// BlobWriter streams one blob. Nothing is visible to readers until Commit;
// Abort discards everything written so far.
type BlobWriter interface {
	io.Writer
	Commit() error
	Abort() error
}

type BlobInfo struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}
