package storage

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const tmpPrefix = ".upload-"

// DiskStore keeps one regular file per key inside dir.
type DiskStore struct {
	dir string
	log *slog.Logger
}

func NewDiskStore(dir string, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", errors.ErrStorage, dir, err)
	}
	return &DiskStore{dir: dir, log: log}, nil
}

// Create writes into a temporary file renamed over the key on Commit,
// so a reader never sees a partial upload.
func (d *DiskStore) Create(_ context.Context, key string, _ int64) (contract.BlobWriter, error) {
	f, err := os.CreateTemp(d.dir, tmpPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return &diskWriter{file: f, target: filepath.Join(d.dir, key)}, nil
}

func (d *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(filepath.Join(d.dir, key))
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", errors.ErrBlobNotFound, key)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, 0, fmt.Errorf("%w: %s", errors.ErrBlobNotFound, key)
	}
	return f, info.Size(), nil
}

func (d *DiskStore) List(_ context.Context) ([]contract.BlobInfo, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	var blobs []contract.BlobInfo
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			d.log.Debug("Skipping unreadable entry", "name", e.Name(), "error", err)
			continue
		}
		blobs = append(blobs, contract.BlobInfo{
			Key:       e.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}
	return blobs, nil
}

func (d *DiskStore) Close() error { return nil }

type diskWriter struct {
	file   *os.File
	target string
}

func (w *diskWriter) Write(p []byte) (int, error) {
	n, err := w.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return n, nil
}

func (w *diskWriter) Commit() error {
	if err := w.file.Close(); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	if err := os.Rename(w.file.Name(), w.target); err != nil {
		_ = os.Remove(w.file.Name())
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return nil
}

func (w *diskWriter) Abort() error {
	_ = w.file.Close()
	if err := os.Remove(w.file.Name()); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return nil
}
