package storage

import (
	"bytes"
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

const (
	manifestPrefix = "blob:"
	chunkPrefix    = "chunk:"
	// BadgerChunkSize bounds the value size of one chunk entry.
	BadgerChunkSize = 64 * 1024
)

// manifest is the committed view of one blob. Chunks live under the
// upload ID, so replacing a blob is a single manifest swap.
type manifest struct {
	UploadID  string    `cbor:"1,keyasint"`
	Size      int64     `cbor:"2,keyasint"`
	Chunks    int       `cbor:"3,keyasint"`
	UpdatedAt time.Time `cbor:"4,keyasint"`
}

type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{db: db, log: log}
}

// OpenBadgerStore opens (or creates) a database at path and owns it.
func OpenBadgerStore(path string, log *slog.Logger) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at %s: %w", errors.ErrStorage, path, err)
	}
	return NewBadgerStore(db, log), nil
}

func (b *BadgerStore) Create(_ context.Context, key string, size int64) (contract.BlobWriter, error) {
	return &badgerWriter{
		store:    b,
		key:      key,
		uploadID: uuid.NewString(),
		batch:    b.db.NewWriteBatch(),
		buf:      make([]byte, 0, min(size, BadgerChunkSize)),
	}, nil
}

// Open pins a read-only transaction for the reader's lifetime, so a blob
// replaced while it is being read is still served whole.
func (b *BadgerStore) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	txn := b.db.NewTransaction(false)
	m, err := readManifest(txn, key)
	if err != nil {
		txn.Discard()
		return nil, 0, err
	}
	return &badgerReader{txn: txn, m: m}, m.Size, nil
}

func (b *BadgerStore) List(_ context.Context) ([]contract.BlobInfo, error) {
	var blobs []contract.BlobInfo
	prefix := []byte(manifestPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var m manifest
			if err := item.Value(func(v []byte) error {
				return cbor.Unmarshal(v, &m)
			}); err != nil {
				return fmt.Errorf("decode manifest %s: %w", item.Key(), err)
			}
			blobs = append(blobs, contract.BlobInfo{
				Key:       string(item.Key()[len(prefix):]),
				Size:      m.Size,
				UpdatedAt: m.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return blobs, nil
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func readManifest(txn *badger.Txn, key string) (manifest, error) {
	var m manifest
	item, err := txn.Get([]byte(manifestPrefix + key))
	if err == nil {
		err = item.Value(func(v []byte) error {
			return cbor.Unmarshal(v, &m)
		})
	}
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return manifest{}, fmt.Errorf("%w: %s", errors.ErrBlobNotFound, key)
	}
	if err != nil {
		return manifest{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return m, nil
}

func chunkKey(uploadID string, index int) []byte {
	return fmt.Appendf(nil, "%s%s:%08d", chunkPrefix, uploadID, index)
}

// deleteChunks writes tombstones for chunks [0, n) of an upload. Readers
// holding an older transaction keep seeing the chunks until they finish.
func (b *BadgerStore) deleteChunks(uploadID string, n int) error {
	if n == 0 {
		return nil
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for i := range n {
		if err := wb.Delete(chunkKey(uploadID, i)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

type badgerWriter struct {
	store    *BadgerStore
	key      string
	uploadID string
	batch    *badger.WriteBatch
	buf      []byte
	chunks   int
	size     int64
}

func (w *badgerWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		n := min(len(p), BadgerChunkSize-len(w.buf))
		w.buf = append(w.buf, p[:n]...)
		p = p[n:]
		written += n
		if len(w.buf) == BadgerChunkSize {
			if err := w.flushChunk(); err != nil {
				return written, err
			}
		}
	}
	w.size += int64(written)
	return written, nil
}

// flushChunk hands the buffer to the batch; the batch keeps the slice
// until it is flushed so a fresh one is allocated.
func (w *badgerWriter) flushChunk() error {
	if err := w.batch.Set(chunkKey(w.uploadID, w.chunks), w.buf); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	w.chunks++
	w.buf = make([]byte, 0, BadgerChunkSize)
	return nil
}

func (w *badgerWriter) Commit() error {
	if len(w.buf) > 0 {
		if err := w.flushChunk(); err != nil {
			w.discard()
			return err
		}
	}
	if err := w.batch.Flush(); err != nil {
		w.discard()
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	data, err := cbor.Marshal(manifest{
		UploadID:  w.uploadID,
		Size:      w.size,
		Chunks:    w.chunks,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		w.discard()
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	var previous *manifest
	err = w.store.db.Update(func(txn *badger.Txn) error {
		mKey := []byte(manifestPrefix + w.key)
		item, err := txn.Get(mKey)
		switch {
		case err == nil:
			var old manifest
			if err := item.Value(func(v []byte) error { return cbor.Unmarshal(v, &old) }); err == nil {
				previous = &old
			}
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(mKey, data)
	})
	if err != nil {
		w.discard()
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}

	if previous != nil {
		if err := w.store.deleteChunks(previous.UploadID, previous.Chunks); err != nil {
			w.store.log.Warn("Could not drop replaced chunks", "key", w.key, "upload_id", previous.UploadID, "error", err)
		}
	}
	return nil
}

func (w *badgerWriter) Abort() error {
	w.batch.Cancel()
	if err := w.store.deleteChunks(w.uploadID, w.chunks); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return nil
}

func (w *badgerWriter) discard() {
	w.batch.Cancel()
	if err := w.store.deleteChunks(w.uploadID, w.chunks); err != nil {
		w.store.log.Warn("Could not drop orphan chunks", "key", w.key, "upload_id", w.uploadID, "error", err)
	}
}

// badgerReader fetches chunks one at a time from its pinned transaction.
type badgerReader struct {
	txn   *badger.Txn
	m     manifest
	next  int
	cur   *bytes.Reader
}

func (r *badgerReader) Read(p []byte) (int, error) {
	for r.cur == nil || r.cur.Len() == 0 {
		if r.next >= r.m.Chunks {
			return 0, io.EOF
		}
		var chunk []byte
		item, err := r.txn.Get(chunkKey(r.m.UploadID, r.next))
		if err == nil {
			chunk, err = item.ValueCopy(nil)
		}
		if err != nil {
			return 0, fmt.Errorf("%w: chunk %d of %s: %w", errors.ErrStorage, r.next, r.m.UploadID, err)
		}
		r.next++
		r.cur = bytes.NewReader(chunk)
	}
	return r.cur.Read(p)
}

func (r *badgerReader) Close() error {
	r.txn.Discard()
	return nil
}
