package storage

import (
	"bytes"
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// stores returns every BlobStore that runs without external services.
func stores(t *testing.T) map[string]contract.BlobStore {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	disk, err := NewDiskStore(t.TempDir(), log)
	require.NoError(t, err)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	bs := NewBadgerStore(db, log)
	t.Cleanup(func() { _ = bs.Close() })

	return map[string]contract.BlobStore{"disk": disk, "badger": bs}
}

func put(t *testing.T, store contract.BlobStore, key string, data []byte) {
	w, err := store.Create(context.Background(), key, int64(len(data)))
	require.NoError(t, err)
	// Odd sized writes cross chunk boundaries.
	for len(data) > 0 {
		n := min(len(data), 1000)
		_, err := w.Write(data[:n])
		require.NoError(t, err)
		data = data[n:]
	}
	require.NoError(t, w.Commit())
}

func get(t *testing.T, store contract.BlobStore, key string) []byte {
	r, size, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, size, int64(len(data)))
	return data
}

func TestBlobStore_RoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			payload := bytes.Repeat([]byte{0, 1, 2, 0xFF, 'x'}, 3*BadgerChunkSize/5+7)

			// Given a committed blob
			put(t, store, "server_big.bin", payload)

			// Then it reads back byte for byte
			req.Equal(payload, get(t, store, "server_big.bin"))
		})
	}
}

func TestBlobStore_EmptyBlob(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			put(t, store, "server_empty", nil)
			require.Empty(t, get(t, store, "server_empty"))
		})
	}
}

func TestBlobStore_OverwriteKeepsLastUpload(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)

			// Given a blob uploaded twice, the second one shorter
			put(t, store, "server_a.txt", bytes.Repeat([]byte("first"), BadgerChunkSize))
			put(t, store, "server_a.txt", []byte("second"))

			// Then only the last content remains
			req.Equal([]byte("second"), get(t, store, "server_a.txt"))

			blobs, err := store.List(context.Background())
			req.NoError(err)
			req.Len(blobs, 1)
			req.Equal("server_a.txt", blobs[0].Key)
			req.Equal(int64(6), blobs[0].Size)
		})
	}
}

func TestBlobStore_AbortLeavesPreviousVersion(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			put(t, store, "server_a.txt", []byte("kept"))

			// When a replacement upload is aborted halfway
			w, err := store.Create(context.Background(), "server_a.txt", 10)
			req.NoError(err)
			_, err = w.Write([]byte("parti"))
			req.NoError(err)
			req.NoError(w.Abort())

			// Then the committed version is unchanged and nothing else is listed
			req.Equal([]byte("kept"), get(t, store, "server_a.txt"))
			blobs, err := store.List(context.Background())
			req.NoError(err)
			req.Len(blobs, 1)
		})
	}
}

func TestBlobStore_OpenMissing(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, _, err := store.Open(context.Background(), "server_nope")
			require.ErrorIs(t, err, errors.ErrBlobNotFound)
		})
	}
}

func TestBlobStore_OverwriteWhileReading(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			first := bytes.Repeat([]byte("v1-chunk"), 4*BadgerChunkSize/8)
			put(t, store, "server_f", first)

			// Given a download already half-way through the first version
			r, size, err := store.Open(context.Background(), "server_f")
			req.NoError(err)
			defer r.Close()
			head := make([]byte, 10)
			_, err = io.ReadFull(r, head)
			req.NoError(err)

			// When another upload replaces the blob
			put(t, store, "server_f", []byte("v2"))

			// Then the open reader still delivers the whole first version
			rest, err := io.ReadAll(r)
			req.NoError(err)
			req.Equal(size, int64(len(head)+len(rest)))
			req.Equal(first, append(head, rest...))

			// And new readers see the replacement
			req.Equal([]byte("v2"), get(t, store, "server_f"))
		})
	}
}

func TestBadgerStore_OverwriteDeletesReplacedChunks(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	store := NewBadgerStore(db, logs.GetLoggerFromLevel(slog.LevelDebug))
	defer store.Close()

	// Given a blob spread over two chunks
	put(t, store, "server_f", bytes.Repeat([]byte{7}, BadgerChunkSize+1))
	var old manifest
	err = db.View(func(txn *badger.Txn) error {
		var err error
		old, err = readManifest(txn, "server_f")
		return err
	})
	req.NoError(err)
	req.Equal(2, old.Chunks)

	// When it is replaced
	put(t, store, "server_f", []byte("v2"))

	// Then the previous chunks are gone for new transactions
	for i := range old.Chunks {
		err := db.View(func(txn *badger.Txn) error {
			_, err := txn.Get(chunkKey(old.UploadID, i))
			return err
		})
		req.ErrorIs(err, badger.ErrKeyNotFound, fmt.Sprintf("chunk %d", i))
	}
}
