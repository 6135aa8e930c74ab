package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/wire"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/gabriel-vasile/mimetype"
)

// PayloadSource yields the raw bytes that follow a transfer header.
type PayloadSource interface {
	ReadBytes(p []byte) error
}

// TransferService moves payloads between the stream and the blob store.
// Uploads are stored under the server origin prefix.
type TransferService struct {
	store   contract.BlobStore
	maxSize int64
	log     *slog.Logger
}

func NewTransferService(store contract.BlobStore, maxSize int64, log *slog.Logger) *TransferService {
	return &TransferService{store: store, maxSize: maxSize, log: log}
}

// Receive consumes exactly header.Size bytes from src whatever happens, so
// the stream stays in sync. Only a failing src is terminal; every other
// failure is answered with one notice to sender.
func (t *TransferService) Receive(ctx context.Context, src PayloadSource, sender contract.Peer, header domain.TransferHeader) error {
	log := t.log.With("sender", sender.Name(), "file", header.Name, "kind", header.Kind, "size", header.Size)

	if header.Size > t.maxSize {
		if err := drain(src, header.Size); err != nil {
			return err
		}
		log.Warn("Transfer rejected", "limit", t.maxSize)
		sender.Send(domain.TransferTooLarge(header.Name, t.maxSize))
		return fmt.Errorf("%w: %s", errors.ErrTransferTooLarge, header.Name)
	}

	w, err := t.store.Create(ctx, domain.OriginServer.Key(header.Name), header.Size)
	if err != nil {
		if drainErr := drain(src, header.Size); drainErr != nil {
			return drainErr
		}
		log.Error("Could not open blob", "error", err)
		sender.Send(domain.StoreFailed(header.Name))
		return err
	}

	var storeErr error
	buf := make([]byte, wire.ChunkSize)
	for remaining := header.Size; remaining > 0; {
		chunk := buf[:min(int64(len(buf)), remaining)]
		if err := src.ReadBytes(chunk); err != nil {
			_ = w.Abort()
			log.Info("Transfer interrupted", "missing", remaining)
			return err
		}
		if remaining == header.Size {
			log = log.With("mime", mimetype.Detect(chunk).String())
		}
		if storeErr == nil {
			if _, err := w.Write(chunk); err != nil {
				storeErr = err
				_ = w.Abort()
			}
		}
		remaining -= int64(len(chunk))
	}

	if storeErr == nil {
		storeErr = w.Commit()
	}
	if storeErr != nil {
		log.Error("Could not store transfer", "error", storeErr)
		sender.Send(domain.StoreFailed(header.Name))
		if !stderrors.Is(storeErr, errors.ErrStorage) {
			storeErr = fmt.Errorf("%w: %w", errors.ErrStorage, storeErr)
		}
		return storeErr
	}

	log.Info("Transfer stored")
	return nil
}

// Download queues a stored upload back to requester, always as a FILE.
func (t *TransferService) Download(ctx context.Context, requester contract.Peer, name string) error {
	body, size, err := t.store.Open(ctx, domain.OriginServer.Key(name))
	switch {
	case stderrors.Is(err, errors.ErrBlobNotFound):
		requester.Send(domain.FileNotFound(name))
		return err
	case err != nil:
		t.log.Error("Could not open blob", "file", name, "error", err)
		requester.Send(domain.ReadFailed(name))
		return err
	}

	header := domain.TransferHeader{Kind: domain.TransferFile, Name: name, Size: size}
	if !requester.SendTransfer(header, body) {
		t.log.Warn("Download dropped", "requester", requester.Name(), "file", name)
		return nil
	}
	t.log.Debug("Download queued", "requester", requester.Name(), "file", name, "size", size)
	return nil
}

func drain(src PayloadSource, n int64) error {
	buf := make([]byte, wire.ChunkSize)
	for n > 0 {
		chunk := buf[:min(int64(len(buf)), n)]
		if err := src.ReadBytes(chunk); err != nil {
			return err
		}
		n -= int64(len(chunk))
	}
	return nil
}
