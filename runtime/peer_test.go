package runtime

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mama165/sdk-go/logs"
)

var testLog = logs.GetLoggerFromLevel(slog.LevelDebug)

// fakePeer records what the relay pushes to it and serves payload bytes
// to the transfer service.
type fakePeer struct {
	name    string
	payload *bytes.Reader

	mu        sync.Mutex
	frames    []string
	transfers []domain.TransferHeader
	bodies    [][]byte
}

func newFakePeer(name string) *fakePeer {
	return &fakePeer{name: name}
}

func (p *fakePeer) Name() string { return p.name }

func (p *fakePeer) Send(text string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, text)
	return true
}

func (p *fakePeer) SendTransfer(header domain.TransferHeader, body io.ReadCloser) bool {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.transfers = append(p.transfers, header)
	p.bodies = append(p.bodies, data)
	return true
}

func (p *fakePeer) ReadBytes(b []byte) error {
	if p.payload == nil {
		return fmt.Errorf("%w: no payload", errors.ErrConnectionClosed)
	}
	if _, err := io.ReadFull(p.payload, b); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrConnectionClosed, err)
	}
	return nil
}

func (p *fakePeer) Frames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.frames...)
}
