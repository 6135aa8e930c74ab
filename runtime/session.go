package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/wire"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// outbound is one item of a session outbox: a text frame, or a transfer
// header with its payload written back to back.
type outbound struct {
	text   string
	header *domain.TransferHeader
	body   io.ReadCloser
}

func (o outbound) release() {
	if o.body != nil {
		_ = o.body.Close()
	}
}

// Session is the server side of one client connection.
// Only the session loop reads from the channel; every write goes through
// the outbox so that a single goroutine owns the outbound side.
type Session struct {
	ID      string
	Addr    string
	name    string
	channel *wire.Channel
	log     *slog.Logger

	mu         sync.Mutex
	stopped    bool
	outbox     chan outbound
	writerDone chan struct{}
}

func NewSession(conn io.ReadWriteCloser, addr string, outboxSize int, log *slog.Logger) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:         id,
		Addr:       addr,
		channel:    wire.NewChannel(conn),
		log:        log.With("session_id", id, "addr", addr),
		outbox:     make(chan outbound, outboxSize),
		writerDone: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *Session) Name() string { return s.name }

// setName is called once, before the session is registered.
func (s *Session) setName(name string) {
	s.name = name
}

// ReadText and ReadBytes are only called by the session loop.
func (s *Session) ReadText() (string, error) { return s.channel.ReadText() }

func (s *Session) ReadBytes(p []byte) error { return s.channel.ReadBytes(p) }

func (s *Session) Send(text string) bool {
	return s.enqueue(outbound{text: text})
}

func (s *Session) SendTransfer(header domain.TransferHeader, body io.ReadCloser) bool {
	if !s.enqueue(outbound{header: &header, body: body}) {
		_ = body.Close()
		return false
	}
	return true
}

func (s *Session) enqueue(item outbound) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	select {
	case s.outbox <- item:
		return true
	default:
		s.log.Warn("Outbox full, dropping frame", "capacity", cap(s.outbox))
		return false
	}
}

// Backlog is the number of items waiting for the writer.
func (s *Session) Backlog() int { return len(s.outbox) }

// stop refuses further sends and lets the writer drain what is queued.
func (s *Session) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		close(s.outbox)
	}
}

// Close tears the connection down and waits for the writer to exit.
func (s *Session) Close() error {
	s.stop()
	err := s.channel.Close()
	<-s.writerDone
	return err
}

func (s *Session) writeLoop() {
	defer close(s.writerDone)
	failed := false
	for item := range s.outbox {
		if failed {
			item.release()
			continue
		}
		if err := s.write(item); err != nil {
			if stderrors.Is(err, errors.ErrFrameTooLong) {
				s.log.Warn("Dropping oversized frame", "error", err)
				continue
			}
			s.log.Debug("Write failed, closing connection", "error", err)
			failed = true
			s.stop()
			_ = s.channel.Close()
		}
	}
}

func (s *Session) write(item outbound) error {
	if item.header == nil {
		return s.channel.WriteText(item.text)
	}
	defer item.release()
	return s.channel.WriteTransfer(item.header.String(), item.body, item.header.Size)
}
