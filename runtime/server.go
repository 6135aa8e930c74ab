package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

type ServerConfig struct {
	Addr            string
	OutboxSize      int
	MaxTransferSize int64
}

// Server accepts connections and runs one session loop per client.
// It is a contract.Worker: Run returns nil once ctx is done and every
// session has been torn down.
type Server struct {
	Registry  *Registry
	Directory *Directory
	router    *Router
	dispatch  *Dispatcher
	cfg       ServerConfig
	log       *slog.Logger

	mu       sync.Mutex
	listener net.Listener
	sessions map[*Session]struct{}
	wg       sync.WaitGroup
}

func NewServer(cfg ServerConfig, store contract.BlobStore, censor contract.Censor, log *slog.Logger) *Server {
	registry := NewRegistry()
	directory := NewDirectory()
	router := NewRouter(registry, directory, censor, log)
	transfers := NewTransferService(store, cfg.MaxTransferSize, log)
	return &Server{
		Registry:  registry,
		Directory: directory,
		router:    router,
		dispatch:  NewDispatcher(router, transfers, log),
		cfg:       cfg,
		log:       log,
		sessions:  make(map[*Session]struct{}),
	}
}

// Listen binds the configured address. It is the only fatal failure.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	s.listener = l
	s.log.Info("Listening", "addr", l.Addr().String())
	return nil
}

// Addr is nil until Listen succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	l := s.listener
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	var backoff time.Duration
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.shutdown()
				return nil
			}
			var ne net.Error
			if stderrors.As(err, &ne) && ne.Timeout() {
				backoff = min(max(2*backoff, 5*time.Millisecond), time.Second)
				s.log.Warn("Accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			// Let the supervisor restart us on a fresh listener.
			s.mu.Lock()
			_ = s.listener.Close()
			s.listener = nil
			s.mu.Unlock()
			return fmt.Errorf("accept: %w", err)
		}
		backoff = 0
		s.wg.Add(1)
		go s.serve(ctx, conn)
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	sess := NewSession(conn, conn.RemoteAddr().String(), s.cfg.OutboxSize, s.log)
	if !s.track(sess) {
		_ = sess.Close()
		return
	}
	defer s.untrack(sess)
	defer sess.Close()

	log := sess.log
	log.Info("Connection accepted")

	name, err := s.handshake(sess)
	if err != nil {
		log.Info("Connection closed before joining", "error", err)
		return
	}
	log = log.With("name", name)
	log.Info("Client joined")
	s.router.Announce(sess, domain.Joined(name))
	defer s.leave(sess, log)

	for {
		frame, err := sess.ReadText()
		if stderrors.Is(err, errors.ErrMalformedFrame) {
			log.Warn("Dropping undecodable frame", "error", err)
			continue
		}
		if err != nil {
			log.Info("Connection closed", "error", err)
			return
		}
		quit, err := s.dispatch.Dispatch(ctx, sess, frame)
		if err != nil {
			log.Info("Connection closed", "error", err)
			return
		}
		if quit {
			log.Info("Client quit")
			return
		}
	}
}

// handshake prompts until the client offers a valid, free name.
func (s *Server) handshake(sess *Session) (string, error) {
	sess.Send(domain.NamePrompt)
	for {
		name, err := sess.ReadText()
		if err != nil {
			return "", err
		}
		if err := domain.ValidateName(name); err != nil {
			sess.log.Debug("Name refused", "error", err)
			sess.Send(domain.InvalidName())
			continue
		}
		sess.setName(name)
		if err := s.Registry.Register(name, sess); err != nil {
			sess.log.Debug("Name refused", "error", err)
			sess.Send(domain.NameTaken(name))
			continue
		}
		return name, nil
	}
}

// leave announces the departure once, only if this session still owned its name.
func (s *Server) leave(sess *Session, log *slog.Logger) {
	if s.Registry.Unregister(sess) {
		s.router.Announce(sess, domain.Left(sess.Name()))
		log.Info("Client left")
	}
}

func (s *Server) track(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		return false
	}
	s.sessions[sess] = struct{}{}
	return true
}

// MaxBacklog reports the fullest outbox among connected sessions.
func (s *Server) MaxBacklog() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	backlog := 0
	for sess := range s.sessions {
		backlog = max(backlog, sess.Backlog())
	}
	return backlog
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess)
}

// shutdown closes every connection and waits for the session loops.
func (s *Server) shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = nil
	s.listener = nil
	s.mu.Unlock()

	for sess := range sessions {
		_ = sess.Close()
	}
	s.wg.Wait()
	s.log.Info("Server stopped", "closed_sessions", len(sessions))
}
