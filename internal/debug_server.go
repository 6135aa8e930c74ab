package internal

import (
	"chat-relay/contract"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type StatsProvider func() map[string]any

// DebugSources feeds the read-only debug endpoints. Any of them may be nil.
type DebugSources struct {
	Clients func() []string
	Groups  func() map[string][]string
	Files   func(ctx context.Context) ([]contract.BlobInfo, error)
	Stats   StatsProvider
}

// DebugServer exposes the relay state over HTTP. It is a contract.Worker.
type DebugServer struct {
	addr    string
	sources DebugSources
	log     *slog.Logger
	router  chi.Router
}

func NewDebugServer(port int, sources DebugSources, log *slog.Logger) *DebugServer {
	d := &DebugServer{
		addr:    fmt.Sprintf("0.0.0.0:%d", port),
		sources: sources,
		log:     log,
	}
	r := chi.NewRouter()
	r.Get("/healthz", d.handleHealth)
	r.Get("/sessions", d.handleSessions)
	r.Get("/groups", d.handleGroups)
	r.Get("/groups/{name}", d.handleGroup)
	r.Get("/files", d.handleFiles)
	r.Get("/stats", d.handleStats)
	d.router = r
	return d
}

func (d *DebugServer) Handler() http.Handler { return d.router }

func (d *DebugServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              d.addr,
		Handler:           d.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Starting debug server", "addr", d.addr)
		errChan <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errChan:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("debug server: %w", err)
	}
}

func (d *DebugServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *DebugServer) handleSessions(w http.ResponseWriter, _ *http.Request) {
	clients := []string{}
	if d.sources.Clients != nil {
		clients = d.sources.Clients()
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(clients), "clients": clients})
}

func (d *DebugServer) handleGroups(w http.ResponseWriter, _ *http.Request) {
	groups := map[string][]string{}
	if d.sources.Groups != nil {
		groups = d.sources.Groups()
	}
	respondJSON(w, http.StatusOK, groups)
}

func (d *DebugServer) handleGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if d.sources.Groups != nil {
		if members, ok := d.sources.Groups()[name]; ok {
			respondJSON(w, http.StatusOK, map[string]any{"name": name, "members": members})
			return
		}
	}
	respondError(w, http.StatusNotFound, "group not found")
}

func (d *DebugServer) handleFiles(w http.ResponseWriter, r *http.Request) {
	if d.sources.Files == nil {
		respondJSON(w, http.StatusOK, []contract.BlobInfo{})
		return
	}
	files, err := d.sources.Files(r.Context())
	if err != nil {
		d.log.Error("Listing files failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list files")
		return
	}
	if files == nil {
		files = []contract.BlobInfo{}
	}
	respondJSON(w, http.StatusOK, files)
}

func (d *DebugServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{}
	if d.sources.Stats != nil {
		if s := d.sources.Stats(); s != nil {
			stats = s
		}
	}
	respondJSON(w, http.StatusOK, stats)
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
