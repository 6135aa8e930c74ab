package internal

import (
	"chat-relay/contract"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func newTestDebugServer() *DebugServer {
	return NewDebugServer(0, DebugSources{
		Clients: func() []string { return []string{"alice", "bob"} },
		Groups:  func() map[string][]string { return map[string][]string{"devs": {"alice", "bob"}} },
		Files: func(context.Context) ([]contract.BlobInfo, error) {
			return []contract.BlobInfo{{Key: "server_a.txt", Size: 3, UpdatedAt: time.Unix(0, 0).UTC()}}, nil
		},
		Stats: func() map[string]any { return map[string]any{"clients": 2} },
	}, logs.GetLoggerFromLevel(slog.LevelDebug))
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if resp.Body.Len() > 0 && resp.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	}
	return resp, body
}

func TestDebugServer_Routes(t *testing.T) {
	req := require.New(t)
	h := newTestDebugServer().Handler()

	resp, body := get(t, h, "/healthz")
	req.Equal(http.StatusOK, resp.Code)
	req.Equal("ok", body["status"])

	_, body = get(t, h, "/sessions")
	req.Equal(float64(2), body["count"])
	req.Equal([]any{"alice", "bob"}, body["clients"])

	_, body = get(t, h, "/groups/devs")
	req.Equal([]any{"alice", "bob"}, body["members"])

	resp, _ = get(t, h, "/groups/ops")
	req.Equal(http.StatusNotFound, resp.Code)

	resp, _ = get(t, h, "/files")
	req.Equal(http.StatusOK, resp.Code)
	var files []contract.BlobInfo
	req.NoError(json.Unmarshal(resp.Body.Bytes(), &files))
	req.Len(files, 1)
	req.Equal("server_a.txt", files[0].Key)

	_, body = get(t, h, "/stats")
	req.Equal(float64(2), body["clients"])
}

func TestDebugServer_FilesError(t *testing.T) {
	req := require.New(t)
	h := NewDebugServer(0, DebugSources{
		Files: func(context.Context) ([]contract.BlobInfo, error) { return nil, fmt.Errorf("boom") },
	}, logs.GetLoggerFromLevel(slog.LevelDebug)).Handler()

	resp, body := get(t, h, "/files")
	req.Equal(http.StatusInternalServerError, resp.Code)
	req.Equal("could not list files", body["error"])

	_, body = get(t, h, "/sessions")
	req.Equal(float64(0), body["count"])
}
