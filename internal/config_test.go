package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	cfg, err := Load()

	req.NoError(err)
	req.Equal("0.0.0.0:1234", cfg.Addr())
	req.Equal(256, cfg.OutboxSize)
	req.Equal(int64(100<<20), cfg.MaxTransferSize)
	req.Equal(BackendDisk, cfg.StorageBackend)
	req.Equal(time.Minute, cfg.StatsInterval)
	req.Equal(200*time.Millisecond, cfg.RestartInterval)
	req.Empty(cfg.Words())
}

func TestLoad_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "4000")
	t.Setenv("STORAGE_BACKEND", "badger")
	t.Setenv("BADGER_FILEPATH", "/tmp/blobs")
	t.Setenv("MODERATION_WORDS", "badger, snake,,")
	t.Setenv("CHARACTER_REPLACEMENT", "#")

	cfg, err := Load()

	req.NoError(err)
	req.Equal(4000, cfg.Port)
	req.Equal("/tmp/blobs", cfg.BadgerFilepath)
	req.Equal([]string{"badger", "snake"}, cfg.Words())
	r, err := CharacterRune(cfg.CharReplacement)
	req.NoError(err)
	req.Equal('#', r)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"Unknown backend", "STORAGE_BACKEND", "floppy"},
		{"Minio without endpoint", "STORAGE_BACKEND", "minio"},
		{"Empty outbox", "OUTBOX_SIZE", "0"},
		{"Replacement is not one character", "CHARACTER_REPLACEMENT", "**"},
		{"Port out of range", "PORT", "70000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
