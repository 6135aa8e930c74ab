package main

import (
	"chat-relay/contract"
	"chat-relay/infrastructure/storage"
	"chat-relay/internal"
	"chat-relay/moderation"
	"context"
	"fmt"
	"log/slog"
)

// openStore builds the blob store selected by STORAGE_BACKEND.
func openStore(ctx context.Context, config internal.Config, log *slog.Logger) (contract.BlobStore, error) {
	switch config.StorageBackend {
	case internal.BackendDisk:
		return storage.NewDiskStore(config.StorageDir, log)
	case internal.BackendBadger:
		return storage.OpenBadgerStore(config.BadgerFilepath, log)
	case internal.BackendMinio:
		return storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  config.MinioEndpoint,
			AccessKey: config.MinioAccessKey,
			SecretKey: config.MinioSecretKey,
			Bucket:    config.MinioBucket,
			UseSSL:    config.MinioUseSSL,
		}, log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.StorageBackend)
	}
}

// newCensor returns nil when no moderation word is configured.
func newCensor(config internal.Config, log *slog.Logger) (contract.Censor, error) {
	words := config.Words()
	if len(words) == 0 {
		return nil, nil
	}
	char, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return nil, err
	}
	mod, err := moderation.NewModerator(words, char, log)
	if err != nil {
		return nil, fmt.Errorf("moderator: %w", err)
	}
	return mod, nil
}
