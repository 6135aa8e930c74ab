package main

import (
	"chat-relay/internal"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until SIGINT/SIGTERM.
// Deferred cleanups run before main exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Blob storage
	store, err := openStore(ctx, config, log)
	if err != nil {
		return fmt.Errorf("storage opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing blob store...", "backend", config.StorageBackend)
		_ = store.Close()
	}()

	censor, err := newCensor(config, log)
	if err != nil {
		return err
	}

	// 4. Relay. Binding is checked here so a taken port fails the process.
	server := runtime.NewServer(runtime.ServerConfig{
		Addr:            config.Addr(),
		OutboxSize:      config.OutboxSize,
		MaxTransferSize: config.MaxTransferSize,
	}, store, censor, log)
	if err := server.Listen(); err != nil {
		return err
	}

	// 5. Supervision
	stats := workers.NewStatsWorker(log, config.StatsInterval, func() map[string]any {
		return map[string]any{
			"clients":        server.Registry.Len(),
			"groups":         server.Directory.Len(),
			"outbox_backlog": server.MaxBacklog(),
		}
	})
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(server, stats)

	if config.DebugPort > 0 {
		sup.Add(internal.NewDebugServer(config.DebugPort, internal.DebugSources{
			Clients: server.Registry.Names,
			Groups:  server.Directory.Snapshot,
			Files:   store.List,
			Stats:   stats.Latest,
		}, log))
	}

	log.Info("Chat relay started", "addr", server.Addr().String(), "backend", config.StorageBackend, "moderation", censor != nil)
	// 6. Blocks until ctx is done and every worker has returned
	sup.Run(ctx)
	log.Info("Program stopped cleanly")
	return nil
}
