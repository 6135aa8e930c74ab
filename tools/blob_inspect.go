package main

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/infrastructure/storage"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	backend := flag.String("backend", "badger", "Store to inspect: badger or disk")
	dbPath := flag.String("db", "./data/blobs", "Path to badger DB")
	dir := flag.String("dir", ".", "Directory of the disk store")
	flag.Parse()

	logger := logs.GetLoggerFromLevel(slog.LevelWarn)
	store, err := openStore(*backend, *dbPath, *dir, logger)
	if err != nil {
		log.Fatal("Error while opening store: ", err)
	}
	defer store.Close()

	blobs, err := store.List(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Origin", "Name", "Size", "Chunks", "Updated"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, blob := range blobs {
		origin, name := splitOrigin(blob.Key)
		table.Append([]string{
			blob.Key,
			origin,
			name,
			strconv.FormatInt(blob.Size, 10),
			chunks(*backend, blob.Size),
			blob.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	table.Render()
	fmt.Printf("%d blob(s)\n", len(blobs))
}

func openStore(backend, dbPath, dir string, logger *slog.Logger) (contract.BlobStore, error) {
	switch backend {
	case "badger":
		// Read-only so the inspector can run next to a live relay.
		db, err := badger.Open(badger.DefaultOptions(dbPath).
			WithReadOnly(true).
			WithLogger(nil).
			WithBypassLockGuard(true))
		if err != nil {
			return nil, err
		}
		return storage.NewBadgerStore(db, logger), nil
	case "disk":
		return storage.NewDiskStore(dir, logger)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func splitOrigin(key string) (string, string) {
	for _, origin := range []domain.Origin{domain.OriginServer, domain.OriginClient} {
		if name, ok := strings.CutPrefix(key, string(origin)); ok {
			return strings.TrimSuffix(string(origin), "_"), name
		}
	}
	return "-", key
}

func chunks(backend string, size int64) string {
	if backend != "badger" {
		return "-"
	}
	return strconv.FormatInt((size+storage.BadgerChunkSize-1)/storage.BadgerChunkSize, 10)
}
