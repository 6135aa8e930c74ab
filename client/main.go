package main

import (
	"bufio"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avast/retry-go"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/urfave/cli/v3"
)

const (
	exitOK      = 0
	exitRuntime = 1
)

const dialDelay = 500 * time.Millisecond

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
		return exitRuntime
	}
	return exitOK
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat-client",
		Usage: "terminal client for the chat relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "relay address host:port",
				Value:   "localhost:1234",
				Sources: cli.EnvVars("CHAT_SERVER_ADDR"),
			},
			&cli.StringFlag{
				Name:    "name",
				Usage:   "display name sent on the first prompt",
				Sources: cli.EnvVars("CHAT_NAME"),
			},
			&cli.StringFlag{
				Name:    "download-dir",
				Usage:   "directory receiving client_<file> downloads",
				Value:   ".",
				Sources: cli.EnvVars("CHAT_DOWNLOAD_DIR"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "WARN",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.IntFlag{
				Name:  "dial-attempts",
				Usage: "connection attempts before giving up",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "print plain text",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("no-color") {
				color.Disable()
			}
			log := logs.GetLoggerFromString(cmd.String("log-level"))
			attempts := max(cmd.Int("dial-attempts"), 1)
			conn, err := dial(ctx, cmd.String("addr"), uint(attempts), log)
			if err != nil {
				return err
			}
			client := NewClient(conn, cmd.String("name"), cmd.String("download-dir"), os.Stdout, log)
			return session(ctx, client, os.Stdin, log)
		},
	}
}

// dial retries the TCP connect so the client can be started before the relay.
func dial(ctx context.Context, addr string, attempts uint, log *slog.Logger) (net.Conn, error) {
	var (
		conn   net.Conn
		dialer net.Dialer
	)
	err := retry.Do(
		func() error {
			c, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(dialDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("Dial failed, retrying", "addr", addr, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", addr, err)
	}
	log.Info("Connected", "addr", addr)
	return conn, nil
}

// session pumps input lines into the client until the relay hangs up or
// ctx is cancelled.
func session(ctx context.Context, client *Client, input io.Reader, log *slog.Logger) error {
	received := make(chan error, 1)
	go func() {
		received <- client.Receive()
	}()

	go func() {
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			err := client.Handle(scanner.Text())
			if err == nil {
				continue
			}
			color.Fprintln(os.Stderr, color.Red.Sprint(err.Error()))
			if stderrors.Is(err, errors.ErrConnectionClosed) || stderrors.Is(err, io.ErrUnexpectedEOF) {
				_ = client.Close()
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = client.Close()
		<-received
		return nil
	case err := <-received:
		_ = client.Close()
		if stderrors.Is(err, errors.ErrConnectionClosed) {
			log.Info("Disconnected")
			return nil
		}
		return err
	}
}
