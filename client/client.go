package main

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/infrastructure/wire"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gookit/color"
)

const (
	cmdFile     = "/file"
	cmdVoice    = "/voice"
	cmdDownload = "/download"
)

// Client is the terminal side of one relay connection. Receive owns the
// read half, Handle may be called from any goroutine.
type Client struct {
	ch          *wire.Channel
	downloadDir string
	out         io.Writer
	log         *slog.Logger

	mu       sync.Mutex
	autoName string
}

func NewClient(conn io.ReadWriteCloser, name, downloadDir string, out io.Writer, log *slog.Logger) *Client {
	return &Client{
		ch:          wire.NewChannel(conn),
		downloadDir: downloadDir,
		out:         out,
		log:         log,
		autoName:    name,
	}
}

// Receive prints text frames and stores incoming transfers until the
// connection ends. It always returns a non-nil error.
func (c *Client) Receive() error {
	for {
		frame, err := c.ch.ReadText()
		if stderrors.Is(err, errors.ErrMalformedFrame) {
			c.log.Warn("Dropping undecodable frame", "error", err)
			continue
		}
		if err != nil {
			return err
		}
		if header, ok := domain.ParseTransferHeader(frame); ok {
			if err := c.save(header); err != nil {
				return err
			}
			continue
		}
		c.print(frame)
		if strings.HasSuffix(frame, domain.NamePrompt) {
			c.answerPrompt()
		}
	}
}

// Handle turns one input line into frames on the connection.
func (c *Client) Handle(line string) error {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}
	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case cmdFile:
		return c.upload(domain.TransferFile, arg)
	case cmdVoice:
		return c.upload(domain.TransferVoice, arg)
	case cmdDownload:
		if !domain.ValidFileName(arg) {
			return fmt.Errorf("invalid file name %q", arg)
		}
		return c.ch.WriteText("DOWNLOAD " + arg)
	default:
		return c.ch.WriteText(line)
	}
}

func (c *Client) Close() error {
	return c.ch.Close()
}

// answerPrompt sends the configured name once. A rejected name is left
// for the user to retype.
func (c *Client) answerPrompt() {
	c.mu.Lock()
	name := c.autoName
	c.autoName = ""
	c.mu.Unlock()
	if name == "" {
		return
	}
	if err := c.ch.WriteText(name); err != nil {
		c.log.Warn("Could not send name", "error", err)
	}
}

func (c *Client) upload(kind domain.TransferKind, path string) error {
	if path == "" {
		return fmt.Errorf("usage: /%s <path>", strings.ToLower(string(kind)))
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	header := domain.TransferHeader{Kind: kind, Name: filepath.Base(path), Size: info.Size()}
	if !domain.ValidFileName(header.Name) {
		return fmt.Errorf("invalid file name %q", header.Name)
	}
	if err := c.ch.WriteTransfer(header.String(), f, header.Size); err != nil {
		return err
	}
	c.log.Debug("Uploaded", "kind", header.Kind, "name", header.Name, "size", header.Size)
	color.Fprintln(c.out, color.Green.Sprintf("Sent %s (%d bytes)", header.Name, header.Size))
	return nil
}

// save streams a payload into client_<name>. When the local file cannot
// be created the bytes are still consumed so the stream stays in sync.
func (c *Client) save(header domain.TransferHeader) error {
	tmp, err := os.CreateTemp(c.downloadDir, ".download-*")
	if err != nil {
		c.log.Error("Could not create download file", "name", header.Name, "error", err)
		color.Fprintln(c.out, color.Red.Sprintf("Could not save %s", header.Name))
		return c.ch.ReceiveTo(io.Discard, header.Size)
	}
	if err := c.ch.ReceiveTo(tmp, header.Size); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	target := filepath.Join(c.downloadDir, domain.OriginClient.Key(header.Name))
	if err := os.Rename(tmp.Name(), target); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	c.log.Info("Transfer received", "kind", header.Kind, "name", header.Name, "size", header.Size, "path", target)
	color.Fprintln(c.out, color.Green.Sprintf("Received %s (%d bytes) -> %s", header.Name, header.Size, target))
	return nil
}

func (c *Client) print(frame string) {
	color.Fprintln(c.out, paint(frame))
}

func paint(frame string) string {
	switch {
	case strings.HasPrefix(frame, "Private "):
		return color.Magenta.Sprint(frame)
	case strings.HasPrefix(frame, "Group ") && strings.Contains(frame, " from "):
		return color.Cyan.Sprint(frame)
	case strings.HasSuffix(frame, " has joined the chat"), strings.HasSuffix(frame, " has left the chat"):
		return color.Gray.Sprint(frame)
	case strings.Contains(frame, " shared a file: "), strings.Contains(frame, " sent a voice message: "):
		return color.Green.Sprint(frame)
	case strings.HasPrefix(frame, "Incorrect format"),
		strings.HasPrefix(frame, "File not found"),
		strings.HasSuffix(frame, "not found."),
		strings.HasSuffix(frame, "does not exist."):
		return color.Red.Sprint(frame)
	case strings.HasSuffix(frame, domain.NamePrompt):
		return color.Yellow.Sprint(frame)
	default:
		return frame
	}
}
