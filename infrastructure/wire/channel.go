// Package wire implements the framed channel shared by the relay and its
// clients: length-prefixed modified UTF-8 text frames interleaved with raw
// byte spans on one ordered stream.
package wire

import (
	"bufio"
	"chat-relay/errors"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

const (
	MaxFrameLen = 0xFFFF
	ChunkSize   = 4096
)

// Channel is safe for one reader and any number of writers. Writers are
// serialised so a frame, or a header and its payload, is never split.
type Channel struct {
	conn      io.ReadWriteCloser
	r         *bufio.Reader
	mu        sync.Mutex
	w         *bufio.Writer
	closeOnce sync.Once
	closeErr  error
}

func NewChannel(conn io.ReadWriteCloser) *Channel {
	return &Channel{
		conn: conn,
		r:    bufio.NewReaderSize(conn, ChunkSize),
		w:    bufio.NewWriterSize(conn, ChunkSize),
	}
}

// ReadText blocks until one complete text frame is available.
func (c *Channel) ReadText() (string, error) {
	var prefix [2]byte
	if _, err := io.ReadFull(c.r, prefix[:]); err != nil {
		return "", closed(err)
	}
	buf := make([]byte, binary.BigEndian.Uint16(prefix[:]))
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return "", closed(err)
	}
	return DecodeModifiedUTF8(buf)
}

// ReadBytes fills p with the next len(p) raw bytes of the stream.
func (c *Channel) ReadBytes(p []byte) error {
	if _, err := io.ReadFull(c.r, p); err != nil {
		return closed(err)
	}
	return nil
}

// ReceiveTo copies exactly n raw bytes into dst.
func (c *Channel) ReceiveTo(dst io.Writer, n int64) error {
	buf := make([]byte, ChunkSize)
	for n > 0 {
		chunk := buf[:min(int64(len(buf)), n)]
		if err := c.ReadBytes(chunk); err != nil {
			return err
		}
		if _, err := dst.Write(chunk); err != nil {
			return err
		}
		n -= int64(len(chunk))
	}
	return nil
}

func (c *Channel) WriteText(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeText(s); err != nil {
		return err
	}
	return c.flush()
}

func (c *Channel) WriteBytes(p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.w.Write(p); err != nil {
		return closed(err)
	}
	return c.flush()
}

// WriteTransfer sends header followed by exactly n bytes read from src.
// If src runs short the stream is out of sync and the channel must be closed.
func (c *Channel) WriteTransfer(header string, src io.Reader, n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.writeText(header); err != nil {
		return err
	}
	written, err := io.CopyBuffer(c.w, io.LimitReader(src, n), make([]byte, ChunkSize))
	if err != nil {
		return fmt.Errorf("payload copy after %d bytes: %w", written, err)
	}
	if written != n {
		return fmt.Errorf("payload short by %d bytes: %w", n-written, io.ErrUnexpectedEOF)
	}
	return c.flush()
}

func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *Channel) writeText(s string) error {
	encoded := EncodeModifiedUTF8(s)
	if len(encoded) > MaxFrameLen {
		return fmt.Errorf("%w: %d bytes", errors.ErrFrameTooLong, len(encoded))
	}
	var prefix [2]byte
	binary.BigEndian.PutUint16(prefix[:], uint16(len(encoded)))
	if _, err := c.w.Write(prefix[:]); err != nil {
		return closed(err)
	}
	if _, err := c.w.Write(encoded); err != nil {
		return closed(err)
	}
	return nil
}

func (c *Channel) flush() error {
	if err := c.w.Flush(); err != nil {
		return closed(err)
	}
	return nil
}

// closed maps any I/O failure on the connection to ErrConnectionClosed.
func closed(err error) error {
	return fmt.Errorf("%w: %w", errors.ErrConnectionClosed, err)
}
