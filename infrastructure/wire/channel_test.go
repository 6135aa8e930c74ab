package wire

import (
	"bytes"
	"chat-relay/errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModifiedUTF8_KnownEncodings(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{"ASCII", "Hi", []byte{'H', 'i'}},
		{"NUL uses two bytes", "\x00", []byte{0xC0, 0x80}},
		{"Two byte character", "é", []byte{0xC3, 0xA9}},
		{"Three byte character", "€", []byte{0xE2, 0x82, 0xAC}},
		{"Supplementary character as surrogate pair", "😀", []byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			encoded := EncodeModifiedUTF8(tt.input)
			req.Equal(tt.expected, encoded)

			decoded, err := DecodeModifiedUTF8(encoded)
			req.NoError(err)
			req.Equal(tt.input, decoded)
		})
	}
}

func TestModifiedUTF8_RejectsTruncatedSequence(t *testing.T) {
	req := require.New(t)
	_, err := DecodeModifiedUTF8([]byte{'a', 0xE2, 0x82})
	req.ErrorIs(err, errors.ErrMalformedFrame)

	_, err = DecodeModifiedUTF8([]byte{0xF0, 0x9F, 0x98, 0x80})
	req.ErrorIs(err, errors.ErrMalformedFrame)
}

func TestChannel_TextAndBytesKeepOrder(t *testing.T) {
	req := require.New(t)
	left, right := net.Pipe()
	sender, receiver := NewChannel(left), NewChannel(right)
	defer sender.Close()
	defer receiver.Close()

	payload := bytes.Repeat([]byte("0123456789"), 1000)

	// Given a text frame, a header and its payload written back to back
	go func() {
		_ = sender.WriteText("hello Zoë")
		_ = sender.WriteTransfer("FILE a.bin 10000", bytes.NewReader(payload), int64(len(payload)))
		_ = sender.WriteText("after")
	}()

	// Then the receiver reads them in order, switching to raw mode for the payload
	text, err := receiver.ReadText()
	req.NoError(err)
	req.Equal("hello Zoë", text)

	header, err := receiver.ReadText()
	req.NoError(err)
	req.Equal("FILE a.bin 10000", header)

	var got bytes.Buffer
	req.NoError(receiver.ReceiveTo(&got, int64(len(payload))))
	req.Equal(payload, got.Bytes())

	text, err = receiver.ReadText()
	req.NoError(err)
	req.Equal("after", text)
}

func TestChannel_WriteBytesReadBytes(t *testing.T) {
	req := require.New(t)
	left, right := net.Pipe()
	sender, receiver := NewChannel(left), NewChannel(right)
	defer sender.Close()
	defer receiver.Close()

	go func() { _ = sender.WriteBytes([]byte{1, 2, 3, 4}) }()

	buf := make([]byte, 4)
	req.NoError(receiver.ReadBytes(buf))
	req.Equal([]byte{1, 2, 3, 4}, buf)
}

func TestChannel_PeerCloseIsConnectionClosed(t *testing.T) {
	req := require.New(t)
	left, right := net.Pipe()
	receiver := NewChannel(right)

	// Given the peer writes half a frame then disconnects
	go func() {
		_, _ = left.Write([]byte{0x00, 0x05, 'a', 'b'})
		_ = left.Close()
	}()

	// Then the pending read fails as a closed connection
	_, err := receiver.ReadText()
	req.ErrorIs(err, errors.ErrConnectionClosed)
}

func TestChannel_FrameTooLong(t *testing.T) {
	req := require.New(t)
	left, right := net.Pipe()
	sender := NewChannel(left)
	defer sender.Close()
	defer right.Close()

	err := sender.WriteText(strings.Repeat("a", MaxFrameLen+1))
	req.ErrorIs(err, errors.ErrFrameTooLong)
}

func TestChannel_WriteTransferShortSource(t *testing.T) {
	req := require.New(t)
	left, right := net.Pipe()
	sender, receiver := NewChannel(left), NewChannel(right)
	defer sender.Close()

	go func() {
		_, _ = receiver.ReadText()
		buf := make([]byte, 3)
		_ = receiver.ReadBytes(buf)
		_ = receiver.Close()
	}()

	// When the source holds fewer bytes than declared
	err := sender.WriteTransfer("FILE a 10", bytes.NewReader([]byte("abc")), 10)

	// Then the transfer fails
	req.Error(err)
}
