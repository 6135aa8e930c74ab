package domain

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type TransferKind string

const (
	TransferFile  TransferKind = "FILE"
	TransferVoice TransferKind = "VOICE"
)

const maxFileNameLength = 255

// TransferHeader is the text frame that precedes exactly Size raw bytes.
type TransferHeader struct {
	Kind TransferKind
	Name string
	Size int64
}

func (h TransferHeader) String() string {
	return fmt.Sprintf("%s %s %d", h.Kind, h.Name, h.Size)
}

// ParseTransferHeader recognises a FILE or VOICE header frame.
func ParseTransferHeader(frame string) (TransferHeader, bool) {
	keyword, rest, ok := strings.Cut(frame, " ")
	if !ok {
		return TransferHeader{}, false
	}
	switch TransferKind(keyword) {
	case TransferFile, TransferVoice:
		return parseHeaderFields(TransferKind(keyword), rest)
	default:
		return TransferHeader{}, false
	}
}

func parseHeaderFields(kind TransferKind, rest string) (TransferHeader, bool) {
	fields := strings.Fields(rest)
	if len(fields) != 2 || !ValidFileName(fields[0]) {
		return TransferHeader{}, false
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return TransferHeader{}, false
	}
	return TransferHeader{Kind: kind, Name: fields[0], Size: size}, true
}

// ValidFileName accepts a single token that cannot escape a storage namespace.
func ValidFileName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > maxFileNameLength {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return r == '/' || r == '\\' || r == 0 || unicode.IsSpace(r)
	})
}

// Origin namespaces stored payloads so uploads and downloads never collide.
type Origin string

const (
	OriginServer Origin = "server_"
	OriginClient Origin = "client_"
)

func (o Origin) Key(name string) string {
	return string(o) + name
}
