package domain

import (
	"chat-relay/errors"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		expected Command
	}{
		{"Free text", "hello everyone", BroadcastCommand{Text: "hello everyone"}},
		{"Empty frame is free text", "", BroadcastCommand{Text: ""}},
		{"Keyword must be a whole token", "FILEX a 1", BroadcastCommand{Text: "FILEX a 1"}},
		{"Lowercase keyword is free text", "gmsg g hi", BroadcastCommand{Text: "gmsg g hi"}},
		{"Private message", "@bob hi there", PrivateCommand{Recipient: "bob", Text: "hi there"}},
		{"Private message with empty body", "@bob ", PrivateCommand{Recipient: "bob", Text: ""}},
		{"Group create", "GROUP CREATE devs", GroupCreateCommand{Group: "devs"}},
		{"Group add", "GROUP ADD devs bob", GroupAddCommand{Group: "devs", Member: "bob"}},
		{"Group kick", "GROUP KICK devs bob", GroupKickCommand{Group: "devs", Member: "bob"}},
		{"Group message keeps spaces", "GMSG devs ship it  now", GroupMessageCommand{Group: "devs", Text: "ship it  now"}},
		{"File header", "FILE report.pdf 1024", TransferCommand{Header: TransferHeader{Kind: TransferFile, Name: "report.pdf", Size: 1024}}},
		{"Voice header", "VOICE memo.wav 0", TransferCommand{Header: TransferHeader{Kind: TransferVoice, Name: "memo.wav", Size: 0}}},
		{"Download", "DOWNLOAD report.pdf", DownloadCommand{Name: "report.pdf"}},
		{"Quit", "Quit", QuitCommand{}},
		{"Quit lowercase", "quit", QuitCommand{}},
		{"Quit uppercase", "QUIT", QuitCommand{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(tt.frame)
			req.NoError(err)
			req.Equal(tt.expected, cmd)
		})
	}
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		usage string
	}{
		{"Private without space", "@bob", UsagePrivate},
		{"Private without recipient", "@ hi", UsagePrivate},
		{"Group message without text", "GMSG devs", UsageGroupMessage},
		{"Group message without group", "GMSG", UsageGroupMessage},
		{"Group without subcommand", "GROUP", UsageGroup},
		{"Group unknown subcommand", "GROUP DELETE devs", UsageGroup},
		{"Group create without name", "GROUP CREATE", UsageGroupCreate},
		{"Group create with spaces", "GROUP CREATE my devs", UsageGroupCreate},
		{"Group add missing member", "GROUP ADD devs", UsageGroupAdd},
		{"Group kick missing member", "GROUP KICK devs", UsageGroupKick},
		{"File without length", "FILE a.txt", UsageFile},
		{"File with negative length", "FILE a.txt -1", UsageFile},
		{"File with path", "FILE ../etc/passwd 3", UsageFile},
		{"Voice with bad length", "VOICE a.wav many", UsageVoice},
		{"Download without name", "DOWNLOAD", UsageDownload},
		{"Download with path", "DOWNLOAD a/b", UsageDownload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			cmd, err := Parse(tt.frame)
			req.Nil(cmd)
			req.ErrorIs(err, errors.ErrProtocolFormat)

			var formatErr *FormatError
			req.True(stderrors.As(err, &formatErr))
			req.Equal(tt.usage, formatErr.Usage)
		})
	}
}

func TestParse_RefusedHeaderKeepsDeclaredSize(t *testing.T) {
	req := require.New(t)

	// When the name is refused but the length is readable
	_, err := Parse("VOICE a/b.wav 42")

	// Then the payload length is still reported
	var formatErr *FormatError
	req.True(stderrors.As(err, &formatErr))
	req.Equal(int64(42), formatErr.Pending)

	_, err = Parse("FILE a.txt many")
	req.True(stderrors.As(err, &formatErr))
	req.Zero(formatErr.Pending)
}

func TestParseTransferHeader(t *testing.T) {
	req := require.New(t)

	h, ok := ParseTransferHeader("VOICE hello.wav 42")
	req.True(ok)
	req.Equal(TransferHeader{Kind: TransferVoice, Name: "hello.wav", Size: 42}, h)
	req.Equal("VOICE hello.wav 42", h.String())

	_, ok = ParseTransferHeader("bob: FILE a 1")
	req.False(ok)
	_, ok = ParseTransferHeader("FILE")
	req.False(ok)
}

func TestOrigin_Key(t *testing.T) {
	req := require.New(t)
	req.Equal("server_a.txt", OriginServer.Key("a.txt"))
	req.Equal("client_a.txt", OriginClient.Key("a.txt"))
}
