package domain

import (
	"chat-relay/errors"
	"strconv"
	"strings"
)

const (
	QuitKeyword     = "Quit"
	GroupKeyword    = "GROUP"
	GroupMsgKeyword = "GMSG"
	DownloadKeyword = "DOWNLOAD"
)

const (
	UsagePrivate      = "Incorrect format. Use @recipientName message"
	UsageGroupMessage = "Incorrect format. Use GMSG groupName message"
	UsageGroup        = "Incorrect format. Use GROUP CREATE|ADD|KICK groupName [participantName]"
	UsageGroupCreate  = "Incorrect format. Use GROUP CREATE groupName"
	UsageGroupAdd     = "Incorrect format. Use GROUP ADD groupName participantName"
	UsageGroupKick    = "Incorrect format. Use GROUP KICK groupName participantName"
	UsageFile         = "Incorrect format. Use FILE fileName length"
	UsageVoice        = "Incorrect format. Use VOICE fileName length"
	UsageDownload     = "Incorrect format. Use DOWNLOAD fileName"
)

// FormatError is returned by Parse for a recognised command keyword with
// malformed arguments. Usage is the notice sent back to the sender.
// Pending is the payload length a refused transfer header still declared:
// those bytes are on the stream and must be skipped.
type FormatError struct {
	Usage   string
	Pending int64
}

func (e *FormatError) Error() string { return e.Usage }

func (e *FormatError) Unwrap() error { return errors.ErrProtocolFormat }

func usage(text string) error {
	return &FormatError{Usage: text}
}

// Parse classifies one text frame. The first space-delimited token selects
// the command; anything that is not a command keyword is free text.
func Parse(frame string) (Command, error) {
	if strings.EqualFold(frame, QuitKeyword) {
		return QuitCommand{}, nil
	}
	if strings.HasPrefix(frame, "@") {
		return parsePrivate(frame)
	}

	keyword, rest, _ := strings.Cut(frame, " ")
	switch keyword {
	case GroupKeyword:
		return parseGroup(rest)
	case GroupMsgKeyword:
		return parseGroupMessage(rest)
	case string(TransferFile):
		return parseTransfer(TransferFile, rest, UsageFile)
	case string(TransferVoice):
		return parseTransfer(TransferVoice, rest, UsageVoice)
	case DownloadKeyword:
		name := strings.TrimSpace(rest)
		if !ValidFileName(name) {
			return nil, usage(UsageDownload)
		}
		return DownloadCommand{Name: name}, nil
	}
	return BroadcastCommand{Text: frame}, nil
}

func parsePrivate(frame string) (Command, error) {
	recipient, text, ok := strings.Cut(frame[1:], " ")
	if !ok || recipient == "" {
		return nil, usage(UsagePrivate)
	}
	return PrivateCommand{Recipient: recipient, Text: text}, nil
}

func parseGroup(rest string) (Command, error) {
	sub, args, _ := strings.Cut(rest, " ")
	fields := strings.Fields(args)
	switch sub {
	case "CREATE":
		if len(fields) != 1 {
			return nil, usage(UsageGroupCreate)
		}
		return GroupCreateCommand{Group: fields[0]}, nil
	case "ADD":
		if len(fields) != 2 {
			return nil, usage(UsageGroupAdd)
		}
		return GroupAddCommand{Group: fields[0], Member: fields[1]}, nil
	case "KICK":
		if len(fields) != 2 {
			return nil, usage(UsageGroupKick)
		}
		return GroupKickCommand{Group: fields[0], Member: fields[1]}, nil
	default:
		return nil, usage(UsageGroup)
	}
}

// parseGroupMessage keeps the message verbatim, spaces included.
func parseGroupMessage(rest string) (Command, error) {
	group, text, ok := strings.Cut(rest, " ")
	if !ok || group == "" {
		return nil, usage(UsageGroupMessage)
	}
	return GroupMessageCommand{Group: group, Text: text}, nil
}

func parseTransfer(kind TransferKind, rest, usageText string) (Command, error) {
	header, ok := parseHeaderFields(kind, rest)
	if !ok {
		return nil, &FormatError{Usage: usageText, Pending: declaredSize(rest)}
	}
	return TransferCommand{Header: header}, nil
}

// declaredSize recovers the length of a header refused for its file name.
func declaredSize(rest string) int64 {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return 0
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || size < 0 {
		return 0
	}
	return size
}
