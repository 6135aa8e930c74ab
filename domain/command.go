// Package domain contains core concepts of the chat relay.
// This file defines the commands a client can issue over its text frames.
// Commands are plain values: no runtime, network, or storage logic here.
package domain

type CommandKind int

const (
	KindBroadcast CommandKind = iota
	KindPrivate
	KindGroupCreate
	KindGroupAdd
	KindGroupKick
	KindGroupMessage
	KindTransfer
	KindDownload
	KindQuit
)

func (k CommandKind) String() string {
	switch k {
	case KindBroadcast:
		return "broadcast"
	case KindPrivate:
		return "private"
	case KindGroupCreate:
		return "group_create"
	case KindGroupAdd:
		return "group_add"
	case KindGroupKick:
		return "group_kick"
	case KindGroupMessage:
		return "group_message"
	case KindTransfer:
		return "transfer"
	case KindDownload:
		return "download"
	case KindQuit:
		return "quit"
	default:
		return "unknown"
	}
}

type Command interface {
	Kind() CommandKind
}

// BroadcastCommand is any free text, relayed to every other client.
type BroadcastCommand struct {
	Text string
}

type PrivateCommand struct {
	Recipient string
	Text      string
}

type GroupCreateCommand struct {
	Group string
}

type GroupAddCommand struct {
	Group  string
	Member string
}

type GroupKickCommand struct {
	Group  string
	Member string
}

type GroupMessageCommand struct {
	Group string
	Text  string
}

// TransferCommand announces a payload of Header.Size raw bytes that follows
// immediately on the same stream.
type TransferCommand struct {
	Header TransferHeader
}

type DownloadCommand struct {
	Name string
}

type QuitCommand struct{}

func (BroadcastCommand) Kind() CommandKind    { return KindBroadcast }
func (PrivateCommand) Kind() CommandKind      { return KindPrivate }
func (GroupCreateCommand) Kind() CommandKind  { return KindGroupCreate }
func (GroupAddCommand) Kind() CommandKind     { return KindGroupAdd }
func (GroupKickCommand) Kind() CommandKind    { return KindGroupKick }
func (GroupMessageCommand) Kind() CommandKind { return KindGroupMessage }
func (TransferCommand) Kind() CommandKind     { return KindTransfer }
func (DownloadCommand) Kind() CommandKind     { return KindDownload }
func (QuitCommand) Kind() CommandKind         { return KindQuit }
