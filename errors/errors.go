package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Connection level, terminal for the session that hits it.
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrFrameTooLong     = fmt.Errorf("frame exceeds 65535 encoded bytes")
	ErrMalformedFrame   = fmt.Errorf("malformed modified utf-8 frame")

	ErrProtocolFormat = fmt.Errorf("malformed command")

	ErrInvalidName = fmt.Errorf("invalid display name")
	ErrNameTaken   = fmt.Errorf("display name already taken")

	ErrNameNotFound       = fmt.Errorf("client not found")
	ErrMemberNotConnected = fmt.Errorf("member not connected")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrGroupExists        = fmt.Errorf("group already exists")
	ErrNotAMember         = fmt.Errorf("not a member of the group")
	ErrSenderNotMember    = fmt.Errorf("sender is not a member of the group")
	ErrSelfRemoval        = fmt.Errorf("cannot remove yourself from a group")

	ErrBlobNotFound     = fmt.Errorf("blob not found")
	ErrStorage          = fmt.Errorf("storage failure")
	ErrTransferTooLarge = fmt.Errorf("transfer exceeds the configured limit")
)
