package domain

import "fmt"

// Texts pushed by the relay to its clients.

const (
	NamePrompt  = "Enter your name: "
	SelfRemoval = "You cannot remove yourself from the group."
)

func NameTaken(name string) string {
	return fmt.Sprintf("Name %s is already taken. %s", name, NamePrompt)
}

func InvalidName() string {
	return "Invalid name. " + NamePrompt
}

func Joined(name string) string { return name + " has joined the chat" }

func Left(name string) string { return name + " has left the chat" }

func Chat(sender, text string) string { return sender + ": " + text }

func PrivateFrom(sender, text string) string { return "Private from " + sender + ": " + text }

func PrivateTo(recipient, text string) string { return "Private to " + recipient + ": " + text }

func ClientNotFound(name string) string { return "Client " + name + " not found." }

func ClientDoesNotExist(name string) string { return "Client " + name + " does not exist." }

func GroupCreated(group string) string { return "Group " + group + " created." }

func GroupExists(group string) string { return "Group " + group + " already exists." }

func GroupNotFound(group string) string { return "Group " + group + " does not exist." }

func AddedToGroup(member, group string) string {
	return "Added " + member + " to group " + group + "."
}

func RemovedFromGroup(member, group string) string {
	return "Removed " + member + " from group " + group + "."
}

func YouWereRemoved(group string) string {
	return "You have been removed from group " + group + "."
}

func NotAMember(member, group string) string {
	return "Client " + member + " is not a member of group " + group + "."
}

func SenderNotMember(group string) string {
	return "You are not a member of group " + group + "."
}

func GroupMessage(group, sender, text string) string {
	return "Group " + group + " from " + sender + ": " + text
}

// TransferShared announces a completed upload to the other clients.
func TransferShared(sender string, h TransferHeader) string {
	if h.Kind == TransferVoice {
		return sender + " sent a voice message: " + h.Name
	}
	return sender + " shared a file: " + h.Name
}

func FileNotFound(name string) string { return "File not found: " + name }

func TransferTooLarge(name string, limit int64) string {
	return fmt.Sprintf("Transfer rejected: %s exceeds %d bytes.", name, limit)
}

func StoreFailed(name string) string { return "Could not store file: " + name }

func ReadFailed(name string) string { return "Could not read file: " + name }
