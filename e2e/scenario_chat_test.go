package e2e

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseRelaySuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestChatFlow() {
	alice := s.Join(UniqueName("alice"))
	bob := s.Join(UniqueName("bob"))
	alice.ExpectText(domain.Joined(bob.Name))
	group := UniqueName("team")

	s.Run("Step 1: Broadcast reaches the others", func() {
		alice.Send("hello everyone")
		bob.ExpectText(domain.Chat(alice.Name, "hello everyone"))
	})

	s.Run("Step 2: Private message is echoed to the sender", func() {
		alice.Send("@" + bob.Name + " psst")
		bob.ExpectText(domain.PrivateFrom(alice.Name, "psst"))
		alice.ExpectText(domain.PrivateTo(bob.Name, "psst"))
	})

	s.Run("Step 3: Group lifecycle", func() {
		alice.Send("GROUP CREATE " + group)
		alice.ExpectText(domain.GroupCreated(group))

		bob.Send("GMSG " + group + " let me in")
		bob.ExpectText(domain.SenderNotMember(group))

		alice.Send("GROUP ADD " + group + " " + bob.Name)
		alice.ExpectText(domain.AddedToGroup(bob.Name, group))

		alice.Send("GMSG " + group + " welcome")
		bob.ExpectText(domain.GroupMessage(group, alice.Name, "welcome"))

		alice.Send("GROUP KICK " + group + " " + bob.Name)
		alice.ExpectText(domain.RemovedFromGroup(bob.Name, group))
		bob.ExpectText(domain.YouWereRemoved(group))
	})

	s.Run("Step 4: Upload then download", func() {
		payload := []byte("e2e payload " + group)
		name := group + ".txt"
		alice.Upload(domain.TransferHeader{Kind: domain.TransferFile, Name: name, Size: int64(len(payload))}, payload)
		bob.ExpectText(domain.TransferShared(alice.Name, domain.TransferHeader{Kind: domain.TransferFile, Name: name}))

		bob.Send("DOWNLOAD " + name)
		header, got := bob.ExpectTransfer(name)
		s.Require().Equal(domain.TransferFile, header.Kind)
		s.Require().Equal(payload, got)

		bob.Send("DOWNLOAD missing-" + name)
		bob.ExpectText(domain.FileNotFound("missing-" + name))
	})

	s.Run("Step 5: Quit announces the departure", func() {
		bob.Send("Quit")
		alice.ExpectText(domain.Left(bob.Name))
	})
}
