package e2e

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/wire"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseRelaySuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayAddr == "" {
		s.T().Skip("CHAT_RELAY_ADDR not set")
	}
}

// Participant is one joined connection to the relay.
type Participant struct {
	Name string
	conn net.Conn
	ch   *wire.Channel
	s    *BaseRelaySuite
}

// UniqueName avoids collisions with other clients of a shared relay.
func UniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// Join dials the relay and answers the name prompt.
func (s *BaseRelaySuite) Join(name string) *Participant {
	header := fmt.Sprintf("  ====== %s joins ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, err := net.DialTimeout("tcp", s.Config.RelayAddr, s.Config.FrameTimeout)
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayAddr)
	p := &Participant{Name: name, conn: conn, ch: wire.NewChannel(conn), s: s}
	s.T().Cleanup(func() { _ = p.ch.Close() })

	p.Expect(func(frame string) bool { return frame == domain.NamePrompt })
	p.Send(name)
	return p
}

func (p *Participant) Send(text string) {
	p.s.T().Logf("%s -> %q", p.Name, text)
	p.s.Require().NoError(p.ch.WriteText(text))
}

func (p *Participant) Upload(header domain.TransferHeader, payload []byte) {
	p.s.T().Logf("%s -> %s", p.Name, header)
	p.s.Require().NoError(p.ch.WriteTransfer(header.String(), strings.NewReader(string(payload)), header.Size))
}

// Expect reads frames until match accepts one. Unrelated traffic from
// other clients is skipped.
func (p *Participant) Expect(match func(string) bool) string {
	for {
		p.s.Require().NoError(p.conn.SetReadDeadline(time.Now().Add(p.s.Config.FrameTimeout)))
		frame, err := p.ch.ReadText()
		p.s.Require().NoError(err, "%s waiting for a frame", p.Name)
		p.s.T().Logf("%s <- %q", p.Name, frame)
		if match(frame) {
			return frame
		}
	}
}

func (p *Participant) ExpectText(text string) {
	p.Expect(func(frame string) bool { return frame == text })
}

// ExpectTransfer waits for a transfer header and returns its payload.
func (p *Participant) ExpectTransfer(name string) (domain.TransferHeader, []byte) {
	var header domain.TransferHeader
	p.Expect(func(frame string) bool {
		h, ok := domain.ParseTransferHeader(frame)
		header = h
		return ok && h.Name == name
	})
	var payload strings.Builder
	p.s.Require().NoError(p.ch.ReceiveTo(&payload, header.Size))
	return header, []byte(payload.String())
}
