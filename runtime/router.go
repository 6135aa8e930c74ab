package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	stderrors "errors"
	"log/slog"

	"github.com/samber/lo"
)

// Router delivers chat traffic between peers. Every method answers the
// sender with at most one notice and returns the routing error, if any,
// for logging only.
type Router struct {
	registry  *Registry
	directory *Directory
	censor    contract.Censor
	log       *slog.Logger
}

// NewRouter accepts a nil censor.
func NewRouter(registry *Registry, directory *Directory, censor contract.Censor, log *slog.Logger) *Router {
	return &Router{registry: registry, directory: directory, censor: censor, log: log}
}

// Announce pushes a server notice to everyone but except, which may be nil.
func (r *Router) Announce(except contract.Peer, text string) int {
	recipients := lo.Filter(r.registry.All(), func(p contract.Peer, _ int) bool {
		return p != except
	})
	delivered := 0
	for _, p := range recipients {
		if p.Send(text) {
			delivered++
		}
	}
	return delivered
}

func (r *Router) Broadcast(sender contract.Peer, text string) int {
	return r.Announce(sender, domain.Chat(sender.Name(), r.clean(sender, text)))
}

func (r *Router) Private(sender contract.Peer, recipient, text string) error {
	peer, err := r.registry.Lookup(recipient)
	if err != nil {
		sender.Send(domain.ClientNotFound(recipient))
		return err
	}
	text = r.clean(sender, text)
	peer.Send(domain.PrivateFrom(sender.Name(), text))
	sender.Send(domain.PrivateTo(recipient, text))
	return nil
}

func (r *Router) CreateGroup(sender contract.Peer, group string) error {
	if err := r.directory.Create(group, sender.Name()); err != nil {
		sender.Send(domain.GroupExists(group))
		return err
	}
	sender.Send(domain.GroupCreated(group))
	return nil
}

// AddToGroup lets any client add any connected client to an existing group.
func (r *Router) AddToGroup(sender contract.Peer, group, member string) error {
	if !r.directory.Exists(group) {
		sender.Send(domain.GroupNotFound(group))
		return errors.ErrGroupNotFound
	}
	if _, err := r.registry.Lookup(member); err != nil {
		sender.Send(domain.ClientDoesNotExist(member))
		return errors.ErrMemberNotConnected
	}
	if _, err := r.directory.AddMember(group, member); err != nil {
		sender.Send(domain.GroupNotFound(group))
		return err
	}
	sender.Send(domain.AddedToGroup(member, group))
	return nil
}

func (r *Router) KickFromGroup(sender contract.Peer, group, member string) error {
	err := r.directory.RemoveMember(group, member, sender.Name())
	switch {
	case err == nil:
		sender.Send(domain.RemovedFromGroup(member, group))
		if peer, lookupErr := r.registry.Lookup(member); lookupErr == nil {
			peer.Send(domain.YouWereRemoved(group))
		}
	case stderrors.Is(err, errors.ErrGroupNotFound):
		sender.Send(domain.GroupNotFound(group))
	case stderrors.Is(err, errors.ErrNotAMember):
		sender.Send(domain.NotAMember(member, group))
	case stderrors.Is(err, errors.ErrSelfRemoval):
		sender.Send(domain.SelfRemoval)
	}
	return err
}

// GroupMessage reaches every connected member but the sender. Members
// without a session are skipped.
func (r *Router) GroupMessage(sender contract.Peer, group, text string) error {
	names, err := r.directory.Recipients(group, sender.Name())
	switch {
	case stderrors.Is(err, errors.ErrGroupNotFound):
		sender.Send(domain.GroupNotFound(group))
		return err
	case err != nil:
		sender.Send(domain.SenderNotMember(group))
		return err
	}

	frame := domain.GroupMessage(group, sender.Name(), r.clean(sender, text))
	for _, name := range names {
		peer, err := r.registry.Lookup(name)
		if err != nil {
			r.log.Debug("Skipping disconnected member", "group", group, "member", name)
			continue
		}
		peer.Send(frame)
	}
	return nil
}

func (r *Router) clean(sender contract.Peer, text string) string {
	if r.censor == nil {
		return text
	}
	censored, found := r.censor.Censor(text)
	if len(found) > 0 {
		r.log.Info("Censored message", "sender", sender.Name(), "words", found)
	}
	return censored
}
