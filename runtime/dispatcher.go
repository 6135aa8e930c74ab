package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	stderrors "errors"
	"log/slog"
)

// Client is the part of a session the dispatcher works with.
type Client interface {
	contract.Peer
	PayloadSource
}

type Dispatcher struct {
	router    *Router
	transfers *TransferService
	log       *slog.Logger
}

func NewDispatcher(router *Router, transfers *TransferService, log *slog.Logger) *Dispatcher {
	return &Dispatcher{router: router, transfers: transfers, log: log}
}

// Dispatch runs one frame received from client. It reports quit when the
// client asked to leave. The returned error is always terminal for the
// session: recoverable failures have already been answered with a notice.
func (d *Dispatcher) Dispatch(ctx context.Context, client Client, frame string) (quit bool, err error) {
	cmd, err := domain.Parse(frame)
	if err != nil {
		var formatErr *domain.FormatError
		if stderrors.As(err, &formatErr) {
			if drainErr := drain(client, formatErr.Pending); drainErr != nil {
				return false, drainErr
			}
			client.Send(formatErr.Usage)
		}
		d.log.Debug("Malformed command", "name", client.Name(), "error", err)
		return false, nil
	}

	d.log.Debug("Dispatching", "name", client.Name(), "kind", cmd.Kind())
	var routeErr error
	switch c := cmd.(type) {
	case domain.QuitCommand:
		return true, nil
	case domain.BroadcastCommand:
		d.router.Broadcast(client, c.Text)
	case domain.PrivateCommand:
		routeErr = d.router.Private(client, c.Recipient, c.Text)
	case domain.GroupCreateCommand:
		routeErr = d.router.CreateGroup(client, c.Group)
	case domain.GroupAddCommand:
		routeErr = d.router.AddToGroup(client, c.Group, c.Member)
	case domain.GroupKickCommand:
		routeErr = d.router.KickFromGroup(client, c.Group, c.Member)
	case domain.GroupMessageCommand:
		routeErr = d.router.GroupMessage(client, c.Group, c.Text)
	case domain.TransferCommand:
		routeErr = d.transfers.Receive(ctx, client, client, c.Header)
		if routeErr == nil {
			d.router.Announce(client, domain.TransferShared(client.Name(), c.Header))
		}
	case domain.DownloadCommand:
		routeErr = d.transfers.Download(ctx, client, c.Name)
	}

	if stderrors.Is(routeErr, errors.ErrConnectionClosed) {
		return false, routeErr
	}
	if routeErr != nil {
		d.log.Debug("Command refused", "name", client.Name(), "kind", cmd.Kind(), "error", routeErr)
	}
	return false, nil
}
