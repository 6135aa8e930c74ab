//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-relay/domain"
	"context"
	"io"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Peer is the outbound side of one connected client.
// Send and SendTransfer never block: they report false when the frame
// could not be queued (peer gone or its outbox full).
type Peer interface {
	Name() string
	Send(text string) bool
	// SendTransfer queues header followed by header.Size bytes of body.
	// The peer owns body from now on and closes it.
	SendTransfer(header domain.TransferHeader, body io.ReadCloser) bool
}

// Censor rewrites chat text. found lists what was matched, for logging.
type Censor interface {
	Censor(text string) (censored string, found []string)
}
