//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"relay-chat/domain"
	"relay-chat/domain/event"
)

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
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

type LifecycleHandler func(event.Lifecycle)

type PayloadHandler func(domain.Payload)

// Dialer builds a relay client for a set of credentials.
// Dial must not perform network I/O; Client.Connect does.
type Dialer interface {
	Dial(creds domain.Credentials) (Client, error)
}

// Client is one connection to the relay network.
// Lifecycle events are delivered to the handler in emission order, one at a time.
type Client interface {
	OnLifecycle(handler LifecycleHandler)
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context, topic string, handler PayloadHandler) error
	Publish(ctx context.Context, topic string, payload domain.Payload) error
	// Close is idempotent. No handler is invoked once it returns.
	Close() error
}

type CredentialStore interface {
	Init() error
	Load() (domain.Credentials, error)
	Path() string
}

type Censor interface {
	Censor(text string) string
}
