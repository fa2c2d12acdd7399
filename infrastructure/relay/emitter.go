// Package relay contains the transports a session can connect through.
package relay

import (
	"relay-chat/contract"
	"relay-chat/domain/event"
	"sync"
)

// emitter hands lifecycle events to the registered handler one at a time.
// Once closed it drops everything, and close waits for a running handler.
type emitter struct {
	mu      sync.Mutex
	handler contract.LifecycleHandler
	closed  bool
}

func (e *emitter) set(h contract.LifecycleHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
}

func (e *emitter) emit(ev event.Lifecycle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.handler == nil {
		return
	}
	e.handler(ev)
}

// close reports whether this call was the one closing the emitter.
func (e *emitter) close() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.closed = true
	return true
}

func (e *emitter) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
