package session

import (
	"context"
	"fmt"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"sync"
)

// LifecycleManager owns the relay client of one session and keeps the
// session status in step with the events that client emits.
type LifecycleManager struct {
	log             *slog.Logger
	dialer          contract.Dialer
	state           *state
	credentialsHint string

	mu       sync.Mutex
	client   contract.Client
	started  bool
	stopped  bool
	stopOnce sync.Once
	stopErr  error
}

func newLifecycleManager(log *slog.Logger, dialer contract.Dialer, st *state, credentialsHint string) *LifecycleManager {
	return &LifecycleManager{log: log, dialer: dialer, state: st, credentialsHint: credentialsHint}
}

// Start builds a client for creds, registers the lifecycle handler and connects.
//
// Incomplete credentials fail fast: no client is built and nothing touches
// the network. Every failure is also folded into the session status, so the
// returned error only matters to callers that want to log it.
// A manager starts once; later calls return ErrSessionStarted.
func (m *LifecycleManager) Start(ctx context.Context, creds domain.Credentials) (contract.Client, error) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil, errors.ErrSessionStarted
	}
	m.started = true
	m.mu.Unlock()

	if !creds.Complete() {
		err := fmt.Errorf("%w: add your API key and secret to %s", errors.ErrMissingCredentials, m.credentialsHint)
		m.state.apply(event.SetupFailed{Err: err})
		return nil, err
	}

	client, err := m.dialer.Dial(creds)
	if err != nil {
		return nil, m.setupFailed(err)
	}
	client.OnLifecycle(m.handle)

	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		_ = client.Close()
		return nil, errors.ErrSessionClosed
	}
	m.client = client
	m.mu.Unlock()

	if err := client.Connect(ctx); err != nil {
		return nil, m.setupFailed(err)
	}
	return client, nil
}

// Client returns the live client, or nil before Start succeeded or after Stop.
func (m *LifecycleManager) Client() contract.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

// Stop detaches the session from the client and releases it. Only the first
// call does anything; calling it without a successful Start is fine.
func (m *LifecycleManager) Stop() error {
	m.stopOnce.Do(func() {
		m.state.detach()
		m.log.Info("Left room")

		m.mu.Lock()
		client := m.client
		m.client = nil
		m.stopped = true
		m.mu.Unlock()

		if client == nil {
			return
		}
		if err := client.Close(); err != nil {
			m.log.Warn("Closing relay client failed", "err", err)
			m.stopErr = err
			return
		}
		m.log.Debug("Relay client released")
	})
	return m.stopErr
}

func (m *LifecycleManager) handle(e event.Lifecycle) {
	status, applied := m.state.apply(e)
	if !applied {
		m.log.Debug("Dropping lifecycle event of a closed session", "event", e.Name())
		return
	}
	m.log.Debug("Lifecycle event", "event", e.Name(), "state", status.State.String())
}

func (m *LifecycleManager) setupFailed(cause error) error {
	err := fmt.Errorf("%w: %v", errors.ErrUnknownTransport, cause)
	m.state.apply(event.SetupFailed{Err: err})
	m.log.Warn("Relay setup failed", "err", cause)
	return err
}
