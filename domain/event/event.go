// Package event defines the lifecycle events a relay transport emits
// for a single client. They are the only input of the connection state fold.
package event

// Lifecycle is implemented by every transport lifecycle event.
type Lifecycle interface {
	Name() string
}

type ReconnectPhase string

const (
	Reconnecting    ReconnectPhase = "RECONNECTING"
	Reconnected     ReconnectPhase = "RECONNECTED"
	ReconnectFailed ReconnectPhase = "RECONN_FAIL"
)

// Connected reports the outcome of the authentication handshake.
// It may fire more than once during the life of a client.
type Connected struct {
	Success bool
}

func (Connected) Name() string { return "connected" }

// Reconnect reports a phase of the transport's own reconnect loop.
type Reconnect struct {
	Phase ReconnectPhase
}

func (Reconnect) Name() string { return "reconnect" }

type Disconnected struct{}

func (Disconnected) Name() string { return "disconnected" }

// SetupFailed is raised locally, never by the transport, when building or
// connecting the client failed before any lifecycle event could be emitted.
type SetupFailed struct {
	Err error
}

func (SetupFailed) Name() string { return "setup_failed" }
