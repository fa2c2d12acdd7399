// Package domain contains core concepts of the chat client.
// This file defines the connection state of a room session and the pure
// transition function driven by transport lifecycle events.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"relay-chat/domain/event"
	"relay-chat/errors"
)

type ConnectionState int

// The zero value is Connecting: a session starts connecting as soon as it exists.
const (
	Connecting ConnectionState = iota
	Connected
	Reconnecting
	Disconnected
)

func (s ConnectionState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Status is the connection state together with the most recent error.
// Both always move together so observers never see one without the other.
type Status struct {
	State     ConnectionState
	LastError string
}

// Ready reports whether outbound sends are allowed.
func (s Status) Ready() bool {
	return s.State == Connected
}

// Apply returns the status that results from applying one lifecycle event.
//
//	Connected(true)          -> Connected, error cleared
//	Connected(false)         -> Disconnected, authentication failure
//	Reconnect(RECONNECTING)  -> Reconnecting, error kept
//	Reconnect(RECONNECTED)   -> Connected, error cleared
//	Reconnect(RECONN_FAIL)   -> Disconnected, reconnect failure
//	Disconnected             -> Disconnected, error kept
//	SetupFailed(err)         -> Disconnected, err's message
//
// Unknown events and unknown reconnect phases leave the status untouched.
func Apply(s Status, e event.Lifecycle) Status {
	switch evt := e.(type) {
	case event.Connected:
		if evt.Success {
			return Status{State: Connected}
		}
		return Status{State: Disconnected, LastError: errors.ErrAuthenticationFailure.Error()}
	case event.Reconnect:
		switch evt.Phase {
		case event.Reconnecting:
			return Status{State: Reconnecting, LastError: s.LastError}
		case event.Reconnected:
			return Status{State: Connected}
		case event.ReconnectFailed:
			return Status{State: Disconnected, LastError: errors.ErrReconnectFailure.Error()}
		}
	case event.Disconnected:
		return Status{State: Disconnected, LastError: s.LastError}
	case event.SetupFailed:
		if evt.Err == nil {
			return Status{State: Disconnected, LastError: errors.ErrUnknownTransport.Error()}
		}
		return Status{State: Disconnected, LastError: evt.Err.Error()}
	}
	return s
}

// Fold applies events left to right, starting from s.
func Fold(s Status, events ...event.Lifecycle) Status {
	for _, e := range events {
		s = Apply(s, e)
	}
	return s
}
