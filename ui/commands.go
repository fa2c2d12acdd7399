package ui

import (
	"context"
	"relay-chat/contract"
	"relay-chat/session"

	tea "github.com/charmbracelet/bubbletea"
)

// Every message carries the controller it is about, so that results of a
// session the user already left are recognised and dropped.

type sessionStartedMsg struct {
	ctrl *session.Controller
	err  error
}

type sessionUpdatedMsg struct {
	ctrl *session.Controller
}

type sessionEndedMsg struct {
	ctrl *session.Controller
}

type submittedMsg struct {
	ctrl    *session.Controller
	outcome session.Outcome
	err     error
}

// startSession loads the credentials and connects. Unreadable credentials
// are passed on empty; the session reports them as missing.
func startSession(ctx context.Context, ctrl *session.Controller, store contract.CredentialStore) tea.Cmd {
	return func() tea.Msg {
		creds, _ := store.Load()
		err := ctrl.Start(ctx, creds)
		return sessionStartedMsg{ctrl: ctrl, err: err}
	}
}

// waitForUpdate blocks until the session changes or ends.
func waitForUpdate(ctrl *session.Controller) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ctrl.Updates(); !ok {
			return sessionEndedMsg{ctrl: ctrl}
		}
		return sessionUpdatedMsg{ctrl: ctrl}
	}
}

func submit(ctx context.Context, ctrl *session.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		outcome, err := ctrl.Submit(ctx, text)
		return submittedMsg{ctrl: ctrl, outcome: outcome, err: err}
	}
}
