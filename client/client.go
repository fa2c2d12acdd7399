// Package client runs a chat session over plain lines of text, for
// terminals where the full-screen interface is not wanted.
package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/session"
	"relay-chat/ui"
	"sync"

	"github.com/gookit/color"
)

type Runner struct {
	log     *slog.Logger
	dialer  contract.Dialer
	store   contract.CredentialStore
	in      io.Reader
	out     *lockedWriter
	colours bool
	opts    []session.Option
}

func NewRunner(log *slog.Logger, dialer contract.Dialer, store contract.CredentialStore,
	in io.Reader, out io.Writer, colours bool, opts ...session.Option) *Runner {
	return &Runner{
		log:     log,
		dialer:  dialer,
		store:   store,
		in:      in,
		out:     &lockedWriter{w: out},
		colours: colours,
		opts:    opts,
	}
}

// Run joins room as username and forwards every input line until the exit
// command, the end of input or the cancellation of ctx.
func (r *Runner) Run(ctx context.Context, room, username string) error {
	if err := domain.ValidateRoomName(room); err != nil {
		return err
	}
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return err
	}

	ctrl := session.NewController(r.log, r.dialer, room, username, r.opts...)
	watched := make(chan struct{})
	go func() {
		defer close(watched)
		r.watch(ctrl)
	}()
	defer func() {
		_ = ctrl.Close()
		<-watched
	}()

	r.out.printf("Joining room %s as %s (type %s to leave)\n", room, username, session.ExitCommand)
	creds, err := r.store.Load()
	if err != nil {
		r.log.Debug("Credentials unavailable", "path", r.store.Path(), "err", err)
	}
	if err := ctrl.Start(ctx, creds); err != nil {
		r.log.Debug("Session did not start", "err", err)
	}

	done := make(chan struct{})
	defer close(done)
	lines := readLines(r.in, done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			outcome, err := ctrl.Submit(ctx, line)
			switch outcome {
			case session.Exit:
				r.out.printf("Left room %s\n", room)
				return nil
			case session.Rejected:
				r.out.printf("%s\n", r.paint(color.FgYellow, fmt.Sprintf("Not sent: %v", err)))
			}
		}
	}
}

// watch prints status changes and new messages until the session ends.
func (r *Runner) watch(ctrl *session.Controller) {
	seen := 0
	var last domain.Status
	first := true
	render := func() {
		snap := ctrl.Snapshot()
		if first || snap.Status != last {
			r.out.printf("Status: %s\n", r.paint(statusColour(snap.Status.State), ui.StatusText(snap.Status.State)))
			if snap.Status.LastError != "" && snap.Status.LastError != last.LastError {
				r.out.printf("%s\n", r.paint(color.FgRed, "✖ "+snap.Status.LastError))
			}
			last = snap.Status
			first = false
		}
		for _, msg := range snap.Transcript.Since(seen) {
			r.out.printf("%s\n", r.formatMessage(msg, snap.Username))
		}
		seen = snap.Transcript.Len()
	}

	render()
	for range ctrl.Updates() {
		render()
	}
}

func (r *Runner) formatMessage(msg domain.Message, username string) string {
	author := color.FgMagenta
	if msg.IsFrom(username) {
		author = color.FgCyan
	}
	return fmt.Sprintf("[%s] %s: %s", msg.DisplayTime(), r.paint(author, msg.Author), msg.Body)
}

func (r *Runner) paint(c color.Color, text string) string {
	if !r.colours {
		return text
	}
	return color.New(c).Render(text)
}

func statusColour(state domain.ConnectionState) color.Color {
	switch state {
	case domain.Connected:
		return color.FgGreen
	case domain.Connecting, domain.Reconnecting:
		return color.FgYellow
	default:
		return color.FgRed
	}
}

// readLines scans in until EOF. The goroutine gives up once done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.w, format, args...)
}
