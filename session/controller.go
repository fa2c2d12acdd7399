// Package session implements the chat session controller: the lifecycle of
// one room connection, the transcript it feeds and the gated outbound path.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ExitCommand ends the session instead of being published.
const ExitCommand = "/close"

type Outcome int

const (
	// Ignored: the line was blank.
	Ignored Outcome = iota
	// Exit: the exit command released the session.
	Exit
	// Rejected: the session is not connected, nothing was sent.
	Rejected
	// Sent: the relay accepted the message.
	Sent
	// Failed: the publish was attempted and failed.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Exit:
		return "exit"
	case Rejected:
		return "rejected"
	case Sent:
		return "sent"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ClearsInput reports whether the input line must be reset, which is the
// case after every publish attempt.
func (o Outcome) ClearsInput() bool {
	return o == Sent || o == Failed
}

type Option func(*Controller)

// WithCensor filters inbound bodies before they reach the transcript.
func WithCensor(censor contract.Censor) Option {
	return func(c *Controller) { c.censor = censor }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithCredentialsHint names where credentials are configured, for the
// missing-credentials message.
func WithCredentialsHint(hint string) Option {
	return func(c *Controller) { c.credentialsHint = hint }
}

// Controller owns one Session: room, username, status and transcript.
type Controller struct {
	log             *slog.Logger
	id              uuid.UUID
	room            string
	username        string
	topic           string
	censor          contract.Censor
	now             func() time.Time
	credentialsHint string

	state   *state
	manager *LifecycleManager

	// submissions are serialized, one pending publish at a time
	submitMu sync.Mutex
}

// NewController prepares a session for an already validated room.
// Nothing happens on the network until Start.
func NewController(log *slog.Logger, dialer contract.Dialer, room, username string, opts ...Option) *Controller {
	c := &Controller{
		id:              uuid.New(),
		room:            room,
		username:        username,
		topic:           domain.Topic(room),
		now:             time.Now,
		credentialsHint: "the credentials file",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = log.With("room", room, "session", c.id.String())
	c.state = newState(room, username, c.now)
	c.manager = newLifecycleManager(c.log, dialer, c.state, c.credentialsHint)
	return c
}

func (c *Controller) ID() uuid.UUID { return c.id }

func (c *Controller) Room() string { return c.room }

func (c *Controller) Username() string { return c.username }

// Start connects the session and subscribes to the room topic. The
// subscription is made as soon as the client exists, whatever the current
// state: the relay holds delivery until the connection is actually up.
func (c *Controller) Start(ctx context.Context, creds domain.Credentials) error {
	c.log.Info("Joining room", "user", c.username)
	client, err := c.manager.Start(ctx, creds)
	if err != nil {
		return err
	}
	if err := client.Subscribe(ctx, c.topic, c.ingest); err != nil {
		wrapped := fmt.Errorf("%w: subscribe %s: %v", errors.ErrUnknownTransport, c.topic, err)
		c.state.fail(wrapped.Error())
		c.log.Warn("Subscription failed", "topic", c.topic, "err", err)
		return wrapped
	}
	c.log.Debug("Subscribed", "topic", c.topic)
	return nil
}

// Submit handles one line typed by the user.
//
// Blank lines are ignored, the exit command closes the session, and anything
// else is published only while connected. A failed publish is reported in
// the status error but leaves the connection state alone. Nothing is echoed
// locally: our own lines come back through the subscription like anyone's.
func (c *Controller) Submit(ctx context.Context, raw string) (Outcome, error) {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	text := strings.TrimSpace(raw)
	if text == "" {
		return Ignored, nil
	}
	if text == ExitCommand {
		return Exit, c.Close()
	}

	status, closed := c.state.status()
	if closed {
		return Rejected, errors.ErrSessionClosed
	}
	if !status.Ready() {
		return Rejected, errors.ErrNotConnected
	}
	client := c.manager.Client()
	if client == nil {
		return Rejected, errors.ErrNotConnected
	}

	payload := domain.NewPayload(c.username, text, c.now())
	if err := client.Publish(ctx, c.topic, payload); err != nil {
		wrapped := fmt.Errorf("%w: %v", errors.ErrPublishFailure, err)
		c.state.fail(wrapped.Error())
		c.log.Warn("Publish failed", "topic", c.topic, "err", err)
		return Failed, wrapped
	}
	return Sent, nil
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	return c.state.snapshot()
}

// Updates signals that the snapshot changed. Signals coalesce; the channel
// is closed once the session ends.
func (c *Controller) Updates() <-chan struct{} {
	return c.state.updates
}

// Close ends the session: pending callbacks are detached first, then the
// relay client is released. Safe to call any number of times.
func (c *Controller) Close() error {
	return c.manager.Stop()
}

func (c *Controller) ingest(p domain.Payload) {
	body := p.Text
	if c.censor != nil {
		body = c.censor.Censor(body)
	}
	if msg, ok := c.state.ingest(p, body); ok {
		c.log.Debug("Message received", "id", msg.ID)
	}
}
