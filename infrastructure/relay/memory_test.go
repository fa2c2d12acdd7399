package relay

import (
	"context"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"relay-chat/session"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var creds = domain.Credentials{APIKey: "key", Secret: "secret"}

// dialerFunc keeps a handle on the concrete client a session dials.
type dialerFunc func(domain.Credentials) (*MemoryClient, error)

func (f dialerFunc) Dial(c domain.Credentials) (contract.Client, error) {
	client, err := f(c)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func TestMemoryClient_DeliversInPublishOrder(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dialer := NewMemoryDialer(NewBroker(), nil, log)

	client, err := dialer.Dial(creds)
	req.NoError(err)
	var got []event.Lifecycle
	client.OnLifecycle(func(e event.Lifecycle) { got = append(got, e) })
	req.NoError(client.Connect(context.Background()))
	req.Equal([]event.Lifecycle{event.Connected{Success: true}}, got)

	received := make(chan domain.Payload, 10)
	req.NoError(client.Subscribe(context.Background(), "chat.general", func(p domain.Payload) {
		received <- p
	}))

	// When three messages are published
	for _, text := range []string{"one", "two", "three"} {
		req.NoError(client.Publish(context.Background(), "chat.general", domain.Payload{Username: "alice", Text: text}))
	}

	// Then they arrive in the same order
	for _, text := range []string{"one", "two", "three"} {
		select {
		case p := <-received:
			req.Equal(text, p.Text)
		case <-time.After(time.Second):
			req.FailNow("message not delivered", text)
		}
	}
	req.NoError(client.Close())
}

func TestMemoryClient_RejectedCredentials(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dialer := NewMemoryDialer(NewBroker(), func(c domain.Credentials) bool {
		return c.APIKey == "good"
	}, log)

	client, err := dialer.Dial(creds)
	req.NoError(err)
	var got []event.Lifecycle
	client.OnLifecycle(func(e event.Lifecycle) { got = append(got, e) })

	// Rejection is an event, not an error
	req.NoError(client.Connect(context.Background()))
	req.Equal([]event.Lifecycle{event.Connected{Success: false}}, got)
	req.ErrorIs(client.Publish(context.Background(), "chat.general", domain.Payload{}), errors.ErrNotConnected)
	req.NoError(client.Close())
}

func TestMemoryClient_NoEventAfterClose(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	client, err := NewMemoryDialer(NewBroker(), nil, log).Dial(creds)
	req.NoError(err)
	calls := 0
	client.OnLifecycle(func(event.Lifecycle) { calls++ })
	req.NoError(client.Connect(context.Background()))

	req.NoError(client.Close())
	req.NoError(client.Close())
	client.(*MemoryClient).Interrupt()
	client.(*MemoryClient).Drop()

	req.Equal(1, calls)
	req.ErrorIs(client.Publish(context.Background(), "chat.general", domain.Payload{}), errors.ErrSessionClosed)
	req.ErrorIs(client.Subscribe(context.Background(), "chat.general", func(domain.Payload) {}), errors.ErrSessionClosed)
}

func waitFor(t *testing.T, c *session.Controller, cond func(session.Snapshot) bool) session.Snapshot {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		snap := c.Snapshot()
		if cond(snap) {
			return snap
		}
		select {
		case <-c.Updates():
		case <-deadline:
			require.FailNow(t, "condition not reached", "%+v", snap)
		}
	}
}

func TestMemoryBroker_TwoSessionsInOneRoom(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dialer := NewMemoryDialer(NewBroker(), nil, log)
	ctx := context.Background()

	// Given alice and bob in room general
	alice := session.NewController(log, dialer, "general", "alice")
	bob := session.NewController(log, dialer, "general", "bob")
	req.NoError(alice.Start(ctx, creds))
	req.NoError(bob.Start(ctx, creds))

	// When alice talks
	outcome, err := alice.Submit(ctx, "hello bob")
	req.NoError(err)
	req.Equal(session.Sent, outcome)

	// Then both transcripts hold the message, alice's copy coming back from the relay
	for _, c := range []*session.Controller{alice, bob} {
		snap := waitFor(t, c, func(s session.Snapshot) bool { return s.Transcript.Len() == 1 })
		msg := snap.Transcript.Messages()[0]
		req.Equal("alice", msg.Author)
		req.Equal("hello bob", msg.Body)
	}

	req.NoError(alice.Close())
	req.NoError(bob.Close())
}

func TestMemoryBroker_RoomsAreIsolated(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dialer := NewMemoryDialer(NewBroker(), nil, log)
	ctx := context.Background()

	general := session.NewController(log, dialer, "general", "alice")
	random := session.NewController(log, dialer, "random", "bob")
	req.NoError(general.Start(ctx, creds))
	req.NoError(random.Start(ctx, creds))

	_, err := random.Submit(ctx, "anyone?")
	req.NoError(err)
	waitFor(t, random, func(s session.Snapshot) bool { return s.Transcript.Len() == 1 })

	req.Zero(general.Snapshot().Transcript.Len())
	req.NoError(general.Close())
	req.NoError(random.Close())
}

func TestMemoryClient_InterruptAndDropDriveSessionStatus(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	broker := NewBroker()
	var client *MemoryClient
	dialer := dialerFunc(func(c domain.Credentials) (*MemoryClient, error) {
		cl, err := NewMemoryDialer(broker, nil, log).Dial(c)
		if err != nil {
			return nil, err
		}
		client = cl.(*MemoryClient)
		return client, nil
	})

	c := session.NewController(log, dialer, "general", "alice")
	req.NoError(c.Start(context.Background(), creds))
	req.Equal(domain.Connected, c.Snapshot().Status.State)

	// A recovered interruption ends connected with no error
	client.Interrupt()
	req.Equal(domain.Status{State: domain.Connected}, c.Snapshot().Status)

	// An unrecoverable one leaves the session disconnected
	client.Drop()
	status := c.Snapshot().Status
	req.Equal(domain.Disconnected, status.State)
	req.Equal(errors.ErrReconnectFailure.Error(), status.LastError)

	outcome, err := c.Submit(context.Background(), "still there?")
	req.Equal(session.Rejected, outcome)
	req.ErrorIs(err, errors.ErrNotConnected)
	req.NoError(c.Close())
}
