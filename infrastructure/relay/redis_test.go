package relay

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var errUnreachable = goerrors.New("dial tcp: connection refused")

// scriptedPing answers with the given results, then keeps repeating the last one.
func scriptedPing(results ...error) func(ctx context.Context) error {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		res := results[i]
		if i < len(results)-1 {
			i++
		}
		return res
	}
}

func recordEvents() (func(event.Lifecycle), <-chan event.Lifecycle) {
	ch := make(chan event.Lifecycle, 16)
	return func(e event.Lifecycle) { ch <- e }, ch
}

func nextEvent(t *testing.T, ch <-chan event.Lifecycle) event.Lifecycle {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		require.FailNow(t, "no lifecycle event emitted")
		return nil
	}
}

func TestHealthMonitor_RecoversAfterFailedPing(t *testing.T) {
	req := require.New(t)
	emit, events := recordEvents()

	// Given a server that drops once and answers again on the second retry
	h := &healthMonitor{
		ping:     scriptedPing(nil, errUnreachable, errUnreachable, nil),
		emit:     emit,
		interval: time.Millisecond,
		attempts: 3,
		backoff:  time.Millisecond,
		log:      logs.GetLoggerFromLevel(slog.LevelDebug),
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	// Then a full reconnect cycle is reported
	req.Equal(event.Reconnect{Phase: event.Reconnecting}, nextEvent(t, events))
	req.Equal(event.Reconnect{Phase: event.Reconnected}, nextEvent(t, events))

	cancel()
	req.NoError(<-done)
}

func TestHealthMonitor_GivesUpAfterLastAttempt(t *testing.T) {
	req := require.New(t)
	emit, events := recordEvents()

	h := &healthMonitor{
		ping:     scriptedPing(errUnreachable),
		emit:     emit,
		interval: time.Millisecond,
		attempts: 2,
		backoff:  time.Millisecond,
		log:      logs.GetLoggerFromLevel(slog.LevelDebug),
	}

	// When the server never comes back, Run ends on its own
	req.NoError(h.Run(context.Background()))

	req.Equal(event.Reconnect{Phase: event.Reconnecting}, nextEvent(t, events))
	req.Equal(event.Reconnect{Phase: event.ReconnectFailed}, nextEvent(t, events))
	req.Equal(event.Disconnected{}, nextEvent(t, events))
	req.Empty(events)
}

func TestHealthMonitor_StopsWhenCanceled(t *testing.T) {
	req := require.New(t)
	emit, events := recordEvents()

	h := &healthMonitor{
		ping:     scriptedPing(nil),
		emit:     emit,
		interval: time.Hour,
		attempts: 1,
		backoff:  time.Millisecond,
		log:      logs.GetLoggerFromLevel(slog.LevelDebug),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req.NoError(h.Run(ctx))
	req.Empty(events)
}

func TestSubscriptionPump_DeliversInOrderAndSkipsInvalidJSON(t *testing.T) {
	req := require.New(t)
	ch := make(chan *redis.Message, 4)
	ch <- &redis.Message{Channel: "chat.general", Payload: `{"username":"bob","text":"one","timestamp":"2024-01-01T00:00:00.000Z"}`}
	ch <- &redis.Message{Channel: "chat.general", Payload: `not json`}
	ch <- &redis.Message{Channel: "chat.general", Payload: `{"text":"anonymous"}`}
	ch <- &redis.Message{Channel: "chat.general", Payload: `{"username":"carol","text":"two","timestamp":""}`}
	close(ch)

	var got []domain.Payload
	p := &subscriptionPump{
		topic:   "chat.general",
		ch:      ch,
		handler: func(payload domain.Payload) { got = append(got, payload) },
		log:     logs.GetLoggerFromLevel(slog.LevelDebug),
	}

	// A closed channel ends the pump
	req.NoError(p.Run(context.Background()))
	req.Len(got, 3)
	req.Equal("one", got[0].Text)
	// a payload without author is still delivered
	req.Empty(got[1].Username)
	req.Equal("anonymous", got[1].Text)
	req.Equal("carol", got[2].Username)
}

type fakeRedisError string

func (e fakeRedisError) Error() string { return string(e) }

func (fakeRedisError) RedisError() {}

func TestIsAuthError(t *testing.T) {
	req := require.New(t)

	req.True(isAuthError(fakeRedisError("WRONGPASS invalid username-password pair or user is disabled.")))
	req.True(isAuthError(fmt.Errorf("ping: %w", fakeRedisError("NOAUTH Authentication required."))))
	req.False(isAuthError(fakeRedisError("ERR unknown command")))
	req.False(isAuthError(errUnreachable))
	req.False(isAuthError(context.DeadlineExceeded))
}

func TestRedisDialer_EmptyAddress(t *testing.T) {
	req := require.New(t)
	d := &RedisDialer{log: logs.GetLoggerFromLevel(slog.LevelDebug)}
	_, err := d.Dial(domain.Credentials{APIKey: "k", Secret: "s"})
	req.Error(err)
}

func TestRedisClient_CloseWithoutConnect(t *testing.T) {
	req := require.New(t)
	d := NewRedisDialer(RedisConfig{Addr: "127.0.0.1:6379"}, logs.GetLoggerFromLevel(slog.LevelDebug))

	// Dialing touches nothing on the network
	client, err := d.Dial(domain.Credentials{APIKey: "k", Secret: "s"})
	req.NoError(err)
	client.OnLifecycle(func(e event.Lifecycle) {
		req.Fail("no event expected", e.Name())
	})

	req.NoError(client.Close())
	req.NoError(client.Close())

	// A closed client refuses any further work
	req.ErrorIs(client.Connect(context.Background()), errors.ErrSessionClosed)
	req.ErrorIs(client.Subscribe(context.Background(), "chat.general", func(domain.Payload) {}), errors.ErrSessionClosed)
	req.ErrorIs(client.Publish(context.Background(), "chat.general", domain.Payload{}), errors.ErrSessionClosed)
}

func TestRedisConfig_Defaults(t *testing.T) {
	req := require.New(t)
	cfg := RedisConfig{Addr: "localhost:6379", ReconnectAttempts: 7}.withDefaults()
	req.Equal(2*time.Second, cfg.HealthInterval)
	req.Equal(7, cfg.ReconnectAttempts)
	req.Equal(500*time.Millisecond, cfg.ReconnectBackoff)
	req.Equal(5*time.Second, cfg.DialTimeout)
}
