package relay

import (
	"context"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"relay-chat/runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr              string
	DB                int
	HealthInterval    time.Duration
	ReconnectAttempts int
	ReconnectBackoff  time.Duration
	DialTimeout       time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	if c.HealthInterval <= 0 {
		c.HealthInterval = 2 * time.Second
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 5
	}
	if c.ReconnectBackoff <= 0 {
		c.ReconnectBackoff = 500 * time.Millisecond
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	return c
}

// RedisDialer builds clients on a Redis server used as the relay network.
// The API key is the ACL username and the secret its password.
type RedisDialer struct {
	cfg RedisConfig
	log *slog.Logger
}

func NewRedisDialer(cfg RedisConfig, log *slog.Logger) *RedisDialer {
	return &RedisDialer{cfg: cfg.withDefaults(), log: log}
}

func (d *RedisDialer) Dial(creds domain.Credentials) (contract.Client, error) {
	if d.cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	name := "relay-chat-" + uuid.NewString()
	rdb := redis.NewClient(&redis.Options{
		Addr:        d.cfg.Addr,
		DB:          d.cfg.DB,
		Username:    creds.APIKey,
		Password:    creds.Secret,
		ClientName:  name,
		DialTimeout: d.cfg.DialTimeout,
	})
	return newRedisClient(rdb, d.cfg, d.log.With("client", name)), nil
}

type RedisClient struct {
	rdb    *redis.Client
	cfg    RedisConfig
	log    *slog.Logger
	events emitter
	sup    *runtime.Supervisor

	mu        sync.Mutex
	pubsubs   []*redis.PubSub
	monitored bool
	closeErr  error
}

func newRedisClient(rdb *redis.Client, cfg RedisConfig, log *slog.Logger) *RedisClient {
	return &RedisClient{
		rdb: rdb,
		cfg: cfg,
		log: log,
		sup: runtime.NewSupervisor(log, runtime.DefaultRestartDelay),
	}
}

func (c *RedisClient) OnLifecycle(handler contract.LifecycleHandler) {
	c.events.set(handler)
}

// Connect authenticates with a PING. A rejected login is reported as a
// failed Connected event, not as an error; anything else is returned.
func (c *RedisClient) Connect(ctx context.Context) error {
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	if err := c.ping(ctx); err != nil {
		if isAuthError(err) {
			c.log.Warn("Relay rejected credentials", "err", err)
			c.events.emit(event.Connected{Success: false})
			return nil
		}
		return err
	}
	c.events.emit(event.Connected{Success: true})
	c.startMonitor()
	return nil
}

// Subscribe never waits for the server: the pub/sub connection is
// established, and re-established, in the background.
func (c *RedisClient) Subscribe(ctx context.Context, topic string, handler contract.PayloadHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	ps := c.rdb.Subscribe(ctx, topic)
	c.pubsubs = append(c.pubsubs, ps)
	c.sup.Go(&subscriptionPump{
		topic:   topic,
		ch:      ps.Channel(),
		handler: handler,
		log:     c.log,
	})
	return nil
}

func (c *RedisClient) Publish(ctx context.Context, topic string, payload domain.Payload) error {
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, topic, data).Err()
}

// Close stops the background loops before releasing the connections.
func (c *RedisClient) Close() error {
	if !c.events.close() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.closeErr
	}
	c.sup.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, ps := range c.pubsubs {
		errs = append(errs, ps.Close())
	}
	c.pubsubs = nil
	errs = append(errs, c.rdb.Close())
	c.closeErr = goerrors.Join(errs...)
	return c.closeErr
}

func (c *RedisClient) ping(ctx context.Context) error {
	if c.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
		defer cancel()
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisClient) startMonitor() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.monitored {
		return
	}
	c.monitored = true
	c.sup.Go(&healthMonitor{
		ping:     c.ping,
		emit:     c.events.emit,
		interval: c.cfg.HealthInterval,
		attempts: c.cfg.ReconnectAttempts,
		backoff:  c.cfg.ReconnectBackoff,
		log:      c.log,
	})
}

// healthMonitor pings the server on every tick. A failed ping starts a
// reconnect cycle; when every attempt failed the client is given up on.
type healthMonitor struct {
	ping     func(ctx context.Context) error
	emit     func(event.Lifecycle)
	interval time.Duration
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

func (h *healthMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		err := h.ping(ctx)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		h.log.Warn("Relay unreachable, reconnecting", "err", err)

		h.emit(event.Reconnect{Phase: event.Reconnecting})
		recovered, stopped := h.reconnect(ctx)
		if stopped {
			return nil
		}
		if recovered {
			h.emit(event.Reconnect{Phase: event.Reconnected})
			continue
		}
		h.log.Error("Giving up on relay", "attempts", h.attempts)
		h.emit(event.Reconnect{Phase: event.ReconnectFailed})
		h.emit(event.Disconnected{})
		return nil
	}
}

// reconnect retries with a linear backoff.
func (h *healthMonitor) reconnect(ctx context.Context) (recovered, stopped bool) {
	for attempt := 1; attempt <= h.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return false, true
		case <-time.After(h.backoff * time.Duration(attempt)):
		}
		err := h.ping(ctx)
		if err == nil {
			return true, false
		}
		if ctx.Err() != nil {
			return false, true
		}
		h.log.Debug("Reconnect attempt failed", "attempt", attempt, "err", err)
	}
	return false, false
}

// subscriptionPump decodes the messages of one topic and hands them over in
// arrival order. Undecodable payloads are skipped.
type subscriptionPump struct {
	topic   string
	ch      <-chan *redis.Message
	handler contract.PayloadHandler
	log     *slog.Logger
}

func (p *subscriptionPump) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-p.ch:
			if !ok {
				return nil
			}
			payload, err := decodePayload(msg.Payload)
			if err != nil {
				p.log.Warn("Dropping invalid payload", "topic", p.topic, "err", err)
				continue
			}
			p.handler(payload)
		}
	}
}

func decodePayload(raw string) (domain.Payload, error) {
	var p domain.Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Payload{}, err
	}
	return p, nil
}

// isAuthError reports a login rejected by the server, as opposed to a
// network failure.
func isAuthError(err error) bool {
	var rerr redis.Error
	if !goerrors.As(err, &rerr) {
		return false
	}
	msg := rerr.Error()
	return strings.HasPrefix(msg, "WRONGPASS") ||
		strings.HasPrefix(msg, "NOAUTH") ||
		strings.HasPrefix(msg, "NOPERM")
}
