package relay

import (
	"context"
	"log/slog"
	"relay-chat/contract"
	"relay-chat/domain"
	"relay-chat/domain/event"
	"relay-chat/errors"
	"sync"

	"github.com/samber/lo"
)

const subscriptionBuffer = 64

// Broker is an in-process relay network. Every client dialed from the same
// broker sees the others' messages, which makes it a loopback transport for
// offline use and for tests.
type Broker struct {
	mu     sync.Mutex
	topics map[string][]*memorySubscription
}

func NewBroker() *Broker {
	return &Broker{topics: make(map[string][]*memorySubscription)}
}

func (b *Broker) add(topic string, s *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = append(b.topics[topic], s)
}

func (b *Broker) remove(topic string, s *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics[topic] = lo.Without(b.topics[topic], s)
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

func (b *Broker) publish(ctx context.Context, topic string, p domain.Payload) error {
	b.mu.Lock()
	subs := append([]*memorySubscription(nil), b.topics[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.enqueue(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// MemoryDialer hands out clients of one Broker. Accept decides which
// credentials authenticate; nil accepts any complete pair.
type MemoryDialer struct {
	broker *Broker
	accept func(domain.Credentials) bool
	log    *slog.Logger
}

func NewMemoryDialer(broker *Broker, accept func(domain.Credentials) bool, log *slog.Logger) *MemoryDialer {
	if accept == nil {
		accept = domain.Credentials.Complete
	}
	return &MemoryDialer{broker: broker, accept: accept, log: log}
}

func (d *MemoryDialer) Dial(creds domain.Credentials) (contract.Client, error) {
	return &MemoryClient{
		broker: d.broker,
		creds:  creds,
		accept: d.accept,
		log:    d.log,
	}, nil
}

type MemoryClient struct {
	broker *Broker
	creds  domain.Credentials
	accept func(domain.Credentials) bool
	log    *slog.Logger
	events emitter

	mu        sync.Mutex
	connected bool
	subs      []*memorySubscription
	wg        sync.WaitGroup
}

func (c *MemoryClient) OnLifecycle(handler contract.LifecycleHandler) {
	c.events.set(handler)
}

func (c *MemoryClient) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	ok := c.accept(c.creds)
	c.setConnected(ok)
	c.events.emit(event.Connected{Success: ok})
	return nil
}

func (c *MemoryClient) Subscribe(ctx context.Context, topic string, handler contract.PayloadHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	s := &memorySubscription{
		topic:   topic,
		queue:   make(chan domain.Payload, subscriptionBuffer),
		done:    make(chan struct{}),
		handler: handler,
	}
	c.subs = append(c.subs, s)
	c.broker.add(topic, s)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		s.deliver()
	}()
	return nil
}

func (c *MemoryClient) Publish(ctx context.Context, topic string, payload domain.Payload) error {
	if c.events.isClosed() {
		return errors.ErrSessionClosed
	}
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()
	if !connected {
		return errors.ErrNotConnected
	}
	return c.broker.publish(ctx, topic, payload)
}

// Interrupt simulates a dropped link that the transport recovers from.
func (c *MemoryClient) Interrupt() {
	c.events.emit(event.Reconnect{Phase: event.Reconnecting})
	c.events.emit(event.Reconnect{Phase: event.Reconnected})
}

// Drop simulates a link the transport could not recover.
func (c *MemoryClient) Drop() {
	c.setConnected(false)
	c.events.emit(event.Reconnect{Phase: event.Reconnecting})
	c.events.emit(event.Reconnect{Phase: event.ReconnectFailed})
	c.events.emit(event.Disconnected{})
}

// Close unsubscribes everything and waits for in-flight deliveries.
func (c *MemoryClient) Close() error {
	if !c.events.close() {
		return nil
	}
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.connected = false
	c.mu.Unlock()

	for _, s := range subs {
		c.broker.remove(s.topic, s)
		close(s.done)
	}
	c.wg.Wait()
	c.log.Debug("Memory client closed", "subscriptions", len(subs))
	return nil
}

func (c *MemoryClient) setConnected(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = ok
}

type memorySubscription struct {
	topic   string
	queue   chan domain.Payload
	done    chan struct{}
	handler contract.PayloadHandler
}

func (s *memorySubscription) enqueue(ctx context.Context, p domain.Payload) error {
	select {
	case s.queue <- p:
		return nil
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memorySubscription) deliver() {
	for {
		select {
		case <-s.done:
			return
		case p := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(p)
		}
	}
}
