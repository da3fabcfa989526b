package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster distributes messages across process boundaries via Redis
// Pub/Sub. Payloads are JSON-encoded, so T must be JSON-serializable.
//
// Unlike MemoryBroadcaster, messages published on one instance reach
// subscribers on every instance listening on the same channel, which is what
// multi-replica deployments need for live notification updates.
type RedisBroadcaster[T any] struct {
	client     *redis.Client
	channel    string
	bufferSize int

	mu     sync.Mutex
	subs   map[*redisSubscriber[T]]struct{}
	closed bool
}

// NewRedisBroadcaster creates a broadcaster on the given Pub/Sub channel.
// bufferSize sets the per-subscriber delivery buffer (minimum 1).
func NewRedisBroadcaster[T any](client *redis.Client, channel string, bufferSize int) *RedisBroadcaster[T] {
	return &RedisBroadcaster[T]{
		client:     client,
		channel:    channel,
		bufferSize: max(bufferSize, 1),
		subs:       make(map[*redisSubscriber[T]]struct{}),
	}
}

func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrBroadcasterClosed
	}
	b.mu.Unlock()

	data, err := json.Marshal(msg.Data)
	if err != nil {
		return errors.Join(ErrEncodeMessage, err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &redisSubscriber[T]{ch: make(chan Message[T], b.bufferSize)}
	if b.closed {
		close(sub.ch)
		sub.closed = true
		return sub
	}

	sub.pubsub = b.client.Subscribe(ctx, b.channel)
	b.subs[sub] = struct{}{}
	go sub.consume()

	return sub
}

func (b *RedisBroadcaster[T]) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var errs []error
	for sub := range b.subs {
		if err := sub.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	clear(b.subs)

	return errors.Join(errs...)
}

type redisSubscriber[T any] struct {
	pubsub *redis.PubSub
	ch     chan Message[T]

	mu     sync.Mutex
	closed bool
}

// consume pumps Pub/Sub payloads into the subscriber channel. Messages that
// fail to decode or do not fit the buffer are dropped; Pub/Sub offers no
// replay, so blocking here would only stall every later message.
func (s *redisSubscriber[T]) consume() {
	for msg := range s.pubsub.Channel() {
		var v T
		if err := json.Unmarshal([]byte(msg.Payload), &v); err != nil {
			continue
		}
		select {
		case s.ch <- Message[T]{Data: v}:
		default:
		}
	}

	s.mu.Lock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
	s.mu.Unlock()
}

func (s *redisSubscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

// Close terminates the underlying Pub/Sub subscription. The receive channel
// is closed by the consume loop once the subscription drains.
func (s *redisSubscriber[T]) Close() error {
	if s.pubsub == nil {
		return nil
	}
	return s.pubsub.Close()
}
