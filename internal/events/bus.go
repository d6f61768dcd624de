package events

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Handler receives delivered events.
type Handler func(Event)

// Logger is the logging interface used by the bus.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Bus is an in-process publish/subscribe channel.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]Handler
	nextID uint64
	queue  []Event
	wake   chan struct{}
	logger Logger

	// deliverMu serializes delivery between Run and Flush.
	deliverMu sync.Mutex
}

// NewBus creates an idle bus. Call Run to start delivery.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[uint64]Handler),
		wake:   make(chan struct{}, 1),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger.
func (b *Bus) SetLogger(logger Logger) {
	b.logger = logger
}

// Subscribe registers h and returns a function that removes it. Handlers are
// called in subscription order.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = h
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Publish queues e for delivery. It never blocks.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run delivers queued events until ctx is cancelled.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.wake:
			b.Flush()
		}
	}
}

// Flush delivers every queued event on the calling goroutine, including
// events published by handlers during the flush.
func (b *Bus) Flush() {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		e := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		handlers := b.snapshot()
		b.mu.Unlock()

		for _, h := range handlers {
			b.deliver(h, e)
		}
	}
}

// snapshot returns handlers in subscription order. Caller holds b.mu.
func (b *Bus) snapshot() []Handler {
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = b.subs[id]
	}
	return handlers
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic", "event", e.Kind(), "panic", r)
		}
	}()
	h(e)
}

// RunTicker publishes a Tick every interval until ctx is cancelled.
func (b *Bus) RunTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			b.Publish(Tick{Time: now})
		}
	}
}
