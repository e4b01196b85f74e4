// Package eventbus fans command outcomes out to side consumers such as the
// ledger. The serve loop publishes and never waits on a consumer.
package eventbus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// EventType names a stream of events
type EventType string

// EventTypeCommand carries a command.Event for every served connection
const EventTypeCommand EventType = "command"

const (
	DefaultWorkerCount = 1
	DefaultQueueSize   = 100
)

// Event is one published value. Data must not be mutated after Publish.
type Event struct {
	Type EventType
	Data any
}

// Handler consumes events on a bus worker goroutine
type Handler func(Event)

type delivery struct {
	event   Event
	handler Handler
}

// Bus queues each (event, handler) pair onto a fixed pool of workers.
// A full queue drops the delivery rather than stalling the publisher.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler

	queue   chan delivery
	workers sync.WaitGroup
	dropped atomic.Uint64

	// stopped is closed ahead of queue so Publish can bail out first
	stopped  chan struct{}
	stopOnce sync.Once
}

// New returns a bus with one worker and a queue of DefaultQueueSize
func New() *Bus {
	return NewWithConfig(DefaultWorkerCount, DefaultQueueSize)
}

// NewWithConfig returns a running bus. Non-positive arguments fall back to the defaults.
func NewWithConfig(workerCount, queueSize int) *Bus {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	b := &Bus{
		handlers: make(map[EventType][]Handler),
		queue:    make(chan delivery, queueSize),
		stopped:  make(chan struct{}),
	}
	b.workers.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go b.run(i)
	}

	log.Debug().Int("workers", workerCount).Int("queue_size", queueSize).Msg("Event bus started")
	return b
}

func (b *Bus) run(id int) {
	defer b.workers.Done()
	for d := range b.queue {
		b.deliver(id, d)
	}
}

func (b *Bus) deliver(id int, d delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("event_type", string(d.event.Type)).
				Int("worker", id).
				Msg("Event handler panicked")
		}
	}()
	d.handler(d.event)
}

// Subscribe adds a handler for eventType. Handlers for one type are queued in
// subscription order.
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Publish queues event for every handler of its type and returns immediately
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, h := range handlers {
		select {
		case <-b.stopped:
			b.drop(event, "Event bus stopped, dropping event")
			return
		default:
		}

		select {
		case b.queue <- delivery{event: event, handler: h}:
		default:
			b.drop(event, "Event bus queue full, dropping event")
		}
	}
}

func (b *Bus) drop(event Event, msg string) {
	b.dropped.Add(1)
	log.Warn().Str("event_type", string(event.Type)).Msg(msg)
}

// Dropped reports how many deliveries were discarded since the bus started
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Close stops accepting events and drains the queue until ctx expires.
// Publish must not be called concurrently with Close.
func (b *Bus) Close(ctx context.Context) {
	b.stopOnce.Do(func() {
		close(b.stopped)
		close(b.queue)
	})

	drained := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Debug().Uint64("dropped", b.Dropped()).Msg("Event bus drained")
	case <-ctx.Done():
		log.Warn().Uint64("dropped", b.Dropped()).Msg("Event bus shutdown timed out, queued events lost")
	}
}
