package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/totegamma/aquamind/internal/domain"
)

var ErrHubClosed = errors.New("hub closed")

// Observer is a handle on one subscription. Events are buffered in a
// bounded queue; when it is full the oldest event is discarded.
type Observer struct {
	id      uint64
	queue   chan domain.Event
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// Events yields events published after the subscription.
func (o *Observer) Events() <-chan domain.Event {
	return o.queue
}

// Done is closed once the observer is unsubscribed.
func (o *Observer) Done() <-chan struct{} {
	return o.done
}

// Dropped reports how many events were discarded for this observer.
func (o *Observer) Dropped() uint64 {
	return o.dropped.Load()
}

func (o *Observer) offer(event domain.Event) {
	select {
	case <-o.done:
		return
	default:
	}

	for {
		select {
		case o.queue <- event:
			return
		default:
		}

		select {
		case <-o.queue:
			o.dropped.Add(1)
			eventsDropped.Inc()
		default:
		}
	}
}

func (o *Observer) close() {
	o.once.Do(func() {
		close(o.done)
	})
}

// Hub fans events out to every subscribed observer. Publish never blocks
// on an observer and may run concurrently with Subscribe and Unsubscribe.
type Hub struct {
	observers sync.Map // uint64 -> *Observer
	nextID    atomic.Uint64
	count     atomic.Int64
	closed    atomic.Bool
	queueSize int
}

func NewHub(queueSize int) *Hub {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Hub{queueSize: queueSize}
}

func (h *Hub) Subscribe() *Observer {
	o := &Observer{
		id:    h.nextID.Add(1),
		queue: make(chan domain.Event, h.queueSize),
		done:  make(chan struct{}),
	}
	if h.closed.Load() {
		o.close()
		return o
	}
	h.observers.Store(o.id, o)
	h.count.Add(1)
	observersGauge.Inc()
	if h.closed.Load() {
		h.Unsubscribe(o)
	}
	return o
}

// Unsubscribe is safe to call more than once.
func (h *Hub) Unsubscribe(o *Observer) {
	if o == nil {
		return
	}
	if _, loaded := h.observers.LoadAndDelete(o.id); loaded {
		h.count.Add(-1)
		observersGauge.Dec()
	}
	o.close()
}

func (h *Hub) Publish(ctx context.Context, event domain.Event) error {
	if h.closed.Load() {
		return ErrHubClosed
	}
	h.observers.Range(func(_, v any) bool {
		v.(*Observer).offer(event)
		return true
	})
	eventsPublished.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// Len returns the number of subscribed observers.
func (h *Hub) Len() int {
	return int(h.count.Load())
}

// Close unsubscribes everyone and rejects further publishes.
func (h *Hub) Close() {
	h.closed.Store(true)
	h.observers.Range(func(_, v any) bool {
		h.Unsubscribe(v.(*Observer))
		return true
	})
}
