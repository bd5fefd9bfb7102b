// Package memory provides in-process implementations of the engine ports:
// a channel-backed event source and recording sinks. They are used by hosts
// that drive a machine directly and by tests.
package memory

import (
	"context"
	"sync"

	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

var _ ports.EventSource = (*Bus)(nil)

// Bus implements ports.EventSource over a buffered channel.
// Safe for concurrent use by multiple producers.
type Bus struct {
	ch     chan domain.Event
	once   sync.Once
	closed chan struct{}
}

// NewBus creates a bus with the given buffer size.
func NewBus(size int) *Bus {
	if size <= 0 {
		size = 64
	}
	return &Bus{
		ch:     make(chan domain.Event, size),
		closed: make(chan struct{}),
	}
}

// Publish offers an event to the bus, blocking while the buffer is full.
// Returns the context error if the context is done first.
func (b *Bus) Publish(ctx context.Context, ev domain.Event) error {
	select {
	case b.ch <- ev:
		return nil
	case <-b.closed:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events implements ports.EventSource.
func (b *Bus) Events(ctx context.Context) (<-chan domain.Event, error) {
	out := make(chan domain.Event)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-b.closed:
				return
			case ev := <-b.ch:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close stops delivery. Pending buffered events are discarded.
func (b *Bus) Close() {
	b.once.Do(func() { close(b.closed) })
}
