// Package redis adapts a Redis pub/sub bus to the engine ports: events are
// consumed from one channel and committed states are published to another.
// It is host event-bus glue around the engine, not persistence: nothing is
// stored, messages flow through.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/stratafsm/strata/internal/logging"
	"github.com/stratafsm/strata/pkg/chart"
	"github.com/stratafsm/strata/pkg/domain"
	"github.com/stratafsm/strata/pkg/ports"
)

var (
	_ ports.EventSource  = (*Source)(nil)
	_ ports.ObserverSink = (*Sink)(nil)
)

const (
	defaultEventChannel = "strata:events"
	defaultStateChannel = "strata:states"
)

// DecodeFunc turns a raw bus message into an engine event.
type DecodeFunc func(payload []byte) (domain.Event, error)

// DecodeSignal is the default decoder: messages are JSON chart.Signal
// documents.
func DecodeSignal(payload []byte) (domain.Event, error) {
	var sig chart.Signal
	if err := json.Unmarshal(payload, &sig); err != nil {
		return nil, fmt.Errorf("decode signal: %w", err)
	}
	return sig, nil
}

// Source implements ports.EventSource over a Redis subscription.
type Source struct {
	client  *backend.Client
	channel string
	decode  DecodeFunc
	logger  *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithEventChannel sets the channel the source subscribes to.
func WithEventChannel(name string) SourceOption {
	return func(s *Source) {
		s.channel = name
	}
}

// WithDecoder sets the message decoder.
func WithDecoder(decode DecodeFunc) SourceOption {
	return func(s *Source) {
		s.decode = decode
	}
}

// WithSourceLogger sets the source's logger.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates an event source from an existing client.
func NewSource(client *backend.Client, opts ...SourceOption) *Source {
	s := &Source{
		client:  client,
		channel: defaultEventChannel,
		decode:  DecodeSignal,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events subscribes and delivers decoded events until the context is done.
// Messages that fail to decode are logged and skipped; a poisoned message
// must not stall the machine's queue.
func (s *Source) Events(ctx context.Context) (<-chan domain.Event, error) {
	sub := s.client.Subscribe(ctx, s.channel)
	// Force the subscription to be established before we report success.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %q: %w", s.channel, err)
	}

	out := make(chan domain.Event)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := s.decode([]byte(msg.Payload))
				if err != nil {
					s.logger.Warn("dropping undecodable message", "channel", s.channel, "error", err)
					continue
				}
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

// Sink implements ports.ObserverSink by publishing each committed state as
// a JSON document.
type Sink struct {
	client  *backend.Client
	channel string
}

// SinkOption configures a Sink.
type SinkOption func(*Sink)

// WithStateChannel sets the channel committed states are published to.
func WithStateChannel(name string) SinkOption {
	return func(s *Sink) {
		s.channel = name
	}
}

// NewSink creates an observer sink from an existing client.
func NewSink(client *backend.Client, opts ...SinkOption) *Sink {
	s := &Sink{
		client:  client,
		channel: defaultStateChannel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// statePayload is the wire form of a committed state.
type statePayload struct {
	State   domain.StateID `json:"state"`
	Payload any            `json:"payload,omitempty"`
}

// Publish implements ports.ObserverSink.
func (s *Sink) Publish(ctx context.Context, state domain.Value) error {
	data, err := json.Marshal(statePayload{State: state.Type, Payload: state.Payload})
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("publish state: %w", err)
	}
	return nil
}
