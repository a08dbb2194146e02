package audit

import (
	"context"
	"sync"
)

// Sink abstracts decision-trail persistence. Implementations write to a
// dataset, forward elsewhere, or stub for testing.
type Sink interface {
	// WriteEvents persists a batch of events, preserving batch order.
	WriteEvents(ctx context.Context, events []*Event) error

	// Close releases any resources held by the sink.
	Close() error
}

// StubSink accepts writes without persisting and records them for test
// assertions.
type StubSink struct {
	mu sync.Mutex

	// WrittenEvents stores every written event in write order.
	WrittenEvents []*Event
	// Batches counts WriteEvents calls.
	Batches int64
	// Closed indicates whether Close was called.
	Closed bool

	// ErrorOnWrite, if non-nil, is returned by WriteEvents.
	ErrorOnWrite error
}

// NewStubSink creates an empty stub sink.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// WriteEvents records the batch without persisting.
func (s *StubSink) WriteEvents(_ context.Context, events []*Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}
	s.Batches++
	s.WrittenEvents = append(s.WrittenEvents, events...)
	return nil
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

// Written returns a snapshot of the written events.
func (s *StubSink) Written() []*Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Event, len(s.WrittenEvents))
	copy(out, s.WrittenEvents)
	return out
}
