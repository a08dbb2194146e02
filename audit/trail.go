package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/peroskyX/inbox-poc/log"
)

// TrailConfig configures a Trail.
type TrailConfig struct {
	// MaxBufferEvents is the maximum number of buffered events.
	MaxBufferEvents int

	// Logger is an optional logger. Nil disables logging.
	Logger *log.Logger
}

// DefaultTrailConfig returns the default trail limits.
func DefaultTrailConfig() TrailConfig {
	return TrailConfig{MaxBufferEvents: 1000}
}

// ErrBufferFull is returned when the buffer is full and the event is
// non-droppable.
var ErrBufferFull = errors.New("audit buffer full: cannot accept non-droppable event")

// ErrInvalidTrailConfig is returned for a non-positive buffer limit.
var ErrInvalidTrailConfig = errors.New("invalid trail config: MaxBufferEvents must be positive")

// ErrTrailClosed is returned after Close.
var ErrTrailClosed = errors.New("audit trail closed")

// TrailStats is a snapshot of trail counters.
type TrailStats struct {
	TotalEvents     int64
	EventsDropped   int64
	EventsPersisted int64
	Flushes         int64
	FlushErrors     int64
	BufferedEvents  int
}

// Trail is a bounded in-memory event buffer in front of a Sink.
//
// Drop strategy when full: a droppable incoming event is shed; a
// non-droppable incoming event evicts the oldest droppable buffered
// event, and fails with ErrBufferFull only when none exists. On flush
// failure the buffer is kept intact, so a retry may duplicate events but
// never loses them.
type Trail struct {
	sink   Sink
	config TrailConfig
	logger *log.Logger

	mu     sync.Mutex
	buffer []*Event
	closed bool
	stats  TrailStats
}

// NewTrail creates a trail over the sink.
func NewTrail(sink Sink, config TrailConfig) (*Trail, error) {
	if config.MaxBufferEvents <= 0 {
		return nil, ErrInvalidTrailConfig
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Trail{
		sink:   sink,
		config: config,
		logger: logger,
		buffer: make([]*Event, 0, config.MaxBufferEvents),
	}, nil
}

// Record buffers one event, applying drop rules when the buffer is full.
func (t *Trail) Record(event *Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTrailClosed
	}
	t.stats.TotalEvents++

	if len(t.buffer) < t.config.MaxBufferEvents {
		t.buffer = append(t.buffer, event)
		return nil
	}

	if event.Type.Droppable() {
		t.stats.EventsDropped++
		t.logger.Debug("dropping audit event", map[string]any{
			"event_type": string(event.Type),
			"reason":     "buffer_full",
		})
		return nil
	}

	// Make room by evicting the oldest droppable event.
	for i, buffered := range t.buffer {
		if buffered.Type.Droppable() {
			t.buffer = append(t.buffer[:i], t.buffer[i+1:]...)
			t.buffer = append(t.buffer, event)
			t.stats.EventsDropped++
			return nil
		}
	}

	t.logger.Warn("audit buffer overflow", map[string]any{
		"event_type": string(event.Type),
		"buffered":   len(t.buffer),
	})
	return fmt.Errorf("%w: %s", ErrBufferFull, event.Type)
}

// Flush writes all buffered events to the sink. The buffer is cleared
// only after a fully successful write; a failed flush keeps everything
// for retry.
func (t *Trail) Flush(ctx context.Context) error {
	t.mu.Lock()
	events := t.buffer
	t.stats.Flushes++
	t.mu.Unlock()

	if len(events) == 0 {
		return nil
	}
	if err := t.sink.WriteEvents(ctx, events); err != nil {
		t.mu.Lock()
		t.stats.FlushErrors++
		t.mu.Unlock()
		t.logger.Warn("audit flush failed", map[string]any{
			"events": len(events),
			"error":  err.Error(),
		})
		return err
	}

	t.mu.Lock()
	t.stats.EventsPersisted += int64(len(events))
	// Keep events recorded during the flush.
	t.buffer = t.buffer[len(events):]
	t.mu.Unlock()
	return nil
}

// Close flushes remaining events and closes the sink. The trail rejects
// further records either way.
func (t *Trail) Close(ctx context.Context) error {
	flushErr := t.Flush(ctx)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return flushErr
	}
	t.closed = true
	t.mu.Unlock()

	if err := t.sink.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}

// Stats returns a snapshot of trail counters.
func (t *Trail) Stats() TrailStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := t.stats
	s.BufferedEvents = len(t.buffer)
	return s
}
