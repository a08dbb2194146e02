// Package audit records the client's decision trail: what was proposed,
// what the user decided, and when. Events buffer in memory under a
// bounded budget and flush in batches to a partitioned dataset.
package audit

import "time"

// EventType classifies audit events.
type EventType string

// Audit event types. Decision events are the trail's reason to exist and
// are never dropped; conversational telemetry may be shed under pressure.
const (
	// EventDecisionSubmitted records a decision leaving the client.
	EventDecisionSubmitted EventType = "decision_submitted"
	// EventDecisionSettled records the backend accepting a decision.
	EventDecisionSettled EventType = "decision_settled"
	// EventPromptSent records a user prompt submission.
	EventPromptSent EventType = "prompt_sent"
	// EventMessageReceived records authoritative messages arriving.
	EventMessageReceived EventType = "message_received"
	// EventSearchPerformed records a disambiguation search.
	EventSearchPerformed EventType = "search_performed"
)

// Droppable reports whether the event may be shed when the trail buffer
// is full. Decision events must never be lost.
func (t EventType) Droppable() bool {
	switch t {
	case EventDecisionSubmitted, EventDecisionSettled:
		return false
	}
	return true
}

// Event is one audit trail entry.
type Event struct {
	Type     EventType      `json:"event_type"`
	ThreadID string         `json:"thread_id"`
	Time     time.Time      `json:"time"`
	Fields   map[string]any `json:"fields,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(t EventType, threadID string, fields map[string]any) *Event {
	return &Event{Type: t, ThreadID: threadID, Time: time.Now().UTC(), Fields: fields}
}
