// Package adapter defines the decision notification boundary.
//
// Adapters publish settled tool decisions to downstream systems so that
// other services (calendars, automation, audit dashboards) can react
// without polling the conversation backend.
package adapter

import "context"

// DecisionSettledEvent is the payload published when a tool decision
// settles.
type DecisionSettledEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "decision_settled"
	ClientID        string `json:"client_id"`
	ThreadID        string `json:"thread_id"`
	ToolCallID      string `json:"tool_call_id"`
	Tool            string `json:"tool"`
	Output          string `json:"output"` // approved or denied
	SelectionCount  int    `json:"selection_count"`
	Batch           bool   `json:"batch"`
	Timestamp       string `json:"timestamp"` // ISO 8601
}

// Adapter publishes settled decisions to a downstream system.
type Adapter interface {
	// Publish sends one settled decision downstream.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *DecisionSettledEvent) error

	// Close releases adapter resources.
	Close() error
}
