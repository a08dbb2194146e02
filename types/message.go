// Package types defines the conversation data model: threads, messages,
// message parts, tool invocations, and the wire envelopes they travel in.
//
// Shape validation happens here, at the boundary where data enters the
// engine. Downstream packages (stream, classify, approval) operate on
// already-validated values and never re-check wire shapes.
package types

// Role identifies the producer of a message.
type Role string

// Role constants.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Valid reports whether the role is one of the known producers.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleTool, RoleSystem:
		return true
	}
	return false
}

// MessageStatus is the lifecycle status of a message.
// Status only moves forward: pending -> streaming -> success | failed.
type MessageStatus string

// Message status constants.
const (
	StatusPending   MessageStatus = "pending"
	StatusStreaming MessageStatus = "streaming"
	StatusSuccess   MessageStatus = "success"
	StatusFailed    MessageStatus = "failed"
)

// Valid reports whether the status is a known lifecycle state.
func (s MessageStatus) Valid() bool {
	switch s {
	case StatusPending, StatusStreaming, StatusSuccess, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether the status is a terminal lifecycle state.
func (s MessageStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// rank orders statuses along the forward-only lifecycle.
func (s MessageStatus) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusStreaming:
		return 1
	case StatusSuccess, StatusFailed:
		return 2
	}
	return -1
}

// CanAdvanceTo reports whether a transition from s to next is legal.
// A status never moves backward, and terminal states never change.
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() >= s.rank()
}

// MessageKey is the transcript ordering key. Within a thread,
// (Order, StepOrder) pairs are unique across settled messages.
type MessageKey struct {
	Order     int64
	StepOrder int64
}

// Less reports whether k orders strictly before other.
func (k MessageKey) Less(other MessageKey) bool {
	if k.Order != other.Order {
		return k.Order < other.Order
	}
	return k.StepOrder < other.StepOrder
}

// Message is one entry in a thread's transcript.
type Message struct {
	ID        string
	ThreadID  string
	Role      Role
	Order     int64
	StepOrder int64
	Status    MessageStatus
	Parts     []Part

	// AgentName is the display name of the assistant that produced the
	// message, when the backend provides one.
	AgentName string

	// Optimistic marks a client-synthesized message that the backend has
	// not yet acknowledged. Never set on messages decoded from the wire.
	Optimistic bool
}

// Key returns the message's transcript ordering key.
func (m *Message) Key() MessageKey {
	return MessageKey{Order: m.Order, StepOrder: m.StepOrder}
}

// Text returns the concatenation of the message's text parts.
func (m *Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if t, ok := p.(TextPart); ok {
			out += t.Text
		}
	}
	return out
}
