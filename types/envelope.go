package types

import "fmt"

// DefaultPageSize is the default number of messages requested per page.
const DefaultPageSize = 50

// PageRequest asks for one page of thread history.
type PageRequest struct {
	// Cursor is the continuation cursor from the previous page, or empty
	// for the first page. Read operations never mutate server state, so a
	// caller may restart from an empty cursor at any time.
	Cursor string `msgpack:"cursor,omitempty" json:"cursor,omitempty"`

	// NumItems is the page size. Zero means DefaultPageSize.
	NumItems int `msgpack:"numItems,omitempty" json:"numItems,omitempty"`
}

// StreamKind selects what the optional stream arguments ask for.
type StreamKind string

// Stream kind constants.
const (
	// StreamList asks for currently-streaming messages from a start order.
	StreamList StreamKind = "list"
	// StreamDeltas asks for deltas past the given per-stream cursors.
	StreamDeltas StreamKind = "deltas"
)

// StreamCursor is a per-stream resume point for delta requests.
type StreamCursor struct {
	StreamID string `msgpack:"streamId" json:"streamId"`
	Cursor   int    `msgpack:"cursor" json:"cursor"`
}

// StreamArgs are the optional streaming arguments of a list request.
type StreamArgs struct {
	Kind       StreamKind     `msgpack:"kind" json:"kind"`
	StartOrder int64          `msgpack:"startOrder,omitempty" json:"startOrder,omitempty"`
	Cursors    []StreamCursor `msgpack:"cursors,omitempty" json:"cursors,omitempty"`
}

// MessageEnvelope is the wire shape of one message.
type MessageEnvelope struct {
	ID        string    `msgpack:"id" json:"id"`
	ThreadID  string    `msgpack:"threadId" json:"threadId"`
	Role      string    `msgpack:"role" json:"role"`
	Order     int64     `msgpack:"order" json:"order"`
	StepOrder int64     `msgpack:"stepOrder" json:"stepOrder"`
	Status    string    `msgpack:"status" json:"status"`
	AgentName string    `msgpack:"agentName,omitempty" json:"agentName,omitempty"`
	Parts     []RawPart `msgpack:"parts,omitempty" json:"parts,omitempty"`
}

// ToMessage validates the envelope and returns the typed message.
// Undecodable parts are dropped (counted in skipped); an invalid role or
// status fails the whole envelope since ordering and lifecycle invariants
// depend on them.
func (e *MessageEnvelope) ToMessage() (msg *Message, skipped int, err error) {
	role := Role(e.Role)
	if !role.Valid() {
		return nil, 0, fmt.Errorf("message %s: invalid role %q", e.ID, e.Role)
	}
	status := MessageStatus(e.Status)
	if !status.Valid() {
		return nil, 0, fmt.Errorf("message %s: invalid status %q", e.ID, e.Status)
	}
	parts, skipped := DecodeParts(e.Parts)
	return &Message{
		ID:        e.ID,
		ThreadID:  e.ThreadID,
		Role:      role,
		Order:     e.Order,
		StepOrder: e.StepOrder,
		Status:    status,
		AgentName: e.AgentName,
		Parts:     parts,
	}, skipped, nil
}

// MessagePage is one page of thread history.
type MessagePage struct {
	Messages []MessageEnvelope `msgpack:"messages" json:"messages"`
	// Cursor is the continuation cursor for the next page.
	Cursor string `msgpack:"cursor,omitempty" json:"cursor,omitempty"`
	// IsDone marks the terminal page. An empty terminal page is a valid
	// state, distinct from "no data received yet".
	IsDone bool `msgpack:"isDone" json:"isDone"`
}

// StreamDelta is an incremental extension to a streaming message's part
// buffer. Parts covers the half-open offset range [Start, End) of the
// stream's ordered part buffer; ranges already applied are no-ops.
type StreamDelta struct {
	StreamID  string    `msgpack:"streamId" json:"streamId"`
	Order     int64     `msgpack:"order" json:"order"`
	StepOrder int64     `msgpack:"stepOrder" json:"stepOrder"`
	Role      string    `msgpack:"role,omitempty" json:"role,omitempty"`
	Start     int       `msgpack:"start" json:"start"`
	End       int       `msgpack:"end" json:"end"`
	Parts     []RawPart `msgpack:"parts" json:"parts"`
	// Final marks the last delta of the stream; the message settles to
	// success once it is applied.
	Final bool `msgpack:"final,omitempty" json:"final,omitempty"`
}
