// Package backend defines the client's boundary to the conversation
// backend and provides two implementations: a remote client speaking
// length-prefixed msgpack frames over a socket, and an in-memory stub
// for tests and local development.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/peroskyX/inbox-poc/types"
)

// Sentinel errors returned by backend clients.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("backend client closed")
	// ErrRejected is returned when the backend answers with an error frame.
	ErrRejected = errors.New("backend rejected request")
)

// CallError wraps a failure of one backend operation.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ListRequest asks for one page of thread history plus any stream data.
type ListRequest struct {
	ThreadID string
	Page     types.PageRequest
	// Streams optionally asks for delta data alongside the page.
	Streams *types.StreamArgs
}

// ListResponse carries a history page and any stream deltas that
// accumulated since the cursors in the request.
type ListResponse struct {
	Page   *types.MessagePage
	Deltas []types.StreamDelta
}

// Client is the backend boundary. All calls are synchronous; callers run
// them inside their own goroutines or commands.
//
// Read operations (ListThreadMessages, SearchEntities) never mutate
// server state and are safe to retry from any cursor.
type Client interface {
	// ListThreadMessages returns one page of history and any pending
	// stream deltas for the thread.
	ListThreadMessages(ctx context.Context, req ListRequest) (*ListResponse, error)

	// SearchEntities resolves a free-text query to candidate schedule
	// entities, best match first.
	SearchEntities(ctx context.Context, query string) ([]types.CandidateMatch, error)

	// SubmitToolResult delivers the user's decision for a tool call.
	// The backend accepts at most one result per tool call.
	SubmitToolResult(ctx context.Context, threadID string, result types.ToolResult) error

	// SendMessage submits a user prompt to the thread.
	SendMessage(ctx context.Context, threadID, prompt string) error

	// Close releases the client's resources.
	Close() error
}
