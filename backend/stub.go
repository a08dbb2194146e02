package backend

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/peroskyX/inbox-poc/types"
)

// StubClient is an in-memory Client for tests and local development.
// Threads, matches, and deltas are seeded by the caller; submissions and
// sent prompts are recorded for assertions.
type StubClient struct {
	mu       sync.Mutex
	threads  map[string][]types.MessageEnvelope
	deltas   map[string][]types.StreamDelta
	matches  map[string][]types.CandidateMatch
	fallback []types.CandidateMatch
	pageSize int
	closed   bool

	// Submitted records every accepted tool result in order.
	Submitted []types.ToolResult
	// Sent records every accepted prompt in order.
	Sent []string
	// Queries records every search query in order.
	Queries []string

	// Error injection, one field per operation.
	ListErr   error
	SearchErr error
	SubmitErr error
	SendErr   error

	settled map[string]bool // toolCallId -> already decided
}

// NewStubClient creates an empty stub with the default page size.
func NewStubClient() *StubClient {
	return &StubClient{
		threads:  make(map[string][]types.MessageEnvelope),
		deltas:   make(map[string][]types.StreamDelta),
		matches:  make(map[string][]types.CandidateMatch),
		settled:  make(map[string]bool),
		pageSize: types.DefaultPageSize,
	}
}

// SetPageSize overrides the stub's page size.
func (s *StubClient) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.pageSize = n
	}
}

// SeedThread replaces the thread's message envelopes.
func (s *StubClient) SeedThread(threadID string, msgs []types.MessageEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := make([]types.MessageEnvelope, len(msgs))
	copy(sorted, msgs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].StepOrder < sorted[j].StepOrder
	})
	s.threads[threadID] = sorted
}

// PushDelta queues a delta for the next list call on the thread.
func (s *StubClient) PushDelta(threadID string, d types.StreamDelta) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas[threadID] = append(s.deltas[threadID], d)
}

// SeedMatches sets the results for an exact query.
func (s *StubClient) SeedMatches(query string, matches []types.CandidateMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[query] = matches
}

// SeedFallbackMatches sets the results for queries with no exact seed.
func (s *StubClient) SeedFallbackMatches(matches []types.CandidateMatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = matches
}

// ListThreadMessages implements Client. Pages walk the seeded envelopes
// oldest first; the cursor is an offset into the thread. Queued deltas
// are drained into the response.
func (s *StubClient) ListThreadMessages(_ context.Context, req ListRequest) (*ListResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &CallError{Op: "list_thread_messages", Err: ErrClosed}
	}
	if s.ListErr != nil {
		return nil, &CallError{Op: "list_thread_messages", Err: s.ListErr}
	}

	msgs := s.threads[req.ThreadID]
	offset := 0
	if req.Page.Cursor != "" {
		n, err := strconv.Atoi(req.Page.Cursor)
		if err != nil || n < 0 || n > len(msgs) {
			return nil, &CallError{Op: "list_thread_messages",
				Err: fmt.Errorf("%w: bad cursor %q", ErrRejected, req.Page.Cursor)}
		}
		offset = n
	}
	size := req.Page.NumItems
	if size <= 0 {
		size = s.pageSize
	}
	end := offset + size
	if end > len(msgs) {
		end = len(msgs)
	}

	page := &types.MessagePage{
		Messages: append([]types.MessageEnvelope(nil), msgs[offset:end]...),
		IsDone:   end == len(msgs),
	}
	if !page.IsDone {
		page.Cursor = strconv.Itoa(end)
	}

	deltas := s.deltas[req.ThreadID]
	s.deltas[req.ThreadID] = nil
	return &ListResponse{Page: page, Deltas: deltas}, nil
}

// SearchEntities implements Client.
func (s *StubClient) SearchEntities(_ context.Context, query string) ([]types.CandidateMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &CallError{Op: "search_entities", Err: ErrClosed}
	}
	if s.SearchErr != nil {
		return nil, &CallError{Op: "search_entities", Err: s.SearchErr}
	}
	s.Queries = append(s.Queries, query)
	if m, ok := s.matches[query]; ok {
		return m, nil
	}
	return s.fallback, nil
}

// SubmitToolResult implements Client. A second result for the same tool
// call is rejected, matching the backend's at-most-once contract. On
// acceptance the thread's matching tool-call parts flip to
// output-available.
func (s *StubClient) SubmitToolResult(_ context.Context, threadID string, result types.ToolResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &CallError{Op: "submit_tool_result", Err: ErrClosed}
	}
	if s.SubmitErr != nil {
		return &CallError{Op: "submit_tool_result", Err: s.SubmitErr}
	}
	if s.settled[result.ToolCallID] {
		return &CallError{Op: "submit_tool_result",
			Err: fmt.Errorf("%w: tool call %s already decided", ErrRejected, result.ToolCallID)}
	}
	s.settled[result.ToolCallID] = true
	s.Submitted = append(s.Submitted, result)

	msgs := s.threads[threadID]
	for i := range msgs {
		for j := range msgs[i].Parts {
			p := &msgs[i].Parts[j]
			if p.Type == string(types.PartToolCall) && p.ToolCallID == result.ToolCallID {
				p.State = string(types.ToolStateOutputAvailable)
			}
		}
	}
	return nil
}

// SendMessage implements Client. The prompt is appended to the thread as
// a settled user message at the next order.
func (s *StubClient) SendMessage(_ context.Context, threadID, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &CallError{Op: "send_message", Err: ErrClosed}
	}
	if s.SendErr != nil {
		return &CallError{Op: "send_message", Err: s.SendErr}
	}
	s.Sent = append(s.Sent, prompt)

	msgs := s.threads[threadID]
	var next int64 = 1
	if len(msgs) > 0 {
		next = msgs[len(msgs)-1].Order + 1
	}
	s.threads[threadID] = append(msgs, types.MessageEnvelope{
		ID:       fmt.Sprintf("stub-%s-%d", threadID, next),
		ThreadID: threadID,
		Role:     string(types.RoleUser),
		Order:    next,
		Status:   string(types.StatusSuccess),
		Parts:    []types.RawPart{{Type: "text", Text: prompt}},
	})
	return nil
}

// Close implements Client.
func (s *StubClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Client = (*StubClient)(nil)
var _ Client = (*RemoteClient)(nil)
