package backend

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
	"github.com/peroskyX/inbox-poc/wire"
)

// DialTimeout bounds the initial connection attempt.
const DialTimeout = 5 * time.Second

// RemoteClient talks to the backend over a single connection with
// length-prefixed msgpack frames. The protocol is strict request/response,
// so at most one call is in flight at a time; concurrent callers queue on
// the mutex.
type RemoteClient struct {
	mu     sync.Mutex
	conn   net.Conn
	enc    *wire.FrameEncoder
	dec    *wire.FrameDecoder
	closed bool
	logger *log.Logger
}

// Dial connects to the backend at addr (tcp host:port, or a unix socket
// path containing a slash).
func Dial(addr string, logger *log.Logger) (*RemoteClient, error) {
	network := "tcp"
	if strings.Contains(addr, "/") {
		network = "unix"
	}
	conn, err := net.DialTimeout(network, addr, DialTimeout)
	if err != nil {
		return nil, &CallError{Op: "dial", Err: err}
	}
	return NewRemoteClient(conn, logger), nil
}

// NewRemoteClient wraps an established connection.
// A nil logger disables logging.
func NewRemoteClient(conn net.Conn, logger *log.Logger) *RemoteClient {
	if logger == nil {
		logger = log.Nop()
	}
	return &RemoteClient{
		conn:   conn,
		enc:    wire.NewFrameEncoder(conn),
		dec:    wire.NewFrameDecoder(conn),
		logger: logger,
	}
}

// roundTrip sends one request frame and reads one response frame.
func (c *RemoteClient) roundTrip(ctx context.Context, op string, req *wire.Request) (*wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &CallError{Op: op, Err: ErrClosed}
	}
	if err := ctx.Err(); err != nil {
		return nil, &CallError{Op: op, Err: err}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, &CallError{Op: op, Err: err}
	}

	req.ContractVersion = types.WireContractVersion
	if err := c.enc.WriteFrame(req); err != nil {
		return nil, &CallError{Op: op, Err: err}
	}

	payload, err := c.dec.ReadFrame()
	if err != nil {
		if wire.IsFatalFrameError(err) {
			c.logger.Error("fatal frame error, closing connection", map[string]any{
				"op":    op,
				"error": err.Error(),
			})
			c.closeLocked()
		}
		return nil, &CallError{Op: op, Err: err}
	}

	resp, err := wire.DecodeResponse(payload)
	if err != nil {
		return nil, &CallError{Op: op, Err: err}
	}
	if resp.Type == wire.TypeError {
		return nil, &CallError{Op: op, Err: fmt.Errorf("%w: %s", ErrRejected, resp.Error)}
	}
	return resp, nil
}

// ListThreadMessages implements Client.
func (c *RemoteClient) ListThreadMessages(ctx context.Context, req ListRequest) (*ListResponse, error) {
	resp, err := c.roundTrip(ctx, "list_thread_messages", &wire.Request{
		Type:       wire.TypeListThreadMessages,
		ThreadID:   req.ThreadID,
		Pagination: &req.Page,
		StreamArgs: req.Streams,
	})
	if err != nil {
		return nil, err
	}
	if resp.Type != wire.TypeMessagePage || resp.Page == nil {
		return nil, &CallError{Op: "list_thread_messages",
			Err: fmt.Errorf("%w: unexpected response type %q", ErrRejected, resp.Type)}
	}
	return &ListResponse{Page: resp.Page, Deltas: resp.Deltas}, nil
}

// SearchEntities implements Client.
func (c *RemoteClient) SearchEntities(ctx context.Context, query string) ([]types.CandidateMatch, error) {
	resp, err := c.roundTrip(ctx, "search_entities", &wire.Request{
		Type:  wire.TypeSearchEntities,
		Query: query,
	})
	if err != nil {
		return nil, err
	}
	if resp.Type != wire.TypeMatches {
		return nil, &CallError{Op: "search_entities",
			Err: fmt.Errorf("%w: unexpected response type %q", ErrRejected, resp.Type)}
	}
	return resp.Matches, nil
}

// SubmitToolResult implements Client.
func (c *RemoteClient) SubmitToolResult(ctx context.Context, threadID string, result types.ToolResult) error {
	resp, err := c.roundTrip(ctx, "submit_tool_result", &wire.Request{
		Type:     wire.TypeSubmitToolResult,
		ThreadID: threadID,
		Result:   &result,
	})
	if err != nil {
		return err
	}
	if resp.Type != wire.TypeAck {
		return &CallError{Op: "submit_tool_result",
			Err: fmt.Errorf("%w: unexpected response type %q", ErrRejected, resp.Type)}
	}
	return nil
}

// SendMessage implements Client.
func (c *RemoteClient) SendMessage(ctx context.Context, threadID, prompt string) error {
	resp, err := c.roundTrip(ctx, "send_message", &wire.Request{
		Type:     wire.TypeSendMessage,
		ThreadID: threadID,
		Prompt:   prompt,
	})
	if err != nil {
		return err
	}
	if resp.Type != wire.TypeAck {
		return &CallError{Op: "send_message",
			Err: fmt.Errorf("%w: unexpected response type %q", ErrRejected, resp.Type)}
	}
	return nil
}

// Close implements Client.
func (c *RemoteClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *RemoteClient) closeLocked() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}
