package wire

import (
	"github.com/vmihailenco/msgpack/v5"

	"github.com/peroskyX/inbox-poc/types"
)

// Request type discriminators.
const (
	TypeListThreadMessages = "list_thread_messages"
	TypeSearchEntities     = "search_entities"
	TypeSubmitToolResult   = "submit_tool_result"
	TypeSendMessage        = "send_message"
)

// Response type discriminators.
const (
	TypeMessagePage = "message_page"
	TypeMatches     = "matches"
	TypeAck         = "ack"
	TypeError       = "error"
)

// Request is the client-to-backend frame payload. Type selects the
// operation; only the fields that operation reads are populated.
type Request struct {
	ContractVersion string             `msgpack:"contract_version"`
	Type            string             `msgpack:"type"`
	ThreadID        string             `msgpack:"thread_id,omitempty"`
	Pagination      *types.PageRequest `msgpack:"pagination,omitempty"`
	StreamArgs      *types.StreamArgs  `msgpack:"stream_args,omitempty"`
	Query           string             `msgpack:"query,omitempty"`
	Prompt          string             `msgpack:"prompt,omitempty"`
	Result          *types.ToolResult  `msgpack:"result,omitempty"`
}

// Response is the backend-to-client frame payload.
type Response struct {
	Type    string                 `msgpack:"type"`
	Page    *types.MessagePage     `msgpack:"page,omitempty"`
	Deltas  []types.StreamDelta    `msgpack:"deltas,omitempty"`
	Matches []types.CandidateMatch `msgpack:"matches,omitempty"`
	Error   string                 `msgpack:"error,omitempty"`
}

// typeProbe peeks at the type field without a full decode.
type typeProbe struct {
	Type string `msgpack:"type"`
}

// DecodeResponse decodes a response frame payload.
func DecodeResponse(payload []byte) (*Response, error) {
	var resp Response
	if err := msgpack.Unmarshal(payload, &resp); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode response frame",
			Err:  err,
		}
	}
	return &resp, nil
}

// DecodeRequest decodes a request frame payload.
// Used by stub servers in tests and local development.
func DecodeRequest(payload []byte) (*Request, error) {
	var probe typeProbe
	if err := msgpack.Unmarshal(payload, &probe); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode frame type",
			Err:  err,
		}
	}
	switch probe.Type {
	case TypeListThreadMessages, TypeSearchEntities, TypeSubmitToolResult, TypeSendMessage:
	default:
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "unknown request type " + probe.Type,
		}
	}
	var req Request
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		return nil, &FrameError{
			Kind: FrameErrorDecode,
			Msg:  "failed to decode request frame",
			Err:  err,
		}
	}
	return &req, nil
}
