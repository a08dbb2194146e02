package types

import (
	"errors"
	"fmt"
)

// PartKind discriminates the part sum type.
type PartKind string

// Part kind constants.
const (
	PartText       PartKind = "text"
	PartReasoning  PartKind = "reasoning"
	PartFile       PartKind = "file"
	PartSource     PartKind = "source"
	PartToolCall   PartKind = "tool-call"
	PartToolResult PartKind = "tool-result"
)

// ToolState is the lifecycle state of a tool-call part.
type ToolState string

// Tool-call state constants. Anything the backend sends that is not one of
// the two known states decodes as ToolStateOther.
const (
	ToolStateInputAvailable  ToolState = "input-available"
	ToolStateOutputAvailable ToolState = "output-available"
	ToolStateOther           ToolState = "other"
)

// AwaitingDecision reports whether a tool call in this state still accepts
// a human decision. Once the state leaves input-available, no further
// decision may be submitted (the idempotence boundary).
func (s ToolState) AwaitingDecision() bool {
	return s == ToolStateInputAvailable
}

// Part is a typed fragment of a message. The concrete types below form a
// closed sum; new wire part kinds degrade at the decode boundary rather
// than leaking unknown values into the engine.
type Part interface {
	Kind() PartKind
}

// TextPart is plain message text.
type TextPart struct {
	Text string
}

// Kind implements Part.
func (TextPart) Kind() PartKind { return PartText }

// ReasoningPart is assistant reasoning text, rendered distinctly from
// answer text.
type ReasoningPart struct {
	Text string
}

// Kind implements Part.
func (ReasoningPart) Kind() PartKind { return PartReasoning }

// FilePart references a file or image attachment.
type FilePart struct {
	MediaType string
	URL       string
	Filename  string
}

// Kind implements Part.
func (FilePart) Kind() PartKind { return PartFile }

// SourcePart is a source citation.
type SourcePart struct {
	SourceID string
	URL      string
	Title    string
}

// Kind implements Part.
func (SourcePart) Kind() PartKind { return PartSource }

// ToolCallPart is a tool invocation embedded in a message. Input is the
// opaque structured payload the agent proposed; its shape is interpreted
// lazily by ParseInvocation, never trusted here.
type ToolCallPart struct {
	ToolName   string
	ToolCallID string
	State      ToolState
	Input      map[string]any
}

// Kind implements Part.
func (ToolCallPart) Kind() PartKind { return PartToolCall }

// ToolResultPart is the settled output of a tool invocation. It renders as
// already-settled and is never reprocessed.
type ToolResultPart struct {
	ToolCallID string
	ToolName   string
	Output     map[string]any
}

// Kind implements Part.
func (ToolResultPart) Kind() PartKind { return PartToolResult }

// Decode boundary errors.
var (
	// ErrUnknownPartKind indicates a wire part kind this engine does not model.
	ErrUnknownPartKind = errors.New("unknown part kind")

	// ErrMalformedPart indicates a known part kind missing required fields.
	ErrMalformedPart = errors.New("malformed part")
)

// RawPart is the wire shape of a part. Field names match the backend
// contract; msgpack for the framed stream, json for config fixtures and
// adapter payloads.
type RawPart struct {
	Type       string         `msgpack:"type" json:"type"`
	Text       string         `msgpack:"text,omitempty" json:"text,omitempty"`
	MediaType  string         `msgpack:"mediaType,omitempty" json:"mediaType,omitempty"`
	URL        string         `msgpack:"url,omitempty" json:"url,omitempty"`
	Filename   string         `msgpack:"filename,omitempty" json:"filename,omitempty"`
	SourceID   string         `msgpack:"sourceId,omitempty" json:"sourceId,omitempty"`
	Title      string         `msgpack:"title,omitempty" json:"title,omitempty"`
	ToolName   string         `msgpack:"toolName,omitempty" json:"toolName,omitempty"`
	ToolCallID string         `msgpack:"toolCallId,omitempty" json:"toolCallId,omitempty"`
	State      string         `msgpack:"state,omitempty" json:"state,omitempty"`
	Input      map[string]any `msgpack:"input,omitempty" json:"input,omitempty"`
	Output     map[string]any `msgpack:"output,omitempty" json:"output,omitempty"`
}

// DecodePart validates a wire part and returns its typed form.
//
// Unknown kinds return ErrUnknownPartKind; known kinds with missing
// required fields return ErrMalformedPart. Tool states other than the two
// known values collapse to ToolStateOther.
func DecodePart(raw RawPart) (Part, error) {
	switch PartKind(raw.Type) {
	case PartText:
		return TextPart{Text: raw.Text}, nil
	case PartReasoning:
		return ReasoningPart{Text: raw.Text}, nil
	case PartFile:
		return FilePart{MediaType: raw.MediaType, URL: raw.URL, Filename: raw.Filename}, nil
	case PartSource:
		return SourcePart{SourceID: raw.SourceID, URL: raw.URL, Title: raw.Title}, nil
	case PartToolCall:
		if raw.ToolCallID == "" || raw.ToolName == "" {
			return nil, fmt.Errorf("%w: tool-call without toolCallId/toolName", ErrMalformedPart)
		}
		return ToolCallPart{
			ToolName:   raw.ToolName,
			ToolCallID: raw.ToolCallID,
			State:      decodeToolState(raw.State),
			Input:      raw.Input,
		}, nil
	case PartToolResult:
		if raw.ToolCallID == "" {
			return nil, fmt.Errorf("%w: tool-result without toolCallId", ErrMalformedPart)
		}
		return ToolResultPart{
			ToolCallID: raw.ToolCallID,
			ToolName:   raw.ToolName,
			Output:     raw.Output,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPartKind, raw.Type)
	}
}

// DecodeParts decodes a wire part list, skipping parts that fail to
// decode. A bad part degrades to absence rather than failing the whole
// message; the skipped count lets callers log the loss.
func DecodeParts(raw []RawPart) (parts []Part, skipped int) {
	for _, r := range raw {
		p, err := DecodePart(r)
		if err != nil {
			skipped++
			continue
		}
		parts = append(parts, p)
	}
	return parts, skipped
}

func decodeToolState(s string) ToolState {
	switch ToolState(s) {
	case ToolStateInputAvailable:
		return ToolStateInputAvailable
	case ToolStateOutputAvailable:
		return ToolStateOutputAvailable
	default:
		return ToolStateOther
	}
}
