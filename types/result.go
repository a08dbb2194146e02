package types

// DecisionOutput is the human decision submitted for a tool call.
type DecisionOutput string

// Decision output constants. These are the only values the backend
// accepts for a tool result's output field.
const (
	DecisionApproved DecisionOutput = "approved"
	DecisionDenied   DecisionOutput = "denied"
)

// ToolResult is the submission payload for one decision. Exactly one
// ToolResult is ever submitted per ToolCallID.
//
// Payload is present only for approvals that carry selections: a flat
// selection for single operations, or a selections array for batches.
// Denials never carry a payload.
type ToolResult struct {
	ToolCallID string         `msgpack:"toolCallId" json:"toolCallId"`
	ToolName   string         `msgpack:"tool" json:"tool"`
	Output     DecisionOutput `msgpack:"output" json:"output"`
	Payload    map[string]any `msgpack:"payload,omitempty" json:"payload,omitempty"`
}
