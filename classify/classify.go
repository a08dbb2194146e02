// Package classify derives display state from transcript messages: which
// assistant messages are still thinking, what progress label a running
// tool invocation should show, and which tool calls are waiting on a
// user decision.
//
// Everything here is a pure function of the message; classification never
// mutates the transcript.
package classify

import (
	"github.com/peroskyX/inbox-poc/types"
)

// FallbackToolLabel is shown for a running tool with no specific label.
const FallbackToolLabel = "Working on it..."

// toolLabels maps tool names to in-flight progress labels.
var toolLabels = map[string]string{
	types.ToolGetSchedule:       "Checking your schedule...",
	types.ToolSearchSchedule:    "Searching your schedule...",
	types.ToolCheckAvailability: "Finding available times...",
	types.ToolCreateSchedule:    "Creating schedule item(s)...",
	types.ToolUpdateSchedule:    "Updating schedule item(s)...",
	types.ToolRemoveSchedule:    "Removing schedule item(s)...",
	types.ToolGetEnergy:         "Analyzing your energy patterns...",
	types.ToolGetSleep:          "Checking your sleep data...",
}

// Thinking reports whether the assistant message is pending with no
// content yet. Thinking messages render a rotating placeholder phrase.
func Thinking(m *types.Message) bool {
	return m.Role == types.RoleAssistant &&
		m.Status == types.StatusPending &&
		len(m.Parts) == 0
}

// ToolStatusLabel returns the progress label for a pending message that
// is executing a tool. The first tool part not waiting on a user decision
// determines the label; tools held at input-available are approval cards,
// not progress.
func ToolStatusLabel(m *types.Message) (string, bool) {
	if m.Status != types.StatusPending {
		return "", false
	}
	for _, p := range m.Parts {
		tc, ok := p.(types.ToolCallPart)
		if !ok || tc.State == types.ToolStateInputAvailable {
			continue
		}
		if label, ok := toolLabels[tc.ToolName]; ok {
			return label, true
		}
		return FallbackToolLabel, true
	}
	return "", false
}

// PendingToolCalls returns the tool-call parts of the message that are
// waiting on a user decision, in part order.
func PendingToolCalls(m *types.Message) []types.ToolCallPart {
	var out []types.ToolCallPart
	for _, p := range m.Parts {
		if tc, ok := p.(types.ToolCallPart); ok && tc.State.AwaitingDecision() {
			out = append(out, tc)
		}
	}
	return out
}

// HasPendingApproval reports whether any message in the transcript holds
// a tool call waiting on a user decision. While true, free-text input is
// deferred in favor of the decision surface.
func HasPendingApproval(msgs []*types.Message) bool {
	for _, m := range msgs {
		if len(PendingToolCalls(m)) > 0 {
			return true
		}
	}
	return false
}
