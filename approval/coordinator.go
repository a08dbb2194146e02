package approval

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/peroskyX/inbox-poc/log"
	"github.com/peroskyX/inbox-poc/types"
)

// State is the coordinator's decision lifecycle.
type State string

// Coordinator states. Selection moves awaiting-input to
// collecting-selections; a submission in flight holds submitting; a
// settled decision is final.
const (
	StateAwaitingInput        State = "awaiting-input"
	StateCollectingSelections State = "collecting-selections"
	StateSubmitting           State = "submitting"
	StateSettled              State = "settled"
)

// Coordinator errors.
var (
	// ErrNoSelections is returned when approval requires at least one
	// resolved selection and none has been made.
	ErrNoSelections = errors.New("approval requires at least one selection")
	// ErrAlreadySettled is returned once a decision has been submitted.
	ErrAlreadySettled = errors.New("decision already settled")
	// ErrSubmitting is returned while a submission is in flight.
	ErrSubmitting = errors.New("decision submission in flight")
)

// Submitter delivers one tool result. backend.Client satisfies it.
type Submitter interface {
	SubmitToolResult(ctx context.Context, threadID string, result types.ToolResult) error
}

// Coordinator drives one tool call from awaiting-input to settled. It
// guarantees at most one submission per tool call: once Approve or Deny
// succeeds, every later attempt fails with ErrAlreadySettled, and a
// failed submission reverts so the user can retry.
type Coordinator struct {
	mu         sync.Mutex
	inv        types.Invocation
	threadID   string
	submitter  Submitter
	logger     *log.Logger
	selections map[int]types.CandidateMatch
	state      State
	outcome    types.DecisionOutput
}

// NewCoordinator creates a coordinator for one invocation.
// A nil logger disables logging.
func NewCoordinator(inv types.Invocation, threadID string, submitter Submitter, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = log.Nop()
	}
	return &Coordinator{
		inv:        inv,
		threadID:   threadID,
		submitter:  submitter,
		logger:     logger.WithThread(threadID),
		selections: make(map[int]types.CandidateMatch),
		state:      StateAwaitingInput,
	}
}

// Invocation returns the invocation under decision.
func (c *Coordinator) Invocation() types.Invocation {
	return c.inv
}

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Select records the user's pick for one sub-operation, replacing any
// previous pick for the same index. Selections are per sub-operation;
// picking for index 2 never touches index 0.
func (c *Coordinator) Select(index int, match types.CandidateMatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSettled:
		return ErrAlreadySettled
	case StateSubmitting:
		return ErrSubmitting
	}
	c.selections[index] = match
	c.state = StateCollectingSelections
	return nil
}

// Deselect clears the pick for one sub-operation.
func (c *Coordinator) Deselect(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateSettled:
		return ErrAlreadySettled
	case StateSubmitting:
		return ErrSubmitting
	}
	delete(c.selections, index)
	if len(c.selections) == 0 {
		c.state = StateAwaitingInput
	}
	return nil
}

// Selected returns the current pick for a sub-operation.
func (c *Coordinator) Selected(index int) (types.CandidateMatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.selections[index]
	return m, ok
}

// SelectionCount returns the number of sub-operations with a pick.
func (c *Coordinator) SelectionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.selections)
}

// CanApprove reports whether Approve would be accepted right now.
// Families that resolve against search results need at least one
// selection; create and generic invocations are always approvable.
func (c *Coordinator) CanApprove() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSettled || c.state == StateSubmitting {
		return false
	}
	if !c.inv.Family.RequiresSelection() {
		return true
	}
	return len(c.selections) > 0
}

// Approve submits the approval with the collected selections. Partial
// selections on a batch are legal; unselected sub-operations are simply
// absent from the payload.
func (c *Coordinator) Approve(ctx context.Context) error {
	c.mu.Lock()
	if err := c.submittableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.inv.Family.RequiresSelection() && len(c.selections) == 0 {
		c.mu.Unlock()
		return ErrNoSelections
	}
	result := types.ToolResult{
		ToolCallID: c.inv.ToolCallID,
		ToolName:   c.inv.ToolName,
		Output:     types.DecisionApproved,
		Payload:    c.approvalPayloadLocked(),
	}
	return c.submit(ctx, result)
}

// Deny submits the denial. Denial is always legal before settlement and
// never carries a payload.
func (c *Coordinator) Deny(ctx context.Context) error {
	c.mu.Lock()
	if err := c.submittableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	result := types.ToolResult{
		ToolCallID: c.inv.ToolCallID,
		ToolName:   c.inv.ToolName,
		Output:     types.DecisionDenied,
	}
	return c.submit(ctx, result)
}

// Outcome returns the settled decision, if any.
func (c *Coordinator) Outcome() (types.DecisionOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome, c.state == StateSettled
}

func (c *Coordinator) submittableLocked() error {
	switch c.state {
	case StateSettled:
		return ErrAlreadySettled
	case StateSubmitting:
		return ErrSubmitting
	}
	return nil
}

// submit runs the submission outside the lock, holding the submitting
// state so concurrent decisions are rejected rather than duplicated.
// Called with the lock held; releases it.
func (c *Coordinator) submit(ctx context.Context, result types.ToolResult) error {
	prior := c.state
	c.state = StateSubmitting
	c.mu.Unlock()

	err := c.submitter.SubmitToolResult(ctx, c.threadID, result)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// Revert so the user can adjust selections and retry.
		c.state = prior
		c.logger.Warn("decision submission failed", map[string]any{
			"tool_call_id": result.ToolCallID,
			"output":       string(result.Output),
			"error":        err.Error(),
		})
		return err
	}
	c.state = StateSettled
	c.outcome = result.Output
	c.logger.Info("decision settled", map[string]any{
		"tool_call_id": result.ToolCallID,
		"tool":         result.ToolName,
		"output":       string(result.Output),
	})
	return nil
}

// approvalPayloadLocked builds the approval payload from the collected
// selections. Create and generic invocations carry none. A single
// sub-operation submits the flat selection shape; a batch submits a
// selections array referencing sub-operations by index.
func (c *Coordinator) approvalPayloadLocked() map[string]any {
	if !c.inv.Family.RequiresSelection() || len(c.selections) == 0 {
		return nil
	}

	if !c.inv.Batch() {
		for _, match := range c.selections {
			payload := map[string]any{"selectionId": match.ID}
			if match.Title != "" {
				payload["selectionTitle"] = match.Title
			}
			if match.Type != "" {
				payload["selectionType"] = match.Type
			}
			if match.StartDate != "" {
				payload["selectionStartDate"] = match.StartDate
			}
			return payload
		}
	}

	indexField := c.inv.Family.IndexField()
	indexes := make([]int, 0, len(c.selections))
	for idx := range c.selections {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	selections := make([]map[string]any, 0, len(indexes))
	for _, idx := range indexes {
		selections = append(selections, map[string]any{
			indexField:    idx,
			"selectionId": c.selections[idx].ID,
		})
	}
	return map[string]any{"selections": selections}
}
