package types

// SubOperation is one element of an invocation's array input: an item to
// create, an update against a queried target, or a removal query.
type SubOperation struct {
	// Index is the element's position in the invocation's array field.
	// Selection payloads reference sub-operations by this index.
	Index int

	// Query is the free-text target search query (update and remove).
	Query string

	// Updates holds the proposed field changes (update only). Nil-valued
	// fields are stripped at parse time; only concrete updates are shown
	// or submitted.
	Updates map[string]any

	// Item is the fully-specified new item (create only).
	Item map[string]any
}

// Invocation is the logical unit requiring a decision, derived from a
// tool-call part's input. It is never stored; re-derive it from the part
// whenever the part changes.
type Invocation struct {
	ToolName   string
	ToolCallID string
	Family     ToolFamily

	// SubOps is the parsed array input. Malformed input (array field
	// missing or wrong shape) yields zero sub-operations, which is a
	// valid, safely displayable state rather than an error.
	SubOps []SubOperation

	// UserMessage is the agent's optional explanation for the proposal.
	UserMessage string

	// Reason is the agent's stated reason for a removal, when provided.
	Reason string
}

// Batch reports whether the invocation carries more than one
// sub-operation. Batches are disambiguated independently per sub-operation
// but approved or denied as one decision submission.
func (inv Invocation) Batch() bool {
	return len(inv.SubOps) > 1
}

// Queries returns the sub-operations that carry a search query, in index
// order. Create sub-operations carry none.
func (inv Invocation) Queries() []SubOperation {
	var out []SubOperation
	for _, op := range inv.SubOps {
		if op.Query != "" {
			out = append(out, op)
		}
	}
	return out
}

// ParseInvocation derives the invocation from a tool-call part.
//
// The array field inspected depends on the tool family: items (create),
// operations (update), queries (remove). Elements of the wrong shape are
// skipped; a missing or non-array field yields zero sub-operations.
func ParseInvocation(p ToolCallPart) Invocation {
	inv := Invocation{
		ToolName:   p.ToolName,
		ToolCallID: p.ToolCallID,
		Family:     FamilyFor(p.ToolName),
	}
	if p.Input == nil {
		return inv
	}
	inv.UserMessage, _ = p.Input["userMessage"].(string)
	inv.Reason, _ = p.Input["reason"].(string)

	switch inv.Family {
	case FamilyCreate:
		for i, el := range asSlice(p.Input["items"]) {
			item, ok := el.(map[string]any)
			if !ok {
				continue
			}
			inv.SubOps = append(inv.SubOps, SubOperation{Index: i, Item: item})
		}
	case FamilyUpdate:
		for i, el := range asSlice(p.Input["operations"]) {
			op, ok := el.(map[string]any)
			if !ok {
				continue
			}
			query, _ := op["query"].(string)
			inv.SubOps = append(inv.SubOps, SubOperation{
				Index:   i,
				Query:   query,
				Updates: nonNilEntries(op["updates"]),
			})
		}
	case FamilyRemove:
		for i, el := range asSlice(p.Input["queries"]) {
			query, ok := el.(string)
			if !ok {
				continue
			}
			inv.SubOps = append(inv.SubOps, SubOperation{Index: i, Query: query})
		}
	}
	return inv
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// nonNilEntries filters an updates map down to concrete values.
func nonNilEntries(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		if val == nil {
			continue
		}
		out[k] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
