package types

// Known schedule tool names. The agent is free to invent others; unknown
// names fall into FamilyGeneric and degrade gracefully.
const (
	ToolCreateSchedule    = "createSchedule"
	ToolUpdateSchedule    = "updateSchedule"
	ToolRemoveSchedule    = "removeSchedule"
	ToolGetSchedule       = "getSchedule"
	ToolSearchSchedule    = "searchSchedule"
	ToolCheckAvailability = "checkAvailability"
	ToolGetEnergy         = "getEnergy"
	ToolGetSleep          = "getSleep"
)

// ToolFamily is the closed tagged variant over tool behaviors that require
// a human decision. FamilyGeneric is the explicit fallback: a tool name
// this client does not recognize still gets a decision surface, just
// without disambiguation.
type ToolFamily string

// Tool family constants.
const (
	FamilyCreate  ToolFamily = "create"
	FamilyUpdate  ToolFamily = "update"
	FamilyRemove  ToolFamily = "remove"
	FamilyGeneric ToolFamily = "generic"
)

// FamilyFor maps a tool name to its behavior family.
func FamilyFor(toolName string) ToolFamily {
	switch toolName {
	case ToolCreateSchedule:
		return FamilyCreate
	case ToolUpdateSchedule:
		return FamilyUpdate
	case ToolRemoveSchedule:
		return FamilyRemove
	default:
		return FamilyGeneric
	}
}

// RequiresSelection reports whether approval for this family requires the
// user to resolve targets against search results first. Create proposes
// fully-specified new items and needs no disambiguation.
func (f ToolFamily) RequiresSelection() bool {
	return f == FamilyUpdate || f == FamilyRemove
}

// IndexField returns the payload field name carrying a selection's
// sub-operation index. Update operations index into the operations array;
// remove operations index into the queries array.
func (f ToolFamily) IndexField() string {
	if f == FamilyRemove {
		return "queryIndex"
	}
	return "operationIndex"
}

// ActionDescription returns the human summary shown on a decision card.
func (f ToolFamily) ActionDescription() string {
	switch f {
	case FamilyCreate:
		return "Create a new schedule item"
	case FamilyUpdate:
		return "Update an existing schedule item"
	case FamilyRemove:
		return "Remove a schedule item"
	default:
		return "Tool execution requires approval"
	}
}
