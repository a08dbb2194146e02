package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/peroskyX/inbox-poc/classify"
	"github.com/peroskyX/inbox-poc/types"
)

func (m ChatModel) render() string {
	var b strings.Builder

	title := "Inbox"
	if m.session.ThreadID != "" {
		title += "  " + MutedStyle.Render(m.session.ThreadID)
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(ErrorStyle.Render(m.status))
	}
	b.WriteString("\n")

	if m.activeCard() != nil {
		b.WriteString(MutedStyle.Render("Waiting for approval..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.helpLine()))
	return b.String()
}

func (m ChatModel) helpLine() string {
	if m.activeCard() != nil {
		return "tab: next operation • j/k: move • space: select • a: approve • d: deny • ctrl+c: quit"
	}
	return "enter: send • ↑/↓: scroll • ctrl+c: quit"
}

func (m ChatModel) renderTranscript() string {
	msgs := m.merged()
	if len(msgs) == 0 {
		if m.loading {
			return m.spin.View() + " " + MutedStyle.Render("Loading conversation...")
		}
		return MutedStyle.Render("No messages yet. Say hello.")
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m ChatModel) renderMessage(msg *types.Message) string {
	var b strings.Builder
	b.WriteString(m.roleLabel(msg))
	b.WriteString("\n")

	if classify.Thinking(msg) {
		b.WriteString(PendingStyle.Render(m.spin.View() + " " + m.phraseFor(msg.ID)))
		b.WriteString("\n")
		return b.String()
	}

	if text := msg.Text(); text != "" {
		b.WriteString(text)
		b.WriteString("\n")
	}

	if label, ok := classify.ToolStatusLabel(msg); ok {
		b.WriteString(PendingStyle.Render(m.spin.View() + " " + label))
		b.WriteString("\n")
	}

	for _, tc := range classify.PendingToolCalls(msg) {
		if c, ok := m.cards[tc.ToolCallID]; ok {
			b.WriteString(m.renderCard(c))
			b.WriteString("\n")
		}
	}

	if msg.Status == types.StatusFailed {
		b.WriteString(ErrorStyle.Render("This message failed to generate"))
		b.WriteString("\n")
	}
	return b.String()
}

func (m ChatModel) roleLabel(msg *types.Message) string {
	switch msg.Role {
	case types.RoleUser:
		label := UserLabelStyle.Render("You")
		if msg.Optimistic {
			label += " " + PendingStyle.Render("(sending)")
		}
		return label
	case types.RoleAssistant:
		name := msg.AgentName
		if name == "" {
			name = m.session.AgentName
		}
		if name == "" {
			name = "Assistant"
		}
		return AssistantLabelStyle.Render(name)
	default:
		return MutedStyle.Render(string(msg.Role))
	}
}

// phraseFor returns the thinking placeholder for a message, picking one
// on first use and keeping it stable across refreshes.
func (m ChatModel) phraseFor(id string) string {
	if phrase, ok := m.thinking[id]; ok {
		return phrase
	}
	phrase := classify.ThinkingPhrase()
	m.thinking[id] = phrase
	return phrase
}

func (m ChatModel) renderCard(c *card) string {
	var b strings.Builder
	b.WriteString(CardTitleStyle.Render("Approval required"))
	b.WriteString("\n")
	b.WriteString(c.inv.Family.ActionDescription())
	b.WriteString("\n")

	if c.inv.UserMessage != "" {
		b.WriteString(MutedStyle.Render(c.inv.UserMessage))
		b.WriteString("\n")
	}
	if c.inv.Reason != "" {
		b.WriteString(MutedStyle.Render("Reason: " + c.inv.Reason))
		b.WriteString("\n")
	}

	focused := m.activeCall == c.inv.ToolCallID
	for pos, op := range c.inv.SubOps {
		b.WriteString(m.renderSubOp(c, pos, op, focused))
	}

	b.WriteString("\n")
	b.WriteString(m.renderCardFooter(c, focused))
	return CardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m ChatModel) renderSubOp(c *card, pos int, op types.SubOperation, focused bool) string {
	var b strings.Builder
	cursor := "  "
	if focused && pos == c.subOpPos && len(c.inv.SubOps) > 1 {
		cursor = MatchCursorStyle.Render("> ")
	}

	switch {
	case op.Item != nil:
		b.WriteString(cursor + renderItem(op.Item) + "\n")
	case op.Query != "":
		b.WriteString(cursor + fmt.Sprintf("Target: %q\n", op.Query))
		if len(op.Updates) > 0 {
			b.WriteString("   " + MutedStyle.Render(renderUpdates(op.Updates)) + "\n")
		}
		b.WriteString(m.renderMatches(c, pos, op, focused))
	}
	return b.String()
}

func (m ChatModel) renderMatches(c *card, pos int, op types.SubOperation, focused bool) string {
	var b strings.Builder
	if err, ok := c.searchErr[op.Index]; ok {
		b.WriteString("   " + ErrorStyle.Render("Search failed: "+err.Error()) + "\n")
		return b.String()
	}
	matches := c.matches[op.Index]
	if matches == nil {
		b.WriteString("   " + MutedStyle.Render(m.spin.View()+" Searching...") + "\n")
		return b.String()
	}
	if len(matches) == 0 {
		b.WriteString("   " + MutedStyle.Render("No matches found") + "\n")
		return b.String()
	}

	selected, hasSelection := c.coord.Selected(op.Index)
	for i, match := range matches {
		style := MatchStyle
		marker := "( )"
		if hasSelection && selected.ID == match.ID {
			style = MatchSelectedStyle
			marker = "(x)"
		}
		row := fmt.Sprintf("%s %s", marker, matchSummary(match))
		if focused && pos == c.subOpPos && i == c.matchPos {
			b.WriteString("   " + MatchCursorStyle.Render("> ") + style.Render(row) + "\n")
		} else {
			b.WriteString("     " + style.Render(row) + "\n")
		}
	}
	return b.String()
}

func (m ChatModel) renderCardFooter(c *card, focused bool) string {
	if !focused {
		return MutedStyle.Render("Waiting for the request above")
	}

	var parts []string
	if c.inv.Family.RequiresSelection() {
		parts = append(parts, fmt.Sprintf("%d of %d selected", c.coord.SelectionCount(), len(c.inv.Queries())))
	}
	if c.coord.CanApprove() {
		parts = append(parts, SuccessStyle.Render("[a] Approve"))
	} else {
		parts = append(parts, MutedStyle.Render("[a] Approve (select first)"))
	}
	parts = append(parts, ErrorStyle.Render("[d] Deny"))
	return strings.Join(parts, "  ")
}

func matchSummary(match types.CandidateMatch) string {
	out := match.Title
	if match.Type != "" {
		out += " " + MutedStyle.Render("["+match.Type+"]")
	}
	if match.StartDate != "" {
		out += " " + MutedStyle.Render(match.StartDate)
	}
	return out
}

// renderItem summarizes a proposed new item on one line, title first and
// the rest of the fields in stable order.
func renderItem(item map[string]any) string {
	title, _ := item["title"].(string)
	if title == "" {
		title = "(untitled)"
	}

	keys := make([]string, 0, len(item))
	for k := range item {
		if k == "title" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := title
	var extra []string
	for _, k := range keys {
		extra = append(extra, fmt.Sprintf("%s: %v", k, item[k]))
	}
	if len(extra) > 0 {
		out += " " + MutedStyle.Render("("+strings.Join(extra, ", ")+")")
	}
	return out
}

func renderUpdates(updates map[string]any) string {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s → %v", k, updates[k]))
	}
	return "Changes: " + strings.Join(out, ", ")
}
