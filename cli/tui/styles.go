// Package tui provides the interactive Bubble Tea chat surface for the
// inbox CLI: the reconciled transcript, streaming updates, and the
// decision cards for tool calls awaiting approval.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	successColor   = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	highlightColor = lipgloss.Color("#3B82F6") // Blue
)

// Styles for chat components.
var (
	// TitleStyle for the header line.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	// UserLabelStyle for the user's message label.
	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(highlightColor)

	// AssistantLabelStyle for the assistant's message label.
	AssistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	// MutedStyle for secondary text: timestamps, hints, placeholders.
	MutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	// PendingStyle for optimistic and in-flight message markers.
	PendingStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Italic(true)

	// ErrorStyle for failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// SuccessStyle for settled approvals.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)

	// CardStyle for a tool decision card.
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warningColor).
			Padding(0, 1)

	// CardTitleStyle for the decision card heading.
	CardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	// MatchStyle for an unselected candidate row.
	MatchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	// MatchCursorStyle for the highlighted candidate row.
	MatchCursorStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(highlightColor)

	// MatchSelectedStyle for a chosen candidate row.
	MatchSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(successColor)

	// HelpStyle for the footer key hints.
	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
