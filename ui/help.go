package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.kb

	green := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)
	blue := lipgloss.NewStyle().Foreground(accentColor)

	title := green.Render("assistui - Keyboard Shortcuts")

	line := func(action, desc string) string {
		return fmt.Sprintf("• %-13s %s", kb.DisplayActionKey(action), desc)
	}

	assistants := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Assistants"),
		line("focus_next", "Switch table / prompt"),
		"• Enter         Select (new thread)",
		line("filter_assistants", "Filter table"),
		line("refresh_assistants", "Refresh list"),
		line("new_assistant", "New assistant"),
		line("delete_assistant", "Delete assistant"),
		line("vector_stores", "Vector stores"),
		line("api_key", "Set API key"),
	)

	global := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Global"),
		line("search_messages", "Search conversation"),
		line("export_conversation", "Export conversation"),
		line("clear_conversation", "Clear conversation"),
		line("about", "About"),
		line("help", "Toggle this help"),
		line("quit", "Quit"),
	)

	navigation := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Navigation"),
		line("scroll_down", "Scroll down 1 line"),
		line("scroll_up", "Scroll up 1 line"),
		line("half_page_down", "Half page down"),
		line("half_page_up", "Half page up"),
		line("page_down", "Full page down"),
		line("page_up", "Full page up"),
		line("scroll_to_top", "Jump to top"),
		line("scroll_to_bottom", "Jump to bottom"),
	)

	chat := lipgloss.JoinVertical(
		lipgloss.Left,
		blue.Render("## Chat Actions"),
		"• Enter         Send message",
		"• Alt+Enter     New line",
		line("cancel_stream", "Stop streaming"),
		line("run_instructions", "Run instructions"),
		line("attach_file", "Attach file"),
		line("yank_last_response", "Copy last response"),
	)

	column1 := lipgloss.JoinVertical(lipgloss.Left, assistants, "", global)
	column2 := lipgloss.JoinVertical(lipgloss.Left, navigation, "", chat)

	columnStyle := lipgloss.NewStyle().Width(42).PaddingLeft(4)
	twoColumns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Render(column1),
		"  ",
		columnStyle.Render(column2),
	)

	footer := lipgloss.NewStyle().
		Foreground(dimColor).
		Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", twoColumns, "", footer)

	helpBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, helpBox.Render(content))
}
