package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var features = []string{
	"• Manage OpenAI assistants and their vector stores",
	"• Stream replies with file citations",
	"• Local SQLite conversation log with search and export",
}

func renderAboutModal(a AppView, width, height int) string {
	var sb strings.Builder

	titleStyle := lipgloss.NewStyle().
		Foreground(successColor).
		Bold(true)
	labelStyle := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true)
	valueStyle := lipgloss.NewStyle().
		Foreground(dimColor)

	sb.WriteString(titleStyle.Render("assistui"))
	sb.WriteString("\n\n")
	for _, feature := range features {
		sb.WriteString(valueStyle.Render(feature))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString(labelStyle.Render("Version: "))
	sb.WriteString(valueStyle.Render(a.version))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("License: "))
	sb.WriteString(valueStyle.Render(a.license))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Data:    "))
	sb.WriteString(valueStyle.Render(a.cfg.DataDir()))
	sb.WriteString("\n\n")

	sb.WriteString(valueStyle.Render(fmt.Sprintf("Press Esc or %s to close", a.kb.DisplayActionKey("about"))))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, boxStyle.Render(sb.String()))
}
