package ui

import (
	"fmt"

	"assistui/config"
	"assistui/model"
	"assistui/storage"
)

type searchState struct {
	query    string
	matches  []storage.TurnMatch
	selected int
}

func (s *searchState) move(delta int) {
	if len(s.matches) == 0 {
		return
	}
	s.selected = (s.selected + delta + len(s.matches)) % len(s.matches)
}

func (s *searchState) current() (storage.TurnMatch, bool) {
	if s.selected < 0 || s.selected >= len(s.matches) {
		return storage.TurnMatch{}, false
	}
	return s.matches[s.selected], true
}

func (s *searchState) render(kb *config.KeyBindingsConfig, width, height int) string {
	modalWidth := modalWidthFor(80, width)
	title := fmt.Sprintf("Search: %q (%d)", s.query, len(s.matches))

	var lines []string
	if len(s.matches) == 0 {
		lines = append(lines, centerTextLine("No matches", modalWidth))
	}

	// Keep the selection visible in a window of results
	maxRows := height - 12
	if maxRows < 3 {
		maxRows = 3
	}
	start := 0
	if s.selected >= maxRows {
		start = s.selected - maxRows + 1
	}
	for i := start; i < len(s.matches) && i < start+maxRows; i++ {
		m := s.matches[i]
		who := "You"
		if m.Role == model.RoleAssistant {
			who = "Assistant"
		}
		line := leftTextLine(fmt.Sprintf("%s %s: %s", m.Timestamp.Local().Format("01-02 15:04"), who, oneLine(m.Preview)), modalWidth)
		if i == s.selected {
			line = SelectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	footer := FormatFooter("j/k", "Navigate", "Enter", "Jump", "Esc", "Close")
	return RenderThreeSectionModal(title, lines, footer, ModalTypeInfo, modalWidth, width, height)
}

func oneLine(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r == '\n' || r == '\r' || r == '\t' {
			out[i] = ' '
		}
	}
	return string(out)
}
