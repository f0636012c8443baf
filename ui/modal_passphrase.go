package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// PassphraseModal prompts for the SSH key passphrase before the main UI
// starts, when credentials are stored encrypted.
type PassphraseModal struct {
	keyPath   string
	input     textinput.Model
	err       string
	width     int
	height    int
	cancelled bool
}

func NewPassphraseModal(keyPath, errMsg string) PassphraseModal {
	input := NewPassphraseInput("Enter passphrase")
	input.Focus()

	return PassphraseModal{
		keyPath: keyPath,
		input:   input,
		err:     errMsg,
	}
}

// NewPassphraseInput creates a masked textinput for secrets.
func NewPassphraseInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = 50
	input.CharLimit = 200
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return input
}

func (m PassphraseModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m PassphraseModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				m.err = "Passphrase cannot be empty"
				return m, nil
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PassphraseModal) View() string {
	if m.width < 20 || m.height < 10 {
		return "Terminal too small"
	}

	modalWidth := modalWidthFor(70, m.width)
	lines := []string{
		centerTextLine("The SSH key is encrypted with a passphrase.", modalWidth),
		centerTextLine(fmt.Sprintf("Key: %s", truncate(m.keyPath, modalWidth-10)), modalWidth),
		strings.Repeat(" ", modalWidth),
		centerTextLine(m.input.View(), modalWidth),
	}
	if m.err != "" {
		lines = append(lines, strings.Repeat(" ", modalWidth), centerTextLine(ErrorStyle.Render("⚠ "+m.err), modalWidth))
	}

	return RenderThreeSectionModal("SSH Key Passphrase Required", lines,
		FormatFooter("Enter", "Continue", "Esc", "Cancel"), ModalTypeWarning, modalWidth, m.width, m.height)
}

// Passphrase returns the entered passphrase (empty if cancelled)
func (m PassphraseModal) Passphrase() string {
	if m.cancelled {
		return ""
	}
	return m.input.Value()
}

func (m PassphraseModal) Cancelled() bool {
	return m.cancelled
}
