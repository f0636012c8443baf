package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"assistui/config"
	"assistui/model"
	"assistui/session"
	"assistui/storage"
)

type focusPane int

const (
	focusPrompt focusPane = iota
	focusAssistants
)

// assistantTableHeight includes the two header lines.
const assistantTableHeight = 8

type AppView struct {
	wrapper *session.Wrapper
	cfg     *config.Config
	kb      *config.KeyBindingsConfig
	version string
	license string

	// UI Components
	viewport       viewport.Model
	textarea       textarea.Model
	assistantTable table.Model
	filterInput    textinput.Model
	spinner        spinner.Model

	// Window state
	width  int
	height int
	ready  bool
	focus  focusPane

	available  bool
	assistants []model.AssistantRecord
	visible    []model.AssistantRecord
	filterMode bool

	// Explicit session context; zero until an assistant is selected
	sc          session.Context
	currentName string

	messages       []chatMessage
	messageOffsets []int
	stream         *session.Stream
	streaming      bool
	currentResp    *strings.Builder
	completed      *model.CompletedMessage
	toolStatus     string

	runInstructions string
	attachPath      string
	status          string

	// Modals
	showHelp     bool
	showAbout    bool
	form         *formState
	confirm      *ConfirmationState
	confirmCmd   tea.Cmd
	stores       *storeManagerState
	search       *searchState
	busy         string
	ackTitle     string
	ackMessage   string
	ackType      ModalType
	showAckModal bool
}

func NewAppView(cfg *config.Config, wrapper *session.Wrapper, version, license string) AppView {
	kb := cfg.Keybindings
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = fmt.Sprintf("Type your message here (%s for help)...", kb.DisplayActionKey("help"))
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Alt+Enter for newline, Enter alone sends
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	filterInput := textinput.New()
	filterInput.Prompt = "Filter: "
	filterInput.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(successColor)

	a := AppView{
		wrapper:        wrapper,
		cfg:            cfg,
		kb:             kb,
		version:        version,
		license:        license,
		viewport:       viewport.New(0, 0),
		textarea:       ta,
		assistantTable: newTable(assistantColumns(80), nil, assistantTableHeight, false),
		filterInput:    filterInput,
		spinner:        sp,
		currentResp:    &strings.Builder{},
		available:      wrapper.Available(),
	}
	if !a.available {
		a.form = newAPIKeyForm()
	}
	return a
}

func (a AppView) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		a.spinner.Tick,
		loadCachedAssistantsCmd(a.wrapper),
		loadConversationCmd(a.wrapper),
	}
	if a.available {
		cmds = append(cmds, refreshAssistantsCmd(a.wrapper))
	}
	return tea.Batch(cmds...)
}

// layout sizes every component from the window size.
func (a *AppView) layout() {
	a.textarea.SetWidth(a.width)
	a.viewport.Width = a.width

	// title, separator, table, separator, textarea(3), status
	vh := a.height - assistantTableHeight - 7
	if a.filterMode {
		vh--
	}
	if vh < 3 {
		vh = 3
	}
	a.viewport.Height = vh

	a.assistantTable.SetColumns(assistantColumns(a.width))
	a.assistantTable.SetWidth(a.width)
	a.assistantTable.SetHeight(assistantTableHeight)

	if a.form != nil {
		a.form.setWidth(modalWidthFor(70, a.width) - 4)
	}
	if a.stores != nil {
		a.stores.resize(a.width, a.height)
	}
}

// setAssistants replaces the list and reapplies the active filter.
func (a *AppView) setAssistants(list []model.AssistantRecord) {
	a.assistants = list
	a.applyFilter()
}

func (a *AppView) applyFilter() {
	a.visible = filterAssistants(a.assistants, a.filterInput.Value())
	a.assistantTable.SetRows(assistantRows(a.visible))
	if a.assistantTable.Cursor() < 0 && len(a.visible) > 0 {
		a.assistantTable.SetCursor(0)
	}
	if a.assistantTable.Cursor() >= len(a.visible) {
		a.assistantTable.SetCursor(len(a.visible) - 1)
	}
}

func (a AppView) selectedAssistant() (model.AssistantRecord, bool) {
	i := a.assistantTable.Cursor()
	if i < 0 || i >= len(a.visible) {
		return model.AssistantRecord{}, false
	}
	return a.visible[i], true
}

func (a AppView) findAssistant(id string) (model.AssistantRecord, bool) {
	for _, rec := range a.assistants {
		if rec.ID == id {
			return rec, true
		}
	}
	return model.AssistantRecord{}, false
}

func (a *AppView) setFocus(f focusPane) {
	a.focus = f
	if f == focusPrompt {
		a.textarea.Focus()
		a.assistantTable.Blur()
	} else {
		a.textarea.Blur()
		a.assistantTable.Focus()
	}
	a.assistantTable.SetStyles(tableStyles(f == focusAssistants))
}

func (a *AppView) addSystemMessage(format string, args ...any) {
	a.messages = append(a.messages, chatMessage{
		Role:      roleSystem,
		Content:   fmt.Sprintf(format, args...),
		Timestamp: timeNow(),
	})
}

func (a *AppView) showError(title string, err error) {
	a.showAckModal = true
	a.ackTitle = title
	a.ackMessage = err.Error()
	a.ackType = ModalTypeError
	config.Logf("[UI] %s: %v", title, err)
}

func (a *AppView) showInfo(title, message string) {
	a.showAckModal = true
	a.ackTitle = title
	a.ackMessage = message
	a.ackType = ModalTypeInfo
}

func (a *AppView) askConfirm(title, message string, onYes tea.Cmd) {
	a.confirm = &ConfirmationState{Title: title, Message: message}
	a.confirmCmd = onYes
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading assistui..."
	}

	// Modal rendering order, top layer first
	switch {
	case a.showAckModal:
		return RenderAcknowledgeModal(a.ackTitle, a.ackMessage, a.ackType, a.width, a.height)
	case a.confirm != nil:
		return RenderConfirmationModal(*a.confirm, a.width, a.height)
	case a.busy != "":
		return renderSpinner(a.busy, a.spinner.View(), a.width, a.height)
	case a.form != nil:
		return a.form.render(a.width, a.height)
	case a.showHelp:
		return a.renderHelpModal(a.width, a.height)
	case a.showAbout:
		return renderAboutModal(a, a.width, a.height)
	case a.search != nil:
		return a.search.render(a.kb, a.width, a.height)
	case a.stores != nil:
		return a.stores.render(a.kb, a.width, a.height)
	}

	separator := BorderStyle.Render(strings.Repeat("─", a.width))

	sections := []string{
		a.renderTitle(),
		a.assistantTable.View(),
	}
	if a.filterMode {
		sections = append(sections, a.filterInput.View())
	}
	sections = append(sections,
		separator,
		a.viewport.View(),
		separator,
		a.textarea.View(),
		a.renderStatusBar(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a AppView) renderTitle() string {
	title := TitleStyle.Render("assistui")
	if a.sc.IsZero() {
		title += DimStyle.Render("  no assistant selected")
	} else {
		title += "  " + AssistantStyle.Render(a.currentName) + DimStyle.Render("  "+a.sc.Name()+"  "+a.sc.ThreadID)
	}
	if !a.available {
		title += "  " + ErrorStyle.Render("offline: "+a.kb.DisplayActionKey("api_key")+" to set API key")
	}
	return truncateStyled(title, a.width)
}

func (a AppView) renderStatusBar() string {
	var parts []string
	if a.streaming {
		parts = append(parts, a.spinner.View()+" streaming ("+a.kb.DisplayActionKey("cancel_stream")+" to stop)")
	}
	if a.attachPath != "" {
		parts = append(parts, "📎 "+a.attachPath)
	}
	if a.runInstructions != "" {
		parts = append(parts, "+instructions")
	}
	if a.status != "" {
		parts = append(parts, a.status)
	}
	parts = append(parts, FormatFooter(
		a.kb.DisplayActionKey("focus_next"), "Focus",
		a.kb.DisplayActionKey("help"), "Help",
		a.kb.DisplayActionKey("quit"), "Quit",
	))
	return truncateStyled(StatusStyle.Render(strings.Join(parts, "  │  ")), a.width)
}

// truncateStyled cuts styled text to width without splitting escape codes.
func truncateStyled(s string, width int) string {
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// lastAssistantReply returns the newest assistant message, if any.
func (a AppView) lastAssistantReply() (string, bool) {
	for i := len(a.messages) - 1; i >= 0; i-- {
		if a.messages[i].Role == string(model.RoleAssistant) {
			return a.messages[i].Content, true
		}
	}
	return "", false
}

func defaultExportPath() string {
	return storage.GenerateExportPath(config.GetHomeDir())
}
