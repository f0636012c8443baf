package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"assistui/config"
	"assistui/model"
)

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	kb := a.kb

	if key == "ctrl+c" {
		a.closeStream()
		return a, tea.Quit
	}

	if a.showAckModal {
		if key == "enter" || key == "esc" {
			a.showAckModal = false
		}
		return a, nil
	}

	if a.confirm != nil {
		switch key {
		case "y", "Y":
			cmd := a.confirmCmd
			a.confirm = nil
			a.confirmCmd = nil
			return a, cmd
		case "n", "N", "esc":
			a.confirm = nil
			a.confirmCmd = nil
		}
		return a, nil
	}

	if a.busy != "" {
		return a, nil
	}

	if a.form != nil {
		return a.handleFormKey(msg)
	}

	if a.showHelp {
		if key == "esc" || key == kb.GetActionKey("help") || key == kb.GetActionKey("quit") {
			a.showHelp = false
		}
		return a, nil
	}

	if a.showAbout {
		if key == "esc" || key == "enter" || key == kb.GetActionKey("about") {
			a.showAbout = false
		}
		return a, nil
	}

	if a.search != nil {
		return a.handleSearchKey(msg)
	}

	if a.stores != nil {
		return a.handleStoreKey(msg)
	}

	if a.filterMode {
		return a.handleFilterKey(msg)
	}

	switch key {
	case kb.GetActionKey("quit"):
		a.closeStream()
		return a, tea.Quit

	case kb.GetActionKey("help"):
		a.showHelp = true
		return a, nil

	case kb.GetActionKey("about"):
		a.showAbout = true
		return a, nil

	case kb.GetActionKey("api_key"):
		a.form = newAPIKeyForm()
		return a, nil

	case kb.GetActionKey("refresh_assistants"):
		if !a.available {
			a.form = newAPIKeyForm()
			return a, nil
		}
		a.busy = "Loading assistants..."
		return a, refreshAssistantsCmd(a.wrapper)

	case kb.GetActionKey("new_assistant"):
		if !a.available {
			a.form = newAPIKeyForm()
			return a, nil
		}
		a.form = newAssistantForm(a.cfg.DefaultModel, a.cfg.DefaultInstructions)
		return a, nil

	case kb.GetActionKey("delete_assistant"):
		rec, ok := a.selectedAssistant()
		if !ok {
			return a, nil
		}
		name := rec.Name
		if name == "" {
			name = rec.ID
		}
		a.askConfirm("Delete Assistant",
			fmt.Sprintf("Delete assistant %s?\n\nIts vector stores and files are kept.", name),
			deleteAssistantCmd(a.wrapper, rec.ID))
		return a, nil

	case kb.GetActionKey("vector_stores"):
		if !a.available {
			a.form = newAPIKeyForm()
			return a, nil
		}
		rec, ok := a.selectedAssistant()
		if a.focus != focusAssistants || !ok {
			rec, ok = a.findAssistant(a.sc.AssistantID)
		}
		if !ok {
			a.showInfo("No Assistant Selected", "Select an assistant to manage its vector stores.")
			return a, nil
		}
		return a, a.openStoreManager(rec)

	case kb.GetActionKey("search_messages"):
		a.form = newSearchForm()
		return a, nil

	case kb.GetActionKey("export_conversation"):
		a.form = newExportForm(defaultExportPath())
		return a, nil

	case kb.GetActionKey("clear_conversation"):
		a.askConfirm("Clear Conversation",
			"Delete every stored message from the local log?\n\nRemote threads are not affected.",
			clearConversationCmd(a.wrapper))
		return a, nil

	case kb.GetActionKey("run_instructions"):
		a.form = newRunInstructionsForm(a.runInstructions)
		return a, nil

	case kb.GetActionKey("attach_file"):
		a.form = newAttachFileForm(a.attachPath)
		return a, nil

	case kb.GetActionKey("yank_last_response"):
		if reply, ok := a.lastAssistantReply(); ok {
			if err := clipboard.WriteAll(reply); err != nil {
				a.showError("Clipboard Error", err)
				return a, nil
			}
			a.status = "Copied last response"
		}
		return a, nil

	case kb.GetActionKey("cancel_stream"):
		if a.streaming {
			a.cancelStream()
			return a, nil
		}

	case kb.GetActionKey("focus_next"):
		if a.focus == focusPrompt {
			a.setFocus(focusAssistants)
		} else {
			a.setFocus(focusPrompt)
		}
		return a, nil

	case kb.GetActionKey("scroll_down"), kb.GetActionKey("scroll_down_arrow"):
		if key == kb.GetActionKey("scroll_down") || a.focus == focusPrompt {
			a.viewport.ScrollDown(1)
			return a, nil
		}

	case kb.GetActionKey("scroll_up"), kb.GetActionKey("scroll_up_arrow"):
		if key == kb.GetActionKey("scroll_up") || a.focus == focusPrompt {
			a.viewport.ScrollUp(1)
			return a, nil
		}

	case kb.GetActionKey("half_page_down"):
		a.viewport.HalfPageDown()
		return a, nil

	case kb.GetActionKey("half_page_up"):
		a.viewport.HalfPageUp()
		return a, nil

	case kb.GetActionKey("page_down"):
		a.viewport.PageDown()
		return a, nil

	case kb.GetActionKey("page_up"):
		a.viewport.PageUp()
		return a, nil

	case kb.GetActionKey("scroll_to_top"):
		a.viewport.GotoTop()
		return a, nil

	case kb.GetActionKey("scroll_to_bottom"):
		a.viewport.GotoBottom()
		return a, nil
	}

	if a.focus == focusAssistants {
		switch key {
		case "enter":
			rec, ok := a.selectedAssistant()
			if !ok {
				return a, nil
			}
			if !a.available {
				a.form = newAPIKeyForm()
				return a, nil
			}
			if a.streaming {
				a.showInfo("Response In Progress", "Wait for the current response or cancel it first.")
				return a, nil
			}
			a.busy = "Starting a new thread..."
			return a, selectAssistantCmd(a.wrapper, rec.ID)
		case kb.GetActionKey("filter_assistants"):
			a.filterMode = true
			a.layout()
			return a, a.filterInput.Focus()
		}
		var cmd tea.Cmd
		a.assistantTable, cmd = a.assistantTable.Update(msg)
		return a, cmd
	}

	switch key {
	case "enter":
		return a.submitPrompt()
	case kb.GetActionKey("clear_input"):
		a.textarea.Reset()
		return a, nil
	}
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.filterInput.SetValue("")
		a.filterInput.Blur()
		a.filterMode = false
		a.applyFilter()
		a.layout()
		return a, nil
	case "enter":
		a.filterInput.Blur()
		a.filterMode = false
		a.layout()
		return a, nil
	case "up", "down":
		var cmd tea.Cmd
		a.assistantTable, cmd = a.assistantTable.Update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.filterInput, cmd = a.filterInput.Update(msg)
	a.applyFilter()
	return a, cmd
}

func (a AppView) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.search = nil
	case "j", "down":
		a.search.move(1)
	case "k", "up":
		a.search.move(-1)
	case "enter":
		m, ok := a.search.current()
		a.search = nil
		if !ok {
			return a, nil
		}
		idx := findMessage(a.messages, m.Role, m.Content)
		if idx >= 0 && idx < len(a.messageOffsets) {
			a.viewport.SetYOffset(a.messageOffsets[idx])
		}
	}
	return a, nil
}

func (a AppView) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := a.form
	switch msg.String() {
	case "esc":
		a.form = nil
		return a, nil
	case "tab", "down":
		f.move(1)
		return a, nil
	case "shift+tab", "up":
		f.move(-1)
		return a, nil
	case a.kb.GetActionKey("clear_input"):
		f.clearFocused()
		return a, nil
	case "enter":
		return a.submitForm()
	}
	return a, f.update(msg)
}

// submitForm acts on the open form. The form stays open with an error
// message when its input is rejected.
func (a AppView) submitForm() (tea.Model, tea.Cmd) {
	f := a.form
	f.err = ""

	switch f.kind {
	case formAPIKey:
		key := f.value(0)
		if key == "" {
			f.err = "API key cannot be empty"
			return a, nil
		}
		a.form = nil
		a.busy = "Checking API key..."
		return a, configureCredentialsCmd(a.wrapper, key)

	case formNewAssistant:
		spec, err := assistantSpecFromForm(f)
		if err != nil {
			f.err = err.Error()
			return a, nil
		}
		a.form = nil
		a.busy = "Creating assistant..."
		return a, createAssistantCmd(a.wrapper, spec)

	case formNewVectorStore:
		name := f.value(0)
		if name == "" {
			f.err = "Name cannot be empty"
			return a, nil
		}
		a.form = nil
		a.busy = "Creating vector store..."
		return a, createVectorStoreCmd(a.wrapper, name)

	case formUploadFiles:
		paths := parseList(f.value(0))
		if len(paths) == 0 {
			f.err = "Enter at least one file path"
			return a, nil
		}
		for _, p := range paths {
			if !config.FileExists(config.ExpandPath(p)) {
				f.err = "File not found: " + p
				return a, nil
			}
		}
		a.form = nil
		a.busy = fmt.Sprintf("Uploading %d file(s)...", len(paths))
		return a, uploadFilesCmd(a.wrapper, f.target, paths)

	case formAttachStores:
		if a.stores == nil {
			a.form = nil
			return a, nil
		}
		ids := parseList(f.value(0))
		a.form = nil
		a.busy = "Updating assistant..."
		return a, attachStoresCmd(a.wrapper, a.stores.assistant.ID, ids)

	case formExport:
		path := f.value(0)
		if path == "" {
			f.err = "Path cannot be empty"
			return a, nil
		}
		a.form = nil
		a.busy = "Exporting conversation..."
		return a, exportConversationCmd(a.wrapper, path)

	case formRunInstructions:
		a.runInstructions = f.value(0)
		a.form = nil
		if a.runInstructions == "" {
			a.status = "Run instructions cleared"
		} else {
			a.status = "Run instructions set"
		}
		return a, nil

	case formAttachFile:
		path := f.value(0)
		if path != "" && !config.FileExists(config.ExpandPath(path)) {
			f.err = "File not found: " + path
			return a, nil
		}
		a.attachPath = path
		a.form = nil
		return a, nil

	case formSearch:
		query := f.value(0)
		if query == "" {
			f.err = "Query cannot be empty"
			return a, nil
		}
		a.form = nil
		return a, searchConversationCmd(a.wrapper, query)
	}

	a.form = nil
	return a, nil
}

// lastUserMessage is used to restore the prompt after a rejected send.
func (a AppView) lastUserMessage() (string, bool) {
	for i := len(a.messages) - 1; i >= 0; i-- {
		if a.messages[i].Role == string(model.RoleUser) {
			return a.messages[i].Content, true
		}
	}
	return "", false
}
