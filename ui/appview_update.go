package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"assistui/config"
	"assistui/model"
	"assistui/session"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		a.updateViewportContent(true)
		// Markdown is rendered for the current width
		return a, a.renderAll()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		if a.streaming && a.currentResp.Len() == 0 {
			a.updateViewportContent(true)
		}
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)

	case streamStartedMsg, streamChunkMsg, streamDoneMsg, streamEventMsg:
		return a.handleStreamingMessage(msg)

	case markdownRenderedMsg:
		if msg.MessageIndex < len(a.messages) && a.messages[msg.MessageIndex].Role == string(model.RoleAssistant) {
			a.messages[msg.MessageIndex].Rendered = msg.Rendered
			a.updateViewportContent(!a.streaming && msg.MessageIndex == len(a.messages)-1)
		}
		return a, nil

	case credentialsCheckedMsg:
		return a.handleCredentials(msg)

	case assistantsLoadedMsg:
		a.busy = ""
		if msg.Err != nil {
			if msg.Cached {
				config.Logf("[UI] Failed to load cached assistants: %v", msg.Err)
				return a, nil
			}
			a.showError("Failed to List Assistants", msg.Err)
			return a, nil
		}
		// A live listing always wins over the cache
		if msg.Cached && len(a.assistants) > 0 {
			return a, nil
		}
		a.setAssistants(msg.Assistants)
		if !msg.Cached {
			a.status = fmt.Sprintf("%d assistants", len(msg.Assistants))
		}
		return a, nil

	case assistantCreatedMsg:
		a.busy = ""
		if msg.Assistant.ID != "" {
			a.setAssistants(append([]model.AssistantRecord{msg.Assistant}, a.assistants...))
			a.status = "Created assistant " + msg.Assistant.ID
		}
		if msg.Err != nil {
			a.showError("Failed to Create Assistant", msg.Err)
			return a, nil
		}
		a.onContextSelected(msg.Context)
		return a, nil

	case assistantDeletedMsg:
		if msg.Err != nil {
			a.showError("Failed to Delete Assistant", msg.Err)
			return a, nil
		}
		kept := make([]model.AssistantRecord, 0, len(a.assistants))
		for _, rec := range a.assistants {
			if rec.ID != msg.AssistantID {
				kept = append(kept, rec)
			}
		}
		a.setAssistants(kept)
		if a.sc.AssistantID == msg.AssistantID {
			a.sc = session.Context{}
			a.currentName = ""
		}
		a.status = "Deleted assistant " + msg.AssistantID
		return a, nil

	case contextSelectedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Failed to Select Assistant", msg.Err)
			return a, nil
		}
		a.onContextSelected(msg.Context)
		return a, nil

	case vectorStoresLoadedMsg, vectorStoreCreatedMsg, vectorStoreDeletedMsg,
		storesAttachedMsg, filesLoadedMsg, batchUploadedMsg, fileRemovedMsg:
		return a.handleStoreMessage(msg)

	case conversationLoadedMsg:
		if msg.Err != nil {
			a.showError("Failed to Load Conversation", msg.Err)
			return a, nil
		}
		a.messages = append(turnsToMessages(msg.Turns), a.messages...)
		a.updateViewportContent(true)
		if a.ready {
			return a, a.renderAll()
		}
		return a, nil

	case conversationClearedMsg:
		if msg.Err != nil {
			a.showError("Failed to Clear Conversation", msg.Err)
			return a, nil
		}
		a.messages = nil
		a.status = "Conversation cleared"
		a.updateViewportContent(true)
		return a, nil

	case conversationExportedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Export Failed", msg.Err)
			return a, nil
		}
		a.showInfo("Export Complete", "Conversation exported to:\n"+msg.Path)
		return a, nil

	case searchResultsMsg:
		if msg.Err != nil {
			a.showError("Search Failed", msg.Err)
			return a, nil
		}
		a.search = &searchState{query: msg.Query, matches: msg.Matches}
		return a, nil
	}

	// Cursor blinks and other component messages
	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	cmds = append(cmds, cmd)
	if a.form != nil {
		cmds = append(cmds, a.form.update(msg))
	}
	if a.filterMode {
		a.filterInput, cmd = a.filterInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a AppView) handleCredentials(msg credentialsCheckedMsg) (tea.Model, tea.Cmd) {
	a.busy = ""
	a.available = msg.Available
	if !msg.Available {
		a.form = newAPIKeyForm()
		a.form.err = "The API rejected this key."
		return a, nil
	}
	if msg.Err != nil {
		a.showError("Failed to Save API Key", msg.Err)
	}
	a.status = "API key accepted"
	a.busy = "Loading assistants..."
	return a, refreshAssistantsCmd(a.wrapper)
}

func (a *AppView) onContextSelected(sc session.Context) {
	a.sc = sc
	a.currentName = sc.AssistantID
	if rec, ok := a.findAssistant(sc.AssistantID); ok && rec.Name != "" {
		a.currentName = rec.Name
	}
	a.addSystemMessage("Started %s with %s on thread %s", sc.Name(), a.currentName, sc.ThreadID)
	a.setFocus(focusPrompt)
	a.updateViewportContent(true)
}
