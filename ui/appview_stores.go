package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"assistui/model"
)

// openStoreManager shows the vector stores of the given assistant.
func (a *AppView) openStoreManager(rec model.AssistantRecord) tea.Cmd {
	a.stores = newStoreManager(rec, a.width, a.height)
	return loadVectorStoresCmd(a.wrapper, rec.ID)
}

// reloadStores refreshes whichever view of the store manager is showing.
func (a *AppView) reloadStores() tea.Cmd {
	if a.stores == nil {
		return nil
	}
	a.stores.loading = true
	if a.stores.view == storeFilesView {
		return loadFilesCmd(a.wrapper, a.stores.current.ID)
	}
	return loadVectorStoresCmd(a.wrapper, a.stores.assistant.ID)
}

func (a *AppView) replaceAssistant(rec model.AssistantRecord) {
	list := make([]model.AssistantRecord, len(a.assistants))
	copy(list, a.assistants)
	for i := range list {
		if list[i].ID == rec.ID {
			list[i] = rec
		}
	}
	a.setAssistants(list)
}

func (a AppView) handleStoreMessage(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case vectorStoresLoadedMsg:
		if a.stores == nil || a.stores.assistant.ID != msg.AssistantID {
			return a, nil
		}
		if msg.Err != nil {
			a.stores.loading = false
			a.showError("Failed to Load Vector Stores", msg.Err)
			return a, nil
		}
		a.stores.setStores(msg.Stores)
		return a, nil

	case vectorStoreCreatedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Failed to Create Vector Store", msg.Err)
			return a, nil
		}
		a.status = "Created vector store " + msg.Store.ID
		if a.stores == nil {
			return a, nil
		}
		ids := append(a.stores.storeIDs(), msg.Store.ID)
		a.busy = "Attaching vector store..."
		return a, attachStoresCmd(a.wrapper, a.stores.assistant.ID, ids)

	case vectorStoreDeletedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Failed to Delete Vector Store", msg.Err)
			return a, nil
		}
		a.status = "Deleted vector store " + msg.VectorStoreID
		if a.stores == nil {
			return a, nil
		}
		// Detach so the assistant does not keep a dangling reference
		var remaining []string
		for _, id := range a.stores.storeIDs() {
			if id != msg.VectorStoreID {
				remaining = append(remaining, id)
			}
		}
		a.busy = "Updating assistant..."
		return a, attachStoresCmd(a.wrapper, a.stores.assistant.ID, remaining)

	case storesAttachedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Failed to Update Assistant", msg.Err)
			return a, nil
		}
		a.replaceAssistant(msg.Assistant)
		if a.stores == nil {
			return a, nil
		}
		a.stores.assistant = msg.Assistant
		a.stores.view = storeListView
		return a, a.reloadStores()

	case filesLoadedMsg:
		if a.stores == nil || a.stores.current.ID != msg.VectorStoreID {
			return a, nil
		}
		if msg.Err != nil {
			a.stores.loading = false
			a.showError("Failed to Load Files", msg.Err)
			return a, nil
		}
		a.stores.setFiles(msg.Files)
		return a, nil

	case batchUploadedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Upload Failed", msg.Err)
			return a, nil
		}
		counts := msg.Batch.FileCounts
		text := fmt.Sprintf("Batch %s finished with status %s.\n\n%d completed, %d failed, %d cancelled of %d files.",
			msg.Batch.ID, msg.Batch.Status, counts.Completed, counts.Failed, counts.Cancelled, counts.Total)
		if msg.Batch.Status == model.BatchCompleted && counts.Failed == 0 {
			a.showInfo("Upload Complete", text)
		} else {
			a.showAckModal = true
			a.ackTitle = "Upload Finished With Problems"
			a.ackMessage = text
			a.ackType = ModalTypeWarning
		}
		return a, a.reloadStores()

	case fileRemovedMsg:
		a.busy = ""
		if msg.Err != nil {
			a.showError("Failed to Remove File", msg.Err)
			return a, nil
		}
		if msg.Global {
			a.status = "Deleted file " + msg.FileID
		} else {
			a.status = "Removed file " + msg.FileID + " from " + msg.VectorStoreID
		}
		return a, a.reloadStores()
	}
	return a, nil
}

func (a AppView) handleStoreKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := a.stores
	kb := a.kb
	key := msg.String()

	if key == "esc" {
		if s.view == storeFilesView {
			s.view = storeListView
			s.setStores(s.stores)
			return a, nil
		}
		a.stores = nil
		return a, nil
	}
	if key == kb.GetActionKey("close_stores") {
		a.stores = nil
		return a, nil
	}
	if s.loading {
		return a, nil
	}

	if s.view == storeFilesView {
		switch key {
		case kb.GetActionKey("store_upload"):
			a.form = newUploadForm(s.current)
			return a, nil
		case kb.GetActionKey("file_remove"):
			if f, ok := s.selectedFile(); ok {
				a.askConfirm("Remove File",
					fmt.Sprintf("Remove %s from %s?\n\nThe file stays in file storage.", f.Filename, s.current.Name),
					removeFileCmd(a.wrapper, s.current.ID, f.ID, false))
			}
			return a, nil
		case kb.GetActionKey("file_delete"):
			if f, ok := s.selectedFile(); ok {
				a.askConfirm("Delete File",
					fmt.Sprintf("Permanently delete %s?\n\nIt is removed from every vector store.", f.Filename),
					removeFileCmd(a.wrapper, s.current.ID, f.ID, true))
			}
			return a, nil
		}
	} else {
		switch key {
		case kb.GetActionKey("store_files"):
			if vs, ok := s.selectedStore(); ok {
				s.current = vs
				s.loading = true
				return a, loadFilesCmd(a.wrapper, vs.ID)
			}
			return a, nil
		case kb.GetActionKey("store_new"):
			a.form = newVectorStoreForm()
			return a, nil
		case kb.GetActionKey("store_upload"):
			if vs, ok := s.selectedStore(); ok {
				s.current = vs
				a.form = newUploadForm(vs)
			}
			return a, nil
		case kb.GetActionKey("store_attach"):
			a.form = newAttachStoresForm(s.storeIDs())
			return a, nil
		case kb.GetActionKey("store_delete"):
			if vs, ok := s.selectedStore(); ok {
				name := vs.Name
				if name == "" {
					name = vs.ID
				}
				a.askConfirm("Delete Vector Store",
					fmt.Sprintf("Delete vector store %s?\n\nThis cannot be undone.", name),
					deleteVectorStoreCmd(a.wrapper, vs.ID))
			}
			return a, nil
		}
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return a, cmd
}
