package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"

	"assistui/config"
	"assistui/model"
)

type storeView int

const (
	storeListView storeView = iota
	storeFilesView
)

// storeManagerState backs the vector store modal for one assistant: its
// attached stores, and the files of one store.
type storeManagerState struct {
	assistant model.AssistantRecord
	stores    []model.VectorStoreRecord
	files     []model.FileRecord
	view      storeView
	current   model.VectorStoreRecord
	table     table.Model
	loading   bool
	width     int
	height    int
}

func newStoreManager(assistant model.AssistantRecord, width, height int) *storeManagerState {
	s := &storeManagerState{assistant: assistant, loading: true}
	s.table = newTable(vectorStoreColumns(s.innerWidth(width)), nil, 5, true)
	s.resize(width, height)
	return s
}

func (s *storeManagerState) innerWidth(width int) int {
	return modalWidthFor(width-10, width)
}

func (s *storeManagerState) resize(width, height int) {
	s.width, s.height = width, height
	w := s.innerWidth(width)
	if s.view == storeFilesView {
		s.table.SetColumns(fileColumns(w))
	} else {
		s.table.SetColumns(vectorStoreColumns(w))
	}
	s.table.SetWidth(w)
	h := height - 12
	if h < 5 {
		h = 5
	}
	s.table.SetHeight(h)
}

func (s *storeManagerState) setStores(stores []model.VectorStoreRecord) {
	s.loading = false
	s.stores = stores
	s.view = storeListView
	s.table.SetRows(nil)
	s.table.SetColumns(vectorStoreColumns(s.innerWidth(s.width)))
	s.table.SetRows(vectorStoreRows(stores))
	s.clampCursor(len(stores))
}

func (s *storeManagerState) setFiles(files []model.FileRecord) {
	s.loading = false
	s.files = files
	s.view = storeFilesView
	s.table.SetRows(nil)
	s.table.SetColumns(fileColumns(s.innerWidth(s.width)))
	s.table.SetRows(fileRows(files))
	s.clampCursor(len(files))
}

func (s *storeManagerState) clampCursor(n int) {
	switch {
	case n == 0:
		s.table.SetCursor(0)
	case s.table.Cursor() < 0:
		s.table.SetCursor(0)
	case s.table.Cursor() >= n:
		s.table.SetCursor(n - 1)
	}
}

func (s *storeManagerState) selectedStore() (model.VectorStoreRecord, bool) {
	i := s.table.Cursor()
	if s.view != storeListView || i < 0 || i >= len(s.stores) {
		return model.VectorStoreRecord{}, false
	}
	return s.stores[i], true
}

func (s *storeManagerState) selectedFile() (model.FileRecord, bool) {
	i := s.table.Cursor()
	if s.view != storeFilesView || i < 0 || i >= len(s.files) {
		return model.FileRecord{}, false
	}
	return s.files[i], true
}

// storeIDs returns the ids currently attached to the assistant.
func (s *storeManagerState) storeIDs() []string {
	ids := make([]string, 0, len(s.stores))
	for _, vs := range s.stores {
		ids = append(ids, vs.ID)
	}
	return ids
}

func (s *storeManagerState) render(kb *config.KeyBindingsConfig, width, height int) string {
	modalWidth := s.innerWidth(width)

	var (
		title  string
		footer string
		body   string
	)
	name := s.assistant.Name
	if name == "" {
		name = s.assistant.ID
	}

	if s.view == storeFilesView {
		title = fmt.Sprintf("Files in %s", s.current.Name)
		footer = FormatFooter(
			kb.DisplayActionKey("store_upload"), "Upload",
			kb.DisplayActionKey("file_remove"), "Remove from store",
			kb.DisplayActionKey("file_delete"), "Delete file",
			"Esc", "Back",
		)
		body = "No files in this vector store."
		if len(s.files) > 0 {
			body = s.table.View()
		}
	} else {
		title = fmt.Sprintf("Vector Stores of %s", name)
		footer = FormatFooter(
			kb.DisplayActionKey("store_files"), "Files",
			kb.DisplayActionKey("store_new"), "New",
			kb.DisplayActionKey("store_upload"), "Upload",
			kb.DisplayActionKey("store_attach"), "Attach",
			kb.DisplayActionKey("store_delete"), "Delete",
			"Esc", "Close",
		)
		body = "No vector stores attached. Create one or attach existing ids."
		if len(s.stores) > 0 {
			body = s.table.View()
		}
	}
	if s.loading {
		body = "Loading..."
	}

	lines := strings.Split(body, "\n")
	return RenderThreeSectionModal(title, lines, footer, ModalTypeInfo, modalWidth, width, height)
}
