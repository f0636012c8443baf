package ui

import (
	"assistui/model"
	"assistui/session"
	"assistui/storage"
)

// Credentials

type credentialsCheckedMsg struct {
	Available bool
	Err       error
}

// Assistants

type assistantsLoadedMsg struct {
	Assistants []model.AssistantRecord
	Cached     bool
	Err        error
}

type assistantCreatedMsg struct {
	Assistant model.AssistantRecord
	Context   session.Context
	Err       error
}

type assistantDeletedMsg struct {
	AssistantID string
	Err         error
}

type contextSelectedMsg struct {
	Context session.Context
	Err     error
}

// Streaming

type streamStartedMsg struct {
	Stream *session.Stream
	Err    error
}

type streamChunkMsg struct {
	Stream *session.Stream
	Chunk  string
}

type streamDoneMsg struct {
	Stream    *session.Stream
	Text      string
	Citations []model.Citation
	Err       error
}

// streamEventMsg carries non-text run events forwarded by EventRelay.
type streamEventMsg struct {
	Event model.StreamEvent
}

type markdownRenderedMsg struct {
	MessageIndex int
	Rendered     string
}

// Vector stores

type vectorStoresLoadedMsg struct {
	AssistantID string
	Stores      []model.VectorStoreRecord
	Err         error
}

type vectorStoreCreatedMsg struct {
	Store model.VectorStoreRecord
	Err   error
}

type vectorStoreDeletedMsg struct {
	VectorStoreID string
	Err           error
}

type storesAttachedMsg struct {
	Assistant model.AssistantRecord
	Err       error
}

type filesLoadedMsg struct {
	VectorStoreID string
	Files         []model.FileRecord
	Err           error
}

type batchUploadedMsg struct {
	Batch model.FileBatch
	Err   error
}

type fileRemovedMsg struct {
	VectorStoreID string
	FileID        string
	Global        bool
	Err           error
}

// Conversation log

type conversationLoadedMsg struct {
	Turns []model.ConversationTurn
	Err   error
}

type conversationClearedMsg struct {
	Err error
}

type conversationExportedMsg struct {
	Path string
	Err  error
}

type searchResultsMsg struct {
	Query   string
	Matches []storage.TurnMatch
	Err     error
}
