package model

import "context"

// Remote is the slice of the Assistants API the session layer consumes.
//
// It lives in the model package so that provider implementations and the
// session wrapper can both depend on it without importing each other.
type Remote interface {
	// CheckKey checks that the credential is accepted by the API.
	CheckKey(ctx context.Context) error

	// ListAssistants lists assistants ordered by creation time. order is
	// "asc" or "desc"; limit 0 leaves the page size to the API.
	ListAssistants(ctx context.Context, order string, limit int) ([]AssistantRecord, error)
	CreateAssistant(ctx context.Context, spec AssistantSpec) (AssistantRecord, error)
	GetAssistant(ctx context.Context, assistantID string) (AssistantRecord, error)
	// UpdateAssistantVectorStores replaces the file_search vector store ids
	// and enables the file_search tool if it is missing.
	UpdateAssistantVectorStores(ctx context.Context, assistant AssistantRecord, vectorStoreIDs []string) (AssistantRecord, error)
	DeleteAssistant(ctx context.Context, assistantID string) error

	CreateThread(ctx context.Context) (string, error)
	// PostMessage adds a user message to a thread. attachFileID may be empty.
	PostMessage(ctx context.Context, threadID, text, attachFileID string) error
	// StreamRun starts a run and returns its events. The caller must Close it.
	StreamRun(ctx context.Context, threadID, assistantID, instructions string) (EventStream, error)

	CreateVectorStore(ctx context.Context, name string) (VectorStoreRecord, error)
	GetVectorStore(ctx context.Context, vectorStoreID string) (VectorStoreRecord, error)
	DeleteVectorStore(ctx context.Context, vectorStoreID string) error
	// UploadFilesToVectorStore blocks until the batch reaches a terminal status.
	UploadFilesToVectorStore(ctx context.Context, vectorStoreID string, paths []string) (FileBatch, error)
	ListVectorStoreFileIDs(ctx context.Context, vectorStoreID string) ([]string, error)
	DeleteVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) error

	UploadFile(ctx context.Context, path string) (FileRecord, error)
	GetFile(ctx context.Context, fileID string) (FileRecord, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// EventStream is a forward-only sequence of run events.
type EventStream interface {
	Next() bool
	Current() StreamEvent
	Err() error
	Close() error
}
