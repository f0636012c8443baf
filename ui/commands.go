package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"assistui/config"
	"assistui/model"
	"assistui/session"
)

// Commands run the wrapper off the UI goroutine and report back as messages.
// Remote calls are bounded by the client's request timeout, so they use a
// background context.

func configureCredentialsCmd(w *session.Wrapper, key string) tea.Cmd {
	return func() tea.Msg {
		ok, err := w.ConfigureCredentials(context.Background(), key)
		return credentialsCheckedMsg{Available: ok, Err: err}
	}
}

func loadCachedAssistantsCmd(w *session.Wrapper) tea.Cmd {
	return func() tea.Msg {
		list, err := w.CachedAssistants()
		return assistantsLoadedMsg{Assistants: list, Cached: true, Err: err}
	}
}

// refreshAssistantsCmd lists with the configured order and limit.
func refreshAssistantsCmd(w *session.Wrapper) tea.Cmd {
	return func() tea.Msg {
		list, err := w.ListAssistants(context.Background(), "", 0)
		return assistantsLoadedMsg{Assistants: list, Err: err}
	}
}

func createAssistantCmd(w *session.Wrapper, spec model.AssistantSpec) tea.Cmd {
	return func() tea.Msg {
		a, sc, err := w.CreateAssistant(context.Background(), spec)
		return assistantCreatedMsg{Assistant: a, Context: sc, Err: err}
	}
}

func deleteAssistantCmd(w *session.Wrapper, assistantID string) tea.Cmd {
	return func() tea.Msg {
		err := w.DeleteAssistant(context.Background(), assistantID)
		return assistantDeletedMsg{AssistantID: assistantID, Err: err}
	}
}

func selectAssistantCmd(w *session.Wrapper, assistantID string) tea.Cmd {
	return func() tea.Msg {
		sc, err := w.SelectAssistant(context.Background(), assistantID)
		return contextSelectedMsg{Context: sc, Err: err}
	}
}

func sendMessageCmd(w *session.Wrapper, sc session.Context, text string, opts session.SendOptions) tea.Cmd {
	return func() tea.Msg {
		s, err := w.SendMessage(context.Background(), sc, text, opts)
		return streamStartedMsg{Stream: s, Err: err}
	}
}

// nextChunkCmd pulls exactly one chunk. The UI re-issues it after every
// streamChunkMsg until the stream reports done.
func nextChunkCmd(s *session.Stream) tea.Cmd {
	return func() tea.Msg {
		if s.Next() {
			return streamChunkMsg{Stream: s, Chunk: s.Chunk()}
		}
		return streamDoneMsg{
			Stream:    s,
			Text:      s.Text(),
			Citations: s.Citations(),
			Err:       s.Err(),
		}
	}
}

func loadVectorStoresCmd(w *session.Wrapper, assistantID string) tea.Cmd {
	return func() tea.Msg {
		stores, err := w.GetVectorStores(context.Background(), assistantID)
		return vectorStoresLoadedMsg{AssistantID: assistantID, Stores: stores, Err: err}
	}
}

func createVectorStoreCmd(w *session.Wrapper, name string) tea.Cmd {
	return func() tea.Msg {
		vs, err := w.CreateVectorStore(context.Background(), name)
		return vectorStoreCreatedMsg{Store: vs, Err: err}
	}
}

func deleteVectorStoreCmd(w *session.Wrapper, vectorStoreID string) tea.Cmd {
	return func() tea.Msg {
		err := w.DeleteVectorStore(context.Background(), vectorStoreID)
		return vectorStoreDeletedMsg{VectorStoreID: vectorStoreID, Err: err}
	}
}

func attachStoresCmd(w *session.Wrapper, assistantID string, vectorStoreIDs []string) tea.Cmd {
	return func() tea.Msg {
		a, err := w.UpdateAssistantVectorStores(context.Background(), assistantID, vectorStoreIDs)
		return storesAttachedMsg{Assistant: a, Err: err}
	}
}

func loadFilesCmd(w *session.Wrapper, vectorStoreID string) tea.Cmd {
	return func() tea.Msg {
		files, err := w.GetVectorStoreFiles(context.Background(), vectorStoreID)
		return filesLoadedMsg{VectorStoreID: vectorStoreID, Files: files, Err: err}
	}
}

func uploadFilesCmd(w *session.Wrapper, vectorStoreID string, paths []string) tea.Cmd {
	return func() tea.Msg {
		batch, err := w.UploadFilesToVectorStore(context.Background(), vectorStoreID, paths)
		return batchUploadedMsg{Batch: batch, Err: err}
	}
}

// removeFileCmd detaches a file from a store, or deletes it from file
// storage entirely when global is set.
func removeFileCmd(w *session.Wrapper, vectorStoreID, fileID string, global bool) tea.Cmd {
	return func() tea.Msg {
		var err error
		if global {
			err = w.DeleteFile(context.Background(), fileID)
		} else {
			err = w.DeleteFileFromVectorStore(context.Background(), vectorStoreID, fileID)
		}
		return fileRemovedMsg{VectorStoreID: vectorStoreID, FileID: fileID, Global: global, Err: err}
	}
}

func loadConversationCmd(w *session.Wrapper) tea.Cmd {
	return func() tea.Msg {
		turns, err := w.Conversations()
		return conversationLoadedMsg{Turns: turns, Err: err}
	}
}

func clearConversationCmd(w *session.Wrapper) tea.Cmd {
	return func() tea.Msg {
		return conversationClearedMsg{Err: w.ClearConversation()}
	}
}

func exportConversationCmd(w *session.Wrapper, path string) tea.Cmd {
	return func() tea.Msg {
		path = config.ExpandPath(path)
		return conversationExportedMsg{Path: path, Err: w.ExportConversations(path)}
	}
}

func searchConversationCmd(w *session.Wrapper, query string) tea.Cmd {
	return func() tea.Msg {
		matches, err := w.SearchConversations(query)
		return searchResultsMsg{Query: query, Matches: matches, Err: err}
	}
}
