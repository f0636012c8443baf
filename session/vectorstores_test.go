package session

import (
	"context"
	"errors"
	"testing"

	"assistui/model"
)

func TestGetVectorStores(t *testing.T) {
	w, mock, _ := newTestWrapper(t, Options{})
	ctx := context.Background()

	mock.AddVectorStore(model.VectorStoreRecord{ID: "vs_1", Name: "docs"},
		model.FileRecord{ID: "file_1"}, model.FileRecord{ID: "file_2"})
	mock.AddVectorStore(model.VectorStoreRecord{ID: "vs_2", Name: "notes"})
	mock.AddAssistant(model.AssistantRecord{ID: "asst_plain", Model: "gpt-4o"})
	mock.AddAssistant(model.AssistantRecord{
		ID:             "asst_search",
		Model:          "gpt-4o",
		Tools:          []string{model.ToolFileSearch},
		VectorStoreIDs: []string{"vs_1", "vs_2"},
	})

	t.Run("no file search", func(t *testing.T) {
		stores, err := w.GetVectorStores(ctx, "asst_plain")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stores == nil || len(stores) != 0 {
			t.Errorf("stores = %#v, want empty non-nil list", stores)
		}
	})

	t.Run("resolves each store", func(t *testing.T) {
		stores, err := w.GetVectorStores(ctx, "asst_search")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stores) != 2 || stores[0].Name != "docs" || stores[1].Name != "notes" {
			t.Fatalf("stores = %+v", stores)
		}
		if stores[0].FileCounts.Total != 2 {
			t.Errorf("file counts = %+v", stores[0].FileCounts)
		}
	})

	t.Run("no assistant", func(t *testing.T) {
		if _, err := w.GetVectorStores(ctx, ""); !errors.Is(err, ErrNoAssistant) {
			t.Errorf("error = %v, want ErrNoAssistant", err)
		}
	})

	t.Run("missing store", func(t *testing.T) {
		mock.AddAssistant(model.AssistantRecord{ID: "asst_stale", VectorStoreIDs: []string{"vs_gone"}})
		var remoteErr *RemoteError
		if _, err := w.GetVectorStores(ctx, "asst_stale"); !errors.As(err, &remoteErr) {
			t.Errorf("error = %v, want RemoteError", err)
		}
	})
}

func TestVectorStoreFileLifecycle(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})
	ctx := context.Background()

	vs, err := w.CreateVectorStore(ctx, "Financial Statements")
	if err != nil {
		t.Fatalf("CreateVectorStore: %v", err)
	}

	batch, err := w.UploadFilesToVectorStore(ctx, vs.ID, []string{"goog-10k.pdf", "brka-10k.txt"})
	if err != nil {
		t.Fatalf("UploadFilesToVectorStore: %v", err)
	}
	if !batch.Terminal() || batch.FileCounts.Completed != 2 {
		t.Errorf("batch = %+v", batch)
	}

	files, err := w.GetVectorStoreFiles(ctx, vs.ID)
	if err != nil {
		t.Fatalf("GetVectorStoreFiles: %v", err)
	}
	if len(files) != 2 || files[0].Filename != "goog-10k.pdf" {
		t.Fatalf("files = %+v", files)
	}

	if err := w.DeleteFileFromVectorStore(ctx, vs.ID, files[0].ID); err != nil {
		t.Fatalf("DeleteFileFromVectorStore: %v", err)
	}
	files, err = w.GetVectorStoreFiles(ctx, vs.ID)
	if err != nil || len(files) != 1 {
		t.Fatalf("after scoped delete: %+v, %v", files, err)
	}

	// The scoped delete leaves the file in global storage.
	if err := w.DeleteFile(ctx, files[0].ID); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	var remoteErr *RemoteError
	if err := w.DeleteFile(ctx, files[0].ID); !errors.As(err, &remoteErr) {
		t.Errorf("second DeleteFile error = %v, want RemoteError", err)
	}

	if err := w.DeleteVectorStore(ctx, vs.ID); err != nil {
		t.Fatalf("DeleteVectorStore: %v", err)
	}
	if _, err := w.GetVectorStoreFiles(ctx, vs.ID); err == nil {
		t.Error("expected error listing a deleted vector store")
	}
}

func TestDeletedVectorStoreStaysInCache(t *testing.T) {
	w, mock, store := newTestWrapper(t, Options{})
	ctx := context.Background()

	mock.AddVectorStore(model.VectorStoreRecord{ID: "vs_1"})
	mock.AddAssistant(model.AssistantRecord{ID: "asst_1", Model: "gpt-4o", VectorStoreIDs: []string{"vs_1"}})
	if _, err := w.ListAssistants(ctx, "", 0); err != nil {
		t.Fatalf("ListAssistants: %v", err)
	}

	if err := w.DeleteVectorStore(ctx, "vs_1"); err != nil {
		t.Fatalf("DeleteVectorStore: %v", err)
	}

	cached, err := store.CachedAssistants()
	if err != nil {
		t.Fatalf("CachedAssistants: %v", err)
	}
	if len(cached) != 1 || len(cached[0].VectorStoreIDs) != 1 || cached[0].VectorStoreIDs[0] != "vs_1" {
		t.Errorf("cached = %+v, want stale vs_1 reference", cached)
	}
}
