package session

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"assistui/config"
	"assistui/model"
)

func (w *Wrapper) CreateVectorStore(ctx context.Context, name string) (model.VectorStoreRecord, error) {
	remote, err := w.client()
	if err != nil {
		return model.VectorStoreRecord{}, err
	}

	ctx, span := w.start(ctx, "CreateVectorStore")
	vs, err := remote.CreateVectorStore(ctx, name)
	if err != nil {
		err = w.fail(ctx, "create vector store", err)
	}
	endSpan(span, err)
	return vs, err
}

// DeleteVectorStore deletes the store remotely. Cached assistants that
// reference it keep the stale id until they are listed again.
func (w *Wrapper) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	remote, err := w.client()
	if err != nil {
		return err
	}

	ctx, span := w.start(ctx, "DeleteVectorStore", attribute.String("vector_store.id", vectorStoreID))
	if err := remote.DeleteVectorStore(ctx, vectorStoreID); err != nil {
		err = w.fail(ctx, "delete vector store", err)
		endSpan(span, err)
		return err
	}
	endSpan(span, nil)
	return nil
}

// UploadFilesToVectorStore uploads local files as one batch and blocks
// until the batch is no longer in progress.
func (w *Wrapper) UploadFilesToVectorStore(ctx context.Context, vectorStoreID string, paths []string) (model.FileBatch, error) {
	remote, err := w.client()
	if err != nil {
		return model.FileBatch{}, err
	}

	expanded := make([]string, len(paths))
	for i, p := range paths {
		expanded[i] = config.ExpandPath(p)
	}

	ctx, span := w.start(ctx, "UploadFilesToVectorStore",
		attribute.String("vector_store.id", vectorStoreID),
		attribute.Int("files", len(paths)),
	)
	batch, err := remote.UploadFilesToVectorStore(ctx, vectorStoreID, expanded)
	if err != nil {
		err = w.fail(ctx, "upload files", err)
		endSpan(span, err)
		return model.FileBatch{}, err
	}
	span.SetAttributes(attribute.String("batch.status", batch.Status))
	endSpan(span, nil)

	config.Logf("[Session] Batch %s: %s (%s)", batch.ID, batch.Status, batch.FileCounts)
	return batch, nil
}

// DeleteFileFromVectorStore removes a file from one vector store. The file
// itself stays in file storage.
func (w *Wrapper) DeleteFileFromVectorStore(ctx context.Context, vectorStoreID, fileID string) error {
	remote, err := w.client()
	if err != nil {
		return err
	}

	ctx, span := w.start(ctx, "DeleteFileFromVectorStore",
		attribute.String("vector_store.id", vectorStoreID),
		attribute.String("file.id", fileID),
	)
	if err := remote.DeleteVectorStoreFile(ctx, vectorStoreID, fileID); err != nil {
		err = w.fail(ctx, "remove file from vector store", err)
		endSpan(span, err)
		return err
	}
	endSpan(span, nil)
	return nil
}

func (w *Wrapper) DeleteFile(ctx context.Context, fileID string) error {
	remote, err := w.client()
	if err != nil {
		return err
	}

	ctx, span := w.start(ctx, "DeleteFile", attribute.String("file.id", fileID))
	if err := remote.DeleteFile(ctx, fileID); err != nil {
		err = w.fail(ctx, "delete file", err)
		endSpan(span, err)
		return err
	}
	endSpan(span, nil)
	return nil
}

// GetVectorStores resolves every vector store attached to the assistant,
// one request per store. An assistant without file_search resources yields
// an empty list.
func (w *Wrapper) GetVectorStores(ctx context.Context, assistantID string) ([]model.VectorStoreRecord, error) {
	remote, err := w.client()
	if err != nil {
		return nil, err
	}
	if assistantID == "" {
		return nil, ErrNoAssistant
	}

	ctx, span := w.start(ctx, "GetVectorStores", attribute.String("assistant.id", assistantID))
	a, err := remote.GetAssistant(ctx, assistantID)
	if err != nil {
		err = w.fail(ctx, "retrieve assistant", err)
		endSpan(span, err)
		return nil, err
	}

	out := make([]model.VectorStoreRecord, 0, len(a.VectorStoreIDs))
	for _, id := range a.VectorStoreIDs {
		vs, err := remote.GetVectorStore(ctx, id)
		if err != nil {
			err = w.fail(ctx, "retrieve vector store", err)
			endSpan(span, err)
			return nil, err
		}
		out = append(out, vs)
	}
	endSpan(span, nil)
	return out, nil
}

// GetVectorStoreFiles lists the store's file ids and resolves each file.
func (w *Wrapper) GetVectorStoreFiles(ctx context.Context, vectorStoreID string) ([]model.FileRecord, error) {
	remote, err := w.client()
	if err != nil {
		return nil, err
	}

	ctx, span := w.start(ctx, "GetVectorStoreFiles", attribute.String("vector_store.id", vectorStoreID))
	ids, err := remote.ListVectorStoreFileIDs(ctx, vectorStoreID)
	if err != nil {
		err = w.fail(ctx, "list vector store files", err)
		endSpan(span, err)
		return nil, err
	}

	out := make([]model.FileRecord, 0, len(ids))
	for _, id := range ids {
		f, err := remote.GetFile(ctx, id)
		if err != nil {
			err = w.fail(ctx, "retrieve file", err)
			endSpan(span, err)
			return nil, err
		}
		out = append(out, f)
	}
	endSpan(span, nil)
	return out, nil
}
