package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"assistui/model"
)

// MockRemote implements model.Remote for testing. Every method delegates to
// its Func field; NewMockRemote fills them with in-memory defaults.
type MockRemote struct {
	CheckKeyFunc                       func(ctx context.Context) error
	ListAssistantsFunc              func(ctx context.Context, order string, limit int) ([]model.AssistantRecord, error)
	CreateAssistantFunc             func(ctx context.Context, spec model.AssistantSpec) (model.AssistantRecord, error)
	GetAssistantFunc                func(ctx context.Context, assistantID string) (model.AssistantRecord, error)
	UpdateAssistantVectorStoresFunc func(ctx context.Context, a model.AssistantRecord, ids []string) (model.AssistantRecord, error)
	DeleteAssistantFunc             func(ctx context.Context, assistantID string) error
	CreateThreadFunc                func(ctx context.Context) (string, error)
	PostMessageFunc                 func(ctx context.Context, threadID, text, attachFileID string) error
	StreamRunFunc                   func(ctx context.Context, threadID, assistantID, instructions string) (model.EventStream, error)
	CreateVectorStoreFunc           func(ctx context.Context, name string) (model.VectorStoreRecord, error)
	GetVectorStoreFunc              func(ctx context.Context, id string) (model.VectorStoreRecord, error)
	DeleteVectorStoreFunc           func(ctx context.Context, id string) error
	UploadFilesToVectorStoreFunc    func(ctx context.Context, id string, paths []string) (model.FileBatch, error)
	ListVectorStoreFileIDsFunc      func(ctx context.Context, id string) ([]string, error)
	DeleteVectorStoreFileFunc       func(ctx context.Context, vsID, fileID string) error
	UploadFileFunc                  func(ctx context.Context, path string) (model.FileRecord, error)
	GetFileFunc                     func(ctx context.Context, fileID string) (model.FileRecord, error)
	DeleteFileFunc                  func(ctx context.Context, fileID string) error

	mu           sync.Mutex
	assistants   map[string]model.AssistantRecord
	vectorStores map[string]model.VectorStoreRecord
	files        map[string]model.FileRecord
	vsFiles      map[string][]string
	seq          atomic.Int64

	// Posted records every PostMessage call in order.
	Posted []PostedMessage
	// Chunks is what the default StreamRun emits as text deltas.
	Chunks []string
}

type PostedMessage struct {
	ThreadID     string
	Text         string
	AttachFileID string
}

var _ model.Remote = (*MockRemote)(nil)

func NewMockRemote() *MockRemote {
	m := &MockRemote{
		assistants:   make(map[string]model.AssistantRecord),
		vectorStores: make(map[string]model.VectorStoreRecord),
		files:        make(map[string]model.FileRecord),
		vsFiles:      make(map[string][]string),
		Chunks:       []string{"Mock ", "response"},
	}

	m.CheckKeyFunc = func(ctx context.Context) error { return nil }
	m.ListAssistantsFunc = m.defaultListAssistants
	m.CreateAssistantFunc = m.defaultCreateAssistant
	m.GetAssistantFunc = m.defaultGetAssistant
	m.UpdateAssistantVectorStoresFunc = m.defaultUpdateAssistantVectorStores
	m.DeleteAssistantFunc = m.defaultDeleteAssistant
	m.CreateThreadFunc = func(ctx context.Context) (string, error) { return m.nextID("thread"), nil }
	m.PostMessageFunc = m.defaultPostMessage
	m.StreamRunFunc = func(ctx context.Context, threadID, assistantID, instructions string) (model.EventStream, error) {
		return TextStream(m.Chunks...), nil
	}
	m.CreateVectorStoreFunc = m.defaultCreateVectorStore
	m.GetVectorStoreFunc = m.defaultGetVectorStore
	m.DeleteVectorStoreFunc = m.defaultDeleteVectorStore
	m.UploadFilesToVectorStoreFunc = m.defaultUploadFilesToVectorStore
	m.ListVectorStoreFileIDsFunc = m.defaultListVectorStoreFileIDs
	m.DeleteVectorStoreFileFunc = m.defaultDeleteVectorStoreFile
	m.UploadFileFunc = m.defaultUploadFile
	m.GetFileFunc = m.defaultGetFile
	m.DeleteFileFunc = m.defaultDeleteFile
	return m
}

func (m *MockRemote) nextID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, m.seq.Add(1))
}

// AddAssistant seeds an assistant, as if it already existed remotely.
func (m *MockRemote) AddAssistant(a model.AssistantRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assistants[a.ID] = a
}

// AddVectorStore seeds a vector store with file records.
func (m *MockRemote) AddVectorStore(vs model.VectorStoreRecord, files ...model.FileRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectorStores[vs.ID] = vs
	for _, f := range files {
		m.files[f.ID] = f
		m.vsFiles[vs.ID] = append(m.vsFiles[vs.ID], f.ID)
	}
}

func (m *MockRemote) defaultListAssistants(ctx context.Context, order string, limit int) ([]model.AssistantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.AssistantRecord, 0, len(m.assistants))
	for _, a := range m.assistants {
		out = append(out, a)
	}
	SortAssistants(out, order)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockRemote) defaultCreateAssistant(ctx context.Context, spec model.AssistantSpec) (model.AssistantRecord, error) {
	id := m.nextID("asst")
	a := model.AssistantRecord{
		ID:             id,
		Name:           spec.Name,
		Instructions:   spec.Instructions,
		Tools:          spec.Tools,
		Model:          spec.Model,
		VectorStoreIDs: spec.VectorStoreIDs,
		CreatedAt:      FixedTime.Add(time.Duration(m.seq.Load()) * time.Minute),
	}
	m.AddAssistant(a)
	return a, nil
}

func (m *MockRemote) defaultGetAssistant(ctx context.Context, id string) (model.AssistantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assistants[id]
	if !ok {
		return model.AssistantRecord{}, fmt.Errorf("assistant %s not found", id)
	}
	return a, nil
}

func (m *MockRemote) defaultUpdateAssistantVectorStores(ctx context.Context, a model.AssistantRecord, ids []string) (model.AssistantRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.assistants[a.ID]
	if !ok {
		return model.AssistantRecord{}, fmt.Errorf("assistant %s not found", a.ID)
	}
	if !cur.HasTool(model.ToolFileSearch) {
		cur.Tools = append(append([]string{}, cur.Tools...), model.ToolFileSearch)
	}
	cur.VectorStoreIDs = append([]string{}, ids...)
	m.assistants[a.ID] = cur
	return cur, nil
}

func (m *MockRemote) defaultDeleteAssistant(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assistants[id]; !ok {
		return fmt.Errorf("assistant %s not found", id)
	}
	delete(m.assistants, id)
	return nil
}

func (m *MockRemote) defaultPostMessage(ctx context.Context, threadID, text, attachFileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posted = append(m.Posted, PostedMessage{ThreadID: threadID, Text: text, AttachFileID: attachFileID})
	return nil
}

func (m *MockRemote) defaultCreateVectorStore(ctx context.Context, name string) (model.VectorStoreRecord, error) {
	vs := model.VectorStoreRecord{ID: m.nextID("vs"), Name: name, Status: "completed", CreatedAt: FixedTime}
	m.AddVectorStore(vs)
	return vs, nil
}

func (m *MockRemote) defaultGetVectorStore(ctx context.Context, id string) (model.VectorStoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.vectorStores[id]
	if !ok {
		return model.VectorStoreRecord{}, fmt.Errorf("vector store %s not found", id)
	}
	vs.FileCounts.Total = int64(len(m.vsFiles[id]))
	vs.FileCounts.Completed = vs.FileCounts.Total
	return vs, nil
}

func (m *MockRemote) defaultDeleteVectorStore(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vectorStores[id]; !ok {
		return fmt.Errorf("vector store %s not found", id)
	}
	delete(m.vectorStores, id)
	delete(m.vsFiles, id)
	return nil
}

func (m *MockRemote) defaultUploadFilesToVectorStore(ctx context.Context, id string, paths []string) (model.FileBatch, error) {
	if len(paths) == 0 {
		return model.FileBatch{}, fmt.Errorf("no files to upload")
	}
	for _, p := range paths {
		f := model.FileRecord{ID: m.nextID("file"), Filename: p, CreatedAt: FixedTime}
		m.AddVectorStore(m.mustVectorStore(id), f)
	}
	n := int64(len(paths))
	return model.FileBatch{
		ID:            m.nextID("batch"),
		VectorStoreID: id,
		Status:        model.BatchCompleted,
		FileCounts:    model.FileCounts{Completed: n, Total: n},
	}, nil
}

func (m *MockRemote) mustVectorStore(id string) model.VectorStoreRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vs, ok := m.vectorStores[id]; ok {
		return vs
	}
	return model.VectorStoreRecord{ID: id}
}

func (m *MockRemote) defaultListVectorStoreFileIDs(ctx context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vectorStores[id]; !ok {
		return nil, fmt.Errorf("vector store %s not found", id)
	}
	return append([]string{}, m.vsFiles[id]...), nil
}

func (m *MockRemote) defaultDeleteVectorStoreFile(ctx context.Context, vsID, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.vsFiles[vsID]
	for i, id := range ids {
		if id == fileID {
			m.vsFiles[vsID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("file %s not in vector store %s", fileID, vsID)
}

func (m *MockRemote) defaultUploadFile(ctx context.Context, path string) (model.FileRecord, error) {
	f := model.FileRecord{ID: m.nextID("file"), Filename: path, CreatedAt: FixedTime}
	m.mu.Lock()
	m.files[f.ID] = f
	m.mu.Unlock()
	return f, nil
}

func (m *MockRemote) defaultGetFile(ctx context.Context, fileID string) (model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return model.FileRecord{}, fmt.Errorf("file %s not found", fileID)
	}
	return f, nil
}

func (m *MockRemote) defaultDeleteFile(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[fileID]; !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	delete(m.files, fileID)
	return nil
}

func (m *MockRemote) CheckKey(ctx context.Context) error { return m.CheckKeyFunc(ctx) }

func (m *MockRemote) ListAssistants(ctx context.Context, order string, limit int) ([]model.AssistantRecord, error) {
	return m.ListAssistantsFunc(ctx, order, limit)
}

func (m *MockRemote) CreateAssistant(ctx context.Context, spec model.AssistantSpec) (model.AssistantRecord, error) {
	return m.CreateAssistantFunc(ctx, spec)
}

func (m *MockRemote) GetAssistant(ctx context.Context, id string) (model.AssistantRecord, error) {
	return m.GetAssistantFunc(ctx, id)
}

func (m *MockRemote) UpdateAssistantVectorStores(ctx context.Context, a model.AssistantRecord, ids []string) (model.AssistantRecord, error) {
	return m.UpdateAssistantVectorStoresFunc(ctx, a, ids)
}

func (m *MockRemote) DeleteAssistant(ctx context.Context, id string) error {
	return m.DeleteAssistantFunc(ctx, id)
}

func (m *MockRemote) CreateThread(ctx context.Context) (string, error) {
	return m.CreateThreadFunc(ctx)
}

func (m *MockRemote) PostMessage(ctx context.Context, threadID, text, attachFileID string) error {
	return m.PostMessageFunc(ctx, threadID, text, attachFileID)
}

func (m *MockRemote) StreamRun(ctx context.Context, threadID, assistantID, instructions string) (model.EventStream, error) {
	return m.StreamRunFunc(ctx, threadID, assistantID, instructions)
}

func (m *MockRemote) CreateVectorStore(ctx context.Context, name string) (model.VectorStoreRecord, error) {
	return m.CreateVectorStoreFunc(ctx, name)
}

func (m *MockRemote) GetVectorStore(ctx context.Context, id string) (model.VectorStoreRecord, error) {
	return m.GetVectorStoreFunc(ctx, id)
}

func (m *MockRemote) DeleteVectorStore(ctx context.Context, id string) error {
	return m.DeleteVectorStoreFunc(ctx, id)
}

func (m *MockRemote) UploadFilesToVectorStore(ctx context.Context, id string, paths []string) (model.FileBatch, error) {
	return m.UploadFilesToVectorStoreFunc(ctx, id, paths)
}

func (m *MockRemote) ListVectorStoreFileIDs(ctx context.Context, id string) ([]string, error) {
	return m.ListVectorStoreFileIDsFunc(ctx, id)
}

func (m *MockRemote) DeleteVectorStoreFile(ctx context.Context, vsID, fileID string) error {
	return m.DeleteVectorStoreFileFunc(ctx, vsID, fileID)
}

func (m *MockRemote) UploadFile(ctx context.Context, path string) (model.FileRecord, error) {
	return m.UploadFileFunc(ctx, path)
}

func (m *MockRemote) GetFile(ctx context.Context, fileID string) (model.FileRecord, error) {
	return m.GetFileFunc(ctx, fileID)
}

func (m *MockRemote) DeleteFile(ctx context.Context, fileID string) error {
	return m.DeleteFileFunc(ctx, fileID)
}
