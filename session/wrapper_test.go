package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"assistui/model"
	"assistui/provider/testutil"
	"assistui/storage"
)

const validKey = "sk-valid"

type savedKeys struct {
	keys []string
}

func (s *savedKeys) SaveAPIKey(key string) error {
	s.keys = append(s.keys, key)
	return nil
}

func mockFactory(mock *testutil.MockRemote) RemoteFactory {
	return func(apiKey string) (model.Remote, error) {
		if apiKey != validKey {
			m := testutil.NewMockRemote()
			m.CheckKeyFunc = func(ctx context.Context) error { return fmt.Errorf("401 Unauthorized") }
			return m, nil
		}
		return mock, nil
	}
}

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newTestWrapper returns a wrapper already configured with a valid key.
func newTestWrapper(t *testing.T, opts Options) (*Wrapper, *testutil.MockRemote, *storage.Store) {
	t.Helper()
	mock := testutil.NewMockRemote()
	store := newTestStore(t)
	w := New(store, mockFactory(mock), opts)

	ok, err := w.ConfigureCredentials(context.Background(), validKey)
	if err != nil || !ok {
		t.Fatalf("ConfigureCredentials = %v, %v", ok, err)
	}
	return w, mock, store
}

func TestConfigureCredentials(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		persistBad    bool
		wantAvailable bool
		wantSaved     []string
	}{
		{name: "valid key is saved", key: validKey, wantAvailable: true, wantSaved: []string{validKey}},
		{name: "invalid key is not saved", key: "sk-bad"},
		{name: "invalid key saved when configured", key: "sk-bad", persistBad: true, wantSaved: []string{"sk-bad"}},
		{name: "empty key", key: "  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saver := &savedKeys{}
			w := New(newTestStore(t), mockFactory(testutil.NewMockRemote()), Options{
				Credentials:       saver,
				PersistInvalidKey: tt.persistBad,
			})

			ok, err := w.ConfigureCredentials(context.Background(), tt.key)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.wantAvailable || w.Available() != tt.wantAvailable {
				t.Errorf("available = %v/%v, want %v", ok, w.Available(), tt.wantAvailable)
			}
			if fmt.Sprint(saver.keys) != fmt.Sprint(tt.wantSaved) {
				t.Errorf("saved keys = %v, want %v", saver.keys, tt.wantSaved)
			}
		})
	}
}

func TestInvalidKeyDisablesClient(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})

	ok, _ := w.ConfigureCredentials(context.Background(), "sk-bad")
	if ok || w.Available() {
		t.Fatal("expected wrapper to be unavailable after invalid key")
	}
	if _, err := w.ListAssistants(context.Background(), "", 0); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("ListAssistants error = %v, want ErrNotAvailable", err)
	}
}

func TestOperationsRequireCredentials(t *testing.T) {
	w := New(newTestStore(t), mockFactory(testutil.NewMockRemote()), Options{})
	ctx := context.Background()

	if _, err := w.ListAssistants(ctx, "", 0); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("ListAssistants: %v", err)
	}
	if _, err := w.SelectAssistant(ctx, "asst_1"); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("SelectAssistant: %v", err)
	}
	if _, err := w.CreateVectorStore(ctx, "docs"); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("CreateVectorStore: %v", err)
	}
	sc := Context{AssistantID: "asst_1", ThreadID: "thread_1"}
	if _, err := w.SendMessage(ctx, sc, "hi", SendOptions{}); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("SendMessage: %v", err)
	}
}

func TestListAssistantsCachesAndOrders(t *testing.T) {
	w, mock, _ := newTestWrapper(t, Options{})
	ctx := context.Background()

	for i, name := range []string{"first", "second", "third"} {
		mock.AddAssistant(model.AssistantRecord{
			ID:        fmt.Sprintf("asst_%d", i),
			Name:      name,
			Model:     "gpt-4o-mini",
			CreatedAt: testutil.FixedTime.AddDate(0, 0, i),
		})
	}

	tests := []struct {
		order string
		limit int
		want  []string
	}{
		{order: "", want: []string{"third", "second", "first"}},
		{order: "asc", want: []string{"first", "second", "third"}},
		{order: "desc", limit: 2, want: []string{"third", "second"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q/%d", tt.order, tt.limit), func(t *testing.T) {
			list, err := w.ListAssistants(ctx, tt.order, tt.limit)
			if err != nil {
				t.Fatalf("ListAssistants: %v", err)
			}
			var names []string
			for _, a := range list {
				names = append(names, a.Name)
			}
			if fmt.Sprint(names) != fmt.Sprint(tt.want) {
				t.Errorf("names = %v, want %v", names, tt.want)
			}
		})
	}

	cached, err := w.CachedAssistants()
	if err != nil {
		t.Fatalf("CachedAssistants: %v", err)
	}
	if len(cached) != 3 {
		t.Errorf("cached %d assistants, want 3", len(cached))
	}
}

func TestCreateAssistantSelectsIt(t *testing.T) {
	w, _, store := newTestWrapper(t, Options{DefaultModel: "gpt-4o-mini"})

	a, sc, err := w.CreateAssistant(context.Background(), model.AssistantSpec{
		Name:  "Analyst",
		Tools: []string{model.ToolFileSearch},
	})
	if err != nil {
		t.Fatalf("CreateAssistant: %v", err)
	}
	if a.Model != "gpt-4o-mini" {
		t.Errorf("model = %q, want default", a.Model)
	}
	if sc.IsZero() || sc.AssistantID != a.ID {
		t.Errorf("context = %+v, want selection of %s", sc, a.ID)
	}
	if got := w.Bindings(a.ID); len(got) != 1 || got[0].ThreadID != sc.ThreadID {
		t.Errorf("bindings = %+v", got)
	}

	threads, err := store.ThreadsFor(a.ID)
	if err != nil {
		t.Fatalf("ThreadsFor: %v", err)
	}
	if len(threads) != 1 || threads[0].ThreadID != sc.ThreadID {
		t.Errorf("stored threads = %+v", threads)
	}
}

func TestCreateAssistantRejectsUnknownTool(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})

	_, _, err := w.CreateAssistant(context.Background(), model.AssistantSpec{
		Model: "gpt-4o-mini",
		Tools: []string{"function"},
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestCreateAssistantThreadFailureKeepsRecord(t *testing.T) {
	w, mock, _ := newTestWrapper(t, Options{})
	mock.CreateThreadFunc = func(ctx context.Context) (string, error) {
		return "", fmt.Errorf("rate limited")
	}

	a, sc, err := w.CreateAssistant(context.Background(), model.AssistantSpec{Model: "gpt-4o"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) || remoteErr.Op != "create thread" {
		t.Fatalf("error = %v, want create thread RemoteError", err)
	}
	if a.ID == "" {
		t.Error("expected the created assistant to be returned")
	}
	if !sc.IsZero() {
		t.Errorf("expected zero context, got %+v", sc)
	}
}

func TestSelectAssistantAlwaysCreatesThread(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})
	ctx := context.Background()

	scA, err := w.SelectAssistant(ctx, "asst_a")
	if err != nil {
		t.Fatalf("select A: %v", err)
	}
	scB, err := w.SelectAssistant(ctx, "asst_b")
	if err != nil {
		t.Fatalf("select B: %v", err)
	}

	bindingsA := w.Bindings("asst_a")
	bindingsB := w.Bindings("asst_b")
	if len(bindingsA) != 1 || bindingsA[0].ThreadID != scA.ThreadID {
		t.Errorf("A bindings changed: %+v", bindingsA)
	}
	if len(bindingsB) != 1 || bindingsB[0].ThreadID != scB.ThreadID {
		t.Errorf("B bindings = %+v", bindingsB)
	}

	scA2, err := w.SelectAssistant(ctx, "asst_a")
	if err != nil {
		t.Fatalf("reselect A: %v", err)
	}
	if scA2.ThreadID == scA.ThreadID || scA2.ID == scA.ID {
		t.Error("reselecting must create a new thread and session id")
	}
	bindingsA = w.Bindings("asst_a")
	if len(bindingsA) != 2 || bindingsA[0].ThreadID != scA.ThreadID {
		t.Errorf("A bindings = %+v, want old binding kept", bindingsA)
	}
}

func TestSelectAssistantRequiresID(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})
	if _, err := w.SelectAssistant(context.Background(), ""); !errors.Is(err, ErrNoAssistant) {
		t.Errorf("error = %v, want ErrNoAssistant", err)
	}
}

func TestDeleteAssistantWrapsRemoteError(t *testing.T) {
	w, _, _ := newTestWrapper(t, Options{})

	err := w.DeleteAssistant(context.Background(), "asst_missing")
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("error = %v, want RemoteError", err)
	}
	if remoteErr.Op != "delete assistant" {
		t.Errorf("op = %q", remoteErr.Op)
	}
}

func TestUpdateAssistantVectorStores(t *testing.T) {
	w, mock, store := newTestWrapper(t, Options{})
	mock.AddAssistant(model.AssistantRecord{ID: "asst_1", Model: "gpt-4o", Tools: []string{model.ToolCodeInterpreter}})

	a, err := w.UpdateAssistantVectorStores(context.Background(), "asst_1", []string{"vs_1", "vs_2"})
	if err != nil {
		t.Fatalf("UpdateAssistantVectorStores: %v", err)
	}
	if !a.HasTool(model.ToolFileSearch) || !a.HasTool(model.ToolCodeInterpreter) {
		t.Errorf("tools = %v", a.Tools)
	}

	cached, err := store.CachedAssistants()
	if err != nil {
		t.Fatalf("CachedAssistants: %v", err)
	}
	if len(cached) != 1 || fmt.Sprint(cached[0].VectorStoreIDs) != "[vs_1 vs_2]" {
		t.Errorf("cached = %+v", cached)
	}
}
