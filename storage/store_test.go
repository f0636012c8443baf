package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"assistui/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendTurnsKeepInsertionOrder(t *testing.T) {
	tests := []struct {
		name  string
		turns []model.ConversationTurn
	}{
		{"empty", nil},
		{"single", []model.ConversationTurn{{Role: model.RoleUser, Content: "hi"}}},
		{
			name: "alternating",
			turns: []model.ConversationTurn{
				{Role: model.RoleUser, Content: "one"},
				{Role: model.RoleAssistant, Content: "two"},
				{Role: model.RoleUser, Content: "three"},
				{Role: model.RoleAssistant, Content: ""},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)

			var lastID int64
			for _, turn := range tt.turns {
				id, err := s.AppendTurn(turn)
				if err != nil {
					t.Fatalf("AppendTurn() error = %v", err)
				}
				if id <= lastID {
					t.Errorf("AppendTurn() id = %d, want > %d", id, lastID)
				}
				lastID = id
			}

			got, err := s.Turns()
			if err != nil {
				t.Fatalf("Turns() error = %v", err)
			}
			if len(got) != len(tt.turns) {
				t.Fatalf("Turns() returned %d rows, want %d", len(got), len(tt.turns))
			}
			for i := range got {
				if got[i].Role != tt.turns[i].Role || got[i].Content != tt.turns[i].Content {
					t.Errorf("turn %d = %s/%q, want %s/%q", i, got[i].Role, got[i].Content, tt.turns[i].Role, tt.turns[i].Content)
				}
			}

			if err := s.ClearTurns(); err != nil {
				t.Fatalf("ClearTurns() error = %v", err)
			}
			got, err = s.Turns()
			if err != nil {
				t.Fatalf("Turns() after clear error = %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Turns() after clear returned %d rows, want 0", len(got))
			}
		})
	}
}

func TestAppendTurnRejectsUnknownRole(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AppendTurn(model.ConversationTurn{Role: "system", Content: "x"}); err == nil {
		t.Error("AppendTurn() with role system should fail")
	}
}

func TestAppendTurnKeepsTimestamp(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	if _, err := s.AppendTurn(model.ConversationTurn{Role: model.RoleUser, Content: "x", Timestamp: ts}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	turns, err := s.Turns()
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if !turns[0].Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", turns[0].Timestamp, ts)
	}
}

func TestQueryAllFilters(t *testing.T) {
	s := newTestStore(t)

	for _, r := range []Record{
		{"role": "user", "content": "a"},
		{"role": "assistant", "content": "b"},
		{"role": "user", "content": "c"},
	} {
		if _, err := s.Append(TableConversation, r); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		where Record
		want  []string
	}{
		{"no filter", nil, []string{"a", "b", "c"}},
		{"by role", Record{"role": "user"}, []string{"a", "c"}},
		{"two fields", Record{"role": "user", "content": "c"}, []string{"c"}},
		{"no match", Record{"content": "zzz"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := s.QueryAll(TableConversation, tt.where)
			if err != nil {
				t.Fatalf("QueryAll() error = %v", err)
			}
			if len(rows) != len(tt.want) {
				t.Fatalf("QueryAll() returned %d rows, want %d", len(rows), len(tt.want))
			}
			for i, r := range rows {
				if asString(r["content"]) != tt.want[i] {
					t.Errorf("row %d content = %v, want %s", i, r["content"], tt.want[i])
				}
			}
		})
	}
}

func TestUnknownColumnsRejected(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Append(TableConversation, Record{"role; DROP TABLE conversation": "x"}); err == nil {
		t.Error("Append() with unknown column should fail")
	}
	if _, err := s.QueryAll(TableConversation, Record{"nope": 1}); err == nil {
		t.Error("QueryAll() with unknown column should fail")
	}
	if err := s.Update(TableConversation, 1, Record{"nope": 1}); err == nil {
		t.Error("Update() with unknown column should fail")
	}
	if _, err := s.QueryAll("missing", nil); err == nil {
		t.Error("QueryAll() on unknown table should fail")
	}
}

func TestUpdateAndDeleteByID(t *testing.T) {
	s := newTestStore(t)

	id, err := s.Append(TableConversation, Record{"role": "user", "content": "draft"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	keep, err := s.Append(TableConversation, Record{"role": "user", "content": "keep"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := s.Update(TableConversation, id, Record{"content": "final"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	rows, _ := s.QueryAll(TableConversation, Record{"id": id})
	if len(rows) != 1 || asString(rows[0]["content"]) != "final" || asString(rows[0]["role"]) != "user" {
		t.Errorf("after Update() row = %v", rows)
	}

	if err := s.Update(TableConversation, 9999, Record{"content": "x"}); err == nil {
		t.Error("Update() of missing row should fail")
	}

	if err := s.DeleteByID(TableConversation, id); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	rows, _ = s.QueryAll(TableConversation, nil)
	if len(rows) != 1 || asInt64(rows[0]["id"]) != keep {
		t.Errorf("after DeleteByID() rows = %v, want only id %d", rows, keep)
	}
}

func TestAssistantCache(t *testing.T) {
	s := newTestStore(t)

	a := model.AssistantRecord{
		ID:             "asst_1",
		Name:           "Analyst",
		Instructions:   "Be terse.",
		Tools:          []string{model.ToolFileSearch},
		Model:          "gpt-4o",
		VectorStoreIDs: []string{"vs_1", "vs_2"},
		CreatedAt:      time.Unix(1700000000, 0),
	}
	firstID, err := s.CacheAssistant(a)
	if err != nil {
		t.Fatalf("CacheAssistant() error = %v", err)
	}

	a.Name = "Renamed"
	secondID, err := s.CacheAssistant(a)
	if err != nil {
		t.Fatalf("CacheAssistant() refresh error = %v", err)
	}
	if firstID != secondID {
		t.Errorf("CacheAssistant() refresh id = %d, want %d", secondID, firstID)
	}

	cached, err := s.CachedAssistants()
	if err != nil {
		t.Fatalf("CachedAssistants() error = %v", err)
	}
	if len(cached) != 1 {
		t.Fatalf("CachedAssistants() returned %d, want 1", len(cached))
	}
	got := cached[0]
	if got.Name != "Renamed" || got.Model != "gpt-4o" || !got.HasTool(model.ToolFileSearch) {
		t.Errorf("cached assistant = %+v", got)
	}
	if len(got.VectorStoreIDs) != 2 || got.VectorStoreIDs[1] != "vs_2" {
		t.Errorf("VectorStoreIDs = %v, want [vs_1 vs_2]", got.VectorStoreIDs)
	}
}

func TestThreadBindingsSurviveAssistantDelete(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CacheAssistant(model.AssistantRecord{ID: "asst_1", Model: "gpt-4o"}); err != nil {
		t.Fatalf("CacheAssistant() error = %v", err)
	}
	for _, th := range []string{"thread_a", "thread_b"} {
		b := model.ThreadBinding{AssistantID: "asst_1", ThreadID: th, CreatedAt: time.Now()}
		if _, err := s.RecordThread(b, "chat"); err != nil {
			t.Fatalf("RecordThread() error = %v", err)
		}
	}

	if err := s.DeleteCachedAssistant("asst_1"); err != nil {
		t.Fatalf("DeleteCachedAssistant() error = %v", err)
	}

	cached, _ := s.CachedAssistants()
	if len(cached) != 0 {
		t.Errorf("CachedAssistants() after delete = %d rows, want 0", len(cached))
	}

	threads, err := s.ThreadsFor("asst_1")
	if err != nil {
		t.Fatalf("ThreadsFor() error = %v", err)
	}
	if len(threads) != 2 || threads[0].ThreadID != "thread_a" || threads[1].ThreadID != "thread_b" {
		t.Errorf("ThreadsFor() = %+v, want thread_a and thread_b", threads)
	}

	rows, _ := s.QueryAll(TableThread, nil)
	for _, r := range rows {
		if r["assistant_id"] != nil {
			t.Errorf("thread %v still linked to deleted assistant row", r["thread_id"])
		}
	}
}

func TestSearchAndExportTurns(t *testing.T) {
	s := newTestStore(t)
	for _, turn := range []model.ConversationTurn{
		{Role: model.RoleUser, Content: "What is a Vector Store?"},
		{Role: model.RoleAssistant, Content: "An indexed file collection."},
		{Role: model.RoleUser, Content: "thanks"},
	} {
		if _, err := s.AppendTurn(turn); err != nil {
			t.Fatalf("AppendTurn() error = %v", err)
		}
	}

	matches, err := s.SearchTurns("vector")
	if err != nil {
		t.Fatalf("SearchTurns() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Role != model.RoleUser {
		t.Errorf("SearchTurns() = %+v, want the user question", matches)
	}

	if empty, _ := s.SearchTurns(""); len(empty) != 0 {
		t.Errorf("SearchTurns(\"\") returned %d matches", len(empty))
	}

	path := filepath.Join(t.TempDir(), "out", "export.json")
	if err := s.ExportTurns(path); err != nil {
		t.Fatalf("ExportTurns() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var exported conversationExport
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(exported.Turns) != 3 || exported.ExportID == "" {
		t.Errorf("export has %d turns and id %q", len(exported.Turns), exported.ExportID)
	}
}

func TestNewStoreReopensExistingDatabase(t *testing.T) {
	dir := t.TempDir()

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := s.AppendTurn(model.ConversationTurn{Role: model.RoleUser, Content: "persisted"}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	s.Close()

	s, err = NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() reopen error = %v", err)
	}
	defer s.Close()

	turns, err := s.Turns()
	if err != nil {
		t.Fatalf("Turns() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Content != "persisted" {
		t.Errorf("Turns() after reopen = %+v", turns)
	}
}
