package storage

import (
	"fmt"
	"strings"
	"time"

	"assistui/model"
)

// CacheAssistant inserts or refreshes the cached row for an assistant and
// returns its local id.
func (s *Store) CacheAssistant(a model.AssistantRecord) (int64, error) {
	ts := a.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	fields := Record{
		"name":             a.Name,
		"instructions":     a.Instructions,
		"tools":            a.ToolsString(),
		"model":            a.Model,
		"vector_store_ids": strings.Join(a.VectorStoreIDs, ","),
		"timestamp":        ts.UTC(),
	}

	existing, err := s.QueryAll(TableAssistant, Record{"assistant_id": a.ID})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		id := asInt64(existing[0]["id"])
		if err := s.Update(TableAssistant, id, fields); err != nil {
			return 0, err
		}
		return id, nil
	}

	fields["assistant_id"] = a.ID
	return s.Append(TableAssistant, fields)
}

// CachedAssistants returns the cached assistants in the order they were first seen.
func (s *Store) CachedAssistants() ([]model.AssistantRecord, error) {
	rows, err := s.QueryAll(TableAssistant, nil)
	if err != nil {
		return nil, err
	}

	out := make([]model.AssistantRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.AssistantRecord{
			ID:             asString(r["assistant_id"]),
			Name:           asString(r["name"]),
			Instructions:   asString(r["instructions"]),
			Tools:          model.ParseTools(asString(r["tools"])),
			Model:          asString(r["model"]),
			VectorStoreIDs: splitList(asString(r["vector_store_ids"])),
			CreatedAt:      asTime(r["timestamp"]),
		})
	}
	return out, nil
}

// DeleteCachedAssistant removes the cached row for a remote assistant id.
// Thread rows pointing at it keep their remote id but lose the local link.
func (s *Store) DeleteCachedAssistant(assistantID string) error {
	rows, err := s.QueryAll(TableAssistant, Record{"assistant_id": assistantID})
	if err != nil {
		return err
	}

	for _, r := range rows {
		localID := asInt64(r["id"])
		if _, err := s.db.Exec(`UPDATE thread SET assistant_id = NULL WHERE assistant_id = ?`, localID); err != nil {
			return fmt.Errorf("failed to unlink threads: %w", err)
		}
		if err := s.DeleteByID(TableAssistant, localID); err != nil {
			return err
		}
	}
	return nil
}

// RecordThread stores a thread binding, linking it to the cached assistant
// row when one exists.
func (s *Store) RecordThread(b model.ThreadBinding, name string) (int64, error) {
	fields := Record{
		"thread_id":           b.ThreadID,
		"name":                name,
		"remote_assistant_id": b.AssistantID,
		"created_at":          b.CreatedAt.UTC(),
	}

	rows, err := s.QueryAll(TableAssistant, Record{"assistant_id": b.AssistantID})
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 {
		fields["assistant_id"] = asInt64(rows[0]["id"])
	}

	return s.Append(TableThread, fields)
}

// ThreadsFor returns every recorded binding for a remote assistant id.
func (s *Store) ThreadsFor(assistantID string) ([]model.ThreadBinding, error) {
	rows, err := s.QueryAll(TableThread, Record{"remote_assistant_id": assistantID})
	if err != nil {
		return nil, err
	}

	out := make([]model.ThreadBinding, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ThreadBinding{
			AssistantID: assistantID,
			ThreadID:    asString(r["thread_id"]),
			CreatedAt:   asTime(r["created_at"]),
		})
	}
	return out, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
