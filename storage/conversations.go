package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"assistui/model"
)

// AppendTurn records one conversation turn and returns its row id. A zero
// Timestamp is stamped with the current time.
func (s *Store) AppendTurn(turn model.ConversationTurn) (int64, error) {
	if !turn.Role.Valid() {
		return 0, fmt.Errorf("invalid conversation role %q", turn.Role)
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}

	return s.Append(TableConversation, Record{
		"role":      string(turn.Role),
		"content":   turn.Content,
		"timestamp": turn.Timestamp.UTC(),
	})
}

// Turns returns the whole conversation log in insertion order.
func (s *Store) Turns() ([]model.ConversationTurn, error) {
	rows, err := s.QueryAll(TableConversation, nil)
	if err != nil {
		return nil, err
	}

	turns := make([]model.ConversationTurn, 0, len(rows))
	for _, r := range rows {
		turns = append(turns, model.ConversationTurn{
			ID:        asInt64(r["id"]),
			Role:      model.Role(asString(r["role"])),
			Content:   asString(r["content"]),
			Timestamp: asTime(r["timestamp"]),
		})
	}
	return turns, nil
}

func (s *Store) ClearTurns() error {
	return s.DeleteAll(TableConversation)
}

type TurnMatch struct {
	TurnID    int64
	Role      model.Role
	Content   string
	Preview   string
	Timestamp time.Time
}

// SearchTurns does a case-insensitive substring search over turn contents.
func (s *Store) SearchTurns(query string) ([]TurnMatch, error) {
	if query == "" {
		return []TurnMatch{}, nil
	}

	turns, err := s.Turns()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	matches := []TurnMatch{}
	for _, t := range turns {
		if !strings.Contains(strings.ToLower(t.Content), queryLower) {
			continue
		}

		preview := []rune(t.Content)
		if len(preview) > 100 {
			preview = append(preview[:100], []rune("...")...)
		}

		matches = append(matches, TurnMatch{
			TurnID:    t.ID,
			Role:      t.Role,
			Content:   t.Content,
			Preview:   string(preview),
			Timestamp: t.Timestamp,
		})
	}
	return matches, nil
}

type conversationExport struct {
	ExportID   string                   `json:"export_id"`
	ExportedAt time.Time                `json:"exported_at"`
	Turns      []model.ConversationTurn `json:"turns"`
}

// ExportTurns writes the conversation log to exportPath as JSON.
func (s *Store) ExportTurns(exportPath string) error {
	turns, err := s.Turns()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(conversationExport{
		ExportID:   uuid.New().String(),
		ExportedAt: time.Now().UTC(),
		Turns:      turns,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// GenerateExportPath returns a timestamped export file path in the user's
// Downloads directory (or home if Downloads is missing).
func GenerateExportPath(homeDir string) string {
	dir := filepath.Join(homeDir, "Downloads")
	if _, err := os.Stat(dir); err != nil {
		dir = homeDir
	}
	name := fmt.Sprintf("assistui-conversation-%s.json", time.Now().Format("20060102-150405"))
	return filepath.Join(dir, name)
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
}

// asTime accepts the forms SQLite hands back for DATETIME columns.
func asTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.Unix(t, 0).UTC()
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed
			}
		}
	}
	return time.Time{}
}
