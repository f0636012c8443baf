package model

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies who authored a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is one persisted chat message. Turns are append-only.
type ConversationTurn struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Tool names accepted by the Assistants API.
const (
	ToolFileSearch      = "file_search"
	ToolCodeInterpreter = "code_interpreter"
)

// DisplayTimeFormat is used for created_at columns in tables and exports.
const DisplayTimeFormat = "2006-01-02 15:04:05"

// AssistantRecord mirrors a remote assistant. The remote copy is authoritative.
type AssistantRecord struct {
	ID             string
	Name           string
	Instructions   string
	Tools          []string
	Model          string
	VectorStoreIDs []string
	CreatedAt      time.Time
}

func (a AssistantRecord) CreatedAtString() string {
	return formatTime(a.CreatedAt)
}

func (a AssistantRecord) HasTool(name string) bool {
	for _, t := range a.Tools {
		if t == name {
			return true
		}
	}
	return false
}

// ToolsString joins tool names the way the assistant cache stores them.
func (a AssistantRecord) ToolsString() string {
	return strings.Join(a.Tools, ",")
}

// ParseTools splits a comma-joined tool list, dropping empty entries.
func ParseTools(s string) []string {
	var tools []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tools = append(tools, t)
		}
	}
	return tools
}

// AssistantSpec is the input for creating an assistant.
type AssistantSpec struct {
	Name           string
	Instructions   string
	Model          string
	Tools          []string
	VectorStoreIDs []string
}

func (s AssistantSpec) Validate() error {
	if strings.TrimSpace(s.Model) == "" {
		return fmt.Errorf("assistant model is required")
	}
	for _, t := range s.Tools {
		if t != ToolFileSearch && t != ToolCodeInterpreter {
			return fmt.Errorf("unsupported assistant tool %q", t)
		}
	}
	return nil
}

// ThreadBinding records a thread created for an assistant selection.
type ThreadBinding struct {
	AssistantID string
	ThreadID    string
	CreatedAt   time.Time
}

type FileCounts struct {
	InProgress int64
	Completed  int64
	Failed     int64
	Cancelled  int64
	Total      int64
}

func (f FileCounts) String() string {
	return fmt.Sprintf("%d/%d completed", f.Completed, f.Total)
}

type VectorStoreRecord struct {
	ID           string
	Name         string
	Status       string
	UsageBytes   int64
	FileCounts   FileCounts
	CreatedAt    time.Time
	LastActiveAt time.Time
}

func (v VectorStoreRecord) CreatedAtString() string {
	return formatTime(v.CreatedAt)
}

func (v VectorStoreRecord) LastActiveAtString() string {
	return formatTime(v.LastActiveAt)
}

type FileRecord struct {
	ID        string
	Filename  string
	Bytes     int64
	CreatedAt time.Time
}

func (f FileRecord) CreatedAtString() string {
	return formatTime(f.CreatedAt)
}

// Batch statuses reported once an upload has finished processing.
const (
	BatchCompleted  = "completed"
	BatchFailed     = "failed"
	BatchCancelled  = "cancelled"
	BatchInProgress = "in_progress"
)

// FileBatch summarizes an upload into a vector store.
type FileBatch struct {
	ID            string
	VectorStoreID string
	Status        string
	FileCounts    FileCounts
	CreatedAt     time.Time
}

func (b FileBatch) Terminal() bool {
	return b.Status == BatchCompleted || b.Status == BatchFailed || b.Status == BatchCancelled
}

// UnixTime converts API epoch seconds; zero stays the zero time.
func UnixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DisplayTimeFormat)
}
