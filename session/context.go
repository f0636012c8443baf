package session

import (
	"time"

	"github.com/google/uuid"

	"assistui/model"
)

// Context is the explicit assistant/thread pair returned by selection.
// Callers hold on to it and pass it back into SendMessage; the wrapper keeps
// no implicit current selection.
type Context struct {
	ID          uuid.UUID
	AssistantID string
	ThreadID    string
	CreatedAt   time.Time
}

// IsZero reports whether the context is unusable for sending.
func (c Context) IsZero() bool {
	return c.AssistantID == "" || c.ThreadID == ""
}

func (c Context) Binding() model.ThreadBinding {
	return model.ThreadBinding{
		AssistantID: c.AssistantID,
		ThreadID:    c.ThreadID,
		CreatedAt:   c.CreatedAt,
	}
}

// Name is the label stored with the thread cache row.
func (c Context) Name() string {
	return "session-" + c.ID.String()[:8]
}
