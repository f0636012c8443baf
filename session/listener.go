package session

import (
	"context"
	"fmt"
	"strings"

	"assistui/config"
	"assistui/model"
)

// Listener receives every event of a streaming run, in order, on the
// goroutine that calls Stream.Next.
type Listener interface {
	OnEvent(ev model.StreamEvent)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(ev model.StreamEvent)

func (f ListenerFunc) OnEvent(ev model.StreamEvent) { f(ev) }

// citationResolver rewrites file annotations on completed messages into
// [n] markers and resolves the cited filenames through the remote it was
// built with. It also logs tool activity.
type citationResolver struct {
	ctx    context.Context
	remote model.Remote
}

func newCitationResolver(ctx context.Context, remote model.Remote) *citationResolver {
	return &citationResolver{ctx: ctx, remote: remote}
}

func (r *citationResolver) OnEvent(ev model.StreamEvent) {
	switch ev.Kind {
	case model.EventToolCallCreated:
		config.Logf("[Session] Tool call created: %s (%s)", ev.ToolCall.Type, ev.ToolCall.ID)
	case model.EventToolCallDelta:
		if ev.ToolCall.Type == model.ToolFileSearch {
			config.Logf("[Session] Tool call delta: %s", ev.ToolCall.Type)
		}
	case model.EventMessageDone:
		if ev.Message != nil {
			r.resolve(ev.Message)
		}
	}
}

// resolve mutates msg in place so listeners after the resolver see the
// rewritten text.
func (r *citationResolver) resolve(msg *model.CompletedMessage) {
	for i := range msg.Citations {
		c := &msg.Citations[i]
		marker := fmt.Sprintf("[%d]", c.Index)
		if c.Marker != "" {
			msg.Text = strings.ReplaceAll(msg.Text, c.Marker, marker)
		}
		c.Marker = marker

		if c.FileID == "" {
			continue
		}
		f, err := r.remote.GetFile(r.ctx, c.FileID)
		if err != nil {
			config.Logf("[Session] Failed to resolve cited file %s: %v", c.FileID, err)
			continue
		}
		c.Filename = f.Filename
	}
}

// FormatCitations renders citations one per line as "[n] filename".
func FormatCitations(cits []model.Citation) string {
	lines := make([]string, 0, len(cits))
	for _, c := range cits {
		if c.Filename == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", c.Marker, c.Filename))
	}
	return strings.Join(lines, "\n")
}
