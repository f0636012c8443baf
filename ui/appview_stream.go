package ui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"assistui/config"
	"assistui/model"
	"assistui/session"
)

func (a AppView) submitPrompt() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(a.textarea.Value())
	if text == "" || a.streaming {
		return a, nil
	}
	if !a.available {
		a.form = newAPIKeyForm()
		return a, nil
	}
	if a.sc.IsZero() {
		a.showInfo("No Assistant Selected", "Pick an assistant from the list (Enter) or create one first.")
		return a, nil
	}

	a.textarea.Reset()
	a.messages = append(a.messages, chatMessage{
		Role:      string(model.RoleUser),
		Content:   text,
		Rendered:  text,
		Timestamp: timeNow(),
	})
	a.streaming = true
	a.currentResp.Reset()
	a.completed = nil
	a.toolStatus = ""
	a.status = ""
	a.updateViewportContent(true)

	opts := session.SendOptions{
		Instructions: a.runInstructions,
		FilePath:     a.attachPath,
	}
	a.attachPath = ""

	config.Logf("[UI] Sending message to %s on %s (%d chars)", a.sc.AssistantID, a.sc.ThreadID, len(text))
	return a, tea.Batch(sendMessageCmd(a.wrapper, a.sc, text, opts), a.spinner.Tick)
}

func (a AppView) handleStreamingMessage(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case streamStartedMsg:
		if msg.Err != nil {
			a.streaming = false
			if last, ok := a.lastUserMessage(); ok && a.textarea.Value() == "" {
				a.textarea.SetValue(last)
			}
			a.updateViewportContent(true)
			a.showError("Failed to Send Message", msg.Err)
			return a, nil
		}
		if !a.streaming {
			// Cancelled before the run started
			msg.Stream.Close()
			return a, nil
		}
		a.stream = msg.Stream
		return a, nextChunkCmd(msg.Stream)

	case streamChunkMsg:
		if msg.Stream != a.stream {
			return a, nil
		}
		a.currentResp.WriteString(msg.Chunk)
		a.toolStatus = ""
		a.updateViewportContent(true)
		return a, nextChunkCmd(msg.Stream)

	case streamEventMsg:
		if !a.streaming {
			return a, nil
		}
		ev := msg.Event
		switch ev.Kind {
		case model.EventToolCallCreated, model.EventToolCallDelta:
			if ev.ToolCall != nil {
				a.toolStatus = "⚙ running " + ev.ToolCall.Type + "..."
			}
		case model.EventMessageDone:
			a.completed = ev.Message
		}
		a.updateViewportContent(true)
		return a, nil

	case streamDoneMsg:
		if msg.Stream != a.stream {
			return a, nil
		}
		a.stream = nil
		a.streaming = false
		a.toolStatus = ""
		streamed := a.currentResp.String()
		a.currentResp.Reset()

		if msg.Err != nil && errors.Is(msg.Err, context.Canceled) {
			a.addSystemMessage("Response cancelled")
			a.updateViewportContent(true)
			return a, nil
		}

		var storageErr *session.StorageError
		if msg.Err != nil && !errors.As(msg.Err, &storageErr) {
			if streamed != "" {
				a.messages = append(a.messages, chatMessage{
					Role:      string(model.RoleAssistant),
					Content:   streamed,
					Rendered:  streamed,
					Timestamp: timeNow(),
				})
			}
			a.updateViewportContent(true)
			a.showError("Run Failed", msg.Err)
			return a, nil
		}

		if msg.Text != "" {
			streamed = msg.Text
		}
		content := replyContent(streamed, a.completed, msg.Citations)
		a.completed = nil
		a.messages = append(a.messages, chatMessage{
			Role:      string(model.RoleAssistant),
			Content:   content,
			Rendered:  content,
			Timestamp: timeNow(),
		})
		idx := len(a.messages) - 1
		a.updateViewportContent(true)
		if storageErr != nil {
			// The reply is shown but was not saved locally
			a.showError("Failed to Save Message", msg.Err)
		}
		return a, a.renderMarkdownAsync(idx, content)
	}
	return a, nil
}

// cancelStream stops the active run. Nothing from it is recorded.
func (a *AppView) cancelStream() {
	a.closeStream()
	a.streaming = false
	a.toolStatus = ""
	a.currentResp.Reset()
	a.completed = nil
	a.addSystemMessage("Response cancelled")
	a.updateViewportContent(true)
}

func (a *AppView) closeStream() {
	if a.stream == nil {
		return
	}
	if err := a.stream.Close(); err != nil {
		config.Logf("[UI] Failed to close stream: %v", err)
	}
	a.stream = nil
}
