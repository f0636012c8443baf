package ui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"assistui/config"
	"assistui/model"
	"assistui/session"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
)

var timeNow = time.Now

const (
	roleSystem = "system"
	codeBar    = "┃"
)

// chatMessage is one entry of the chat viewport. System entries are local
// notices and are never persisted.
type chatMessage struct {
	Role      string
	Content   string
	Rendered  string
	Timestamp time.Time
}

func turnsToMessages(turns []model.ConversationTurn) []chatMessage {
	msgs := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, chatMessage{
			Role:      string(t.Role),
			Content:   t.Content,
			Rendered:  t.Content,
			Timestamp: t.Timestamp.Local(),
		})
	}
	return msgs
}

// replyContent is what the viewport shows for a finished run: the completed
// message with citation markers when one arrived, else the streamed text,
// followed by the resolved sources.
func replyContent(streamed string, completed *model.CompletedMessage, citations []model.Citation) string {
	text := streamed
	if completed != nil && completed.Text != "" {
		text = completed.Text
	}
	if sources := session.FormatCitations(citations); sources != "" {
		text += "\n\n" + sources
	}
	return text
}

func roleLabel(role string) string {
	switch role {
	case string(model.RoleUser):
		return UserStyle.Render("You")
	case string(model.RoleAssistant):
		return AssistantStyle.Render("Assistant")
	default:
		return DimStyle.Render("System")
	}
}

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if len(a.messages) == 0 && !a.streaming {
		a.viewport.SetContent(DimStyle.Render("No messages yet. Select an assistant and start chatting!"))
		return
	}

	var content strings.Builder
	a.messageOffsets = a.messageOffsets[:0]
	for _, msg := range a.messages {
		a.messageOffsets = append(a.messageOffsets, strings.Count(content.String(), "\n"))
		timestamp := DimStyle.Render(msg.Timestamp.Format("[15:04]"))
		role := roleLabel(msg.Role)

		switch msg.Role {
		case string(model.RoleUser):
			content.WriteString(formatUserMessage(timestamp, role, msg.Rendered))
		case roleSystem:
			content.WriteString(fmt.Sprintf("%s %s\n\n", timestamp, DimStyle.Render(msg.Content)))
		default:
			content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, role, msg.Rendered))
		}
	}

	if a.streaming {
		timestamp := DimStyle.Render(time.Now().Format("[15:04]"))
		body := a.spinner.View() + " " + DimStyle.Render("Waiting for response...")
		if a.currentResp.Len() > 0 {
			body = a.currentResp.String() + "▋"
		}
		if a.toolStatus != "" {
			body += "\n" + DimStyle.Render(a.toolStatus)
		}
		content.WriteString(fmt.Sprintf("%s %s\n%s\n\n", timestamp, roleLabel(string(model.RoleAssistant)), body))
	}

	a.viewport.SetContent(content.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

// findMessage returns the index of the newest message with this role and content.
func findMessage(msgs []chatMessage, role model.Role, content string) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == string(role) && msgs[i].Content == content {
			return i
		}
	}
	return -1
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render(codeBar)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

// renderMarkdown renders content for the given terminal width. Autolink is
// off so terminals can detect plain URLs themselves.
func renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	content = mdLinkRegex.ReplaceAllString(content, "$2")

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	// Inline code: blue background to red text
	return inlineCodeRegex.ReplaceAllString(string(rendered), "\x1b[31m$1\x1b[0m")
}

func (a AppView) renderMarkdownAsync(messageIndex int, content string) tea.Cmd {
	width := a.width
	return func() tea.Msg {
		start := time.Now()
		rendered := strings.TrimRight(renderMarkdown(content, width), "\n")
		config.Logf("[UI] Markdown for message %d rendered in %v (%d chars)", messageIndex, time.Since(start), len(content))
		return markdownRenderedMsg{MessageIndex: messageIndex, Rendered: rendered}
	}
}

// renderAll re-renders every assistant message, e.g. after a resize.
func (a AppView) renderAll() tea.Cmd {
	var cmds []tea.Cmd
	for i, msg := range a.messages {
		if msg.Role == string(model.RoleAssistant) {
			cmds = append(cmds, a.renderMarkdownAsync(i, msg.Content))
		}
	}
	return tea.Batch(cmds...)
}
