package model

// EventKind tags the variant carried by a StreamEvent.
type EventKind int

const (
	EventTextDelta EventKind = iota
	EventToolCallCreated
	EventToolCallDelta
	EventMessageDone
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text_delta"
	case EventToolCallCreated:
		return "tool_call_created"
	case EventToolCallDelta:
		return "tool_call_delta"
	case EventMessageDone:
		return "message_done"
	default:
		return "unknown"
	}
}

// ToolCall describes a tool invocation inside a run step.
// Input is only set for code_interpreter deltas.
type ToolCall struct {
	ID    string
	Type  string
	Input string
}

// Citation is a file annotation on a completed message. Marker is the
// bracketed index that replaced the annotation text.
type Citation struct {
	Index    int
	Marker   string
	FileID   string
	Filename string
}

// CompletedMessage is the final assistant message of a run.
type CompletedMessage struct {
	ID        string
	Text      string
	Citations []Citation
}

// StreamEvent is one event from a streaming run. Only the field matching
// Kind is set.
type StreamEvent struct {
	Kind     EventKind
	Text     string
	ToolCall *ToolCall
	Message  *CompletedMessage
}

func TextDelta(text string) StreamEvent {
	return StreamEvent{Kind: EventTextDelta, Text: text}
}

func ToolCallCreated(tc ToolCall) StreamEvent {
	return StreamEvent{Kind: EventToolCallCreated, ToolCall: &tc}
}

func ToolCallDelta(tc ToolCall) StreamEvent {
	return StreamEvent{Kind: EventToolCallDelta, ToolCall: &tc}
}

func MessageDone(msg CompletedMessage) StreamEvent {
	return StreamEvent{Kind: EventMessageDone, Message: &msg}
}
