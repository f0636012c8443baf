package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"assistui/model"
)

// EventRelay is a session.Listener that forwards tool activity and
// completed messages to a running program. Text deltas are not relayed;
// they arrive through the stream itself.
type EventRelay struct {
	program atomic.Pointer[tea.Program]
}

func NewEventRelay() *EventRelay {
	return &EventRelay{}
}

// Attach sets the program events are sent to. Events before Attach are dropped.
func (r *EventRelay) Attach(p *tea.Program) {
	r.program.Store(p)
}

func (r *EventRelay) OnEvent(ev model.StreamEvent) {
	if ev.Kind == model.EventTextDelta {
		return
	}
	p := r.program.Load()
	if p == nil {
		return
	}
	p.Send(streamEventMsg{Event: ev})
}
