package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"assistui/model"
)

// FixedTime is the base timestamp used by mock records.
var FixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// SortAssistants orders by creation time the way the API's order param does.
func SortAssistants(list []model.AssistantRecord, order string) {
	sort.SliceStable(list, func(i, j int) bool {
		if order == "asc" {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// SliceStream replays a fixed list of events, then ends with Err.
type SliceStream struct {
	Events []model.StreamEvent
	// Fail is returned by Err once the events are exhausted.
	Fail error

	mu     sync.Mutex
	pos    int
	cur    model.StreamEvent
	closed bool
}

var _ model.EventStream = (*SliceStream)(nil)

// TextStream builds a stream of text deltas.
func TextStream(chunks ...string) *SliceStream {
	events := make([]model.StreamEvent, len(chunks))
	for i, c := range chunks {
		events[i] = model.TextDelta(c)
	}
	return &SliceStream{Events: events}
}

func (s *SliceStream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.pos >= len(s.Events) {
		return false
	}
	s.cur = s.Events[s.pos]
	s.pos++
	return true
}

func (s *SliceStream) Current() model.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

func (s *SliceStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.Events) {
		return s.Fail
	}
	return nil
}

func (s *SliceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// BlockingStream emits its events and then blocks until ctx is done, like a
// run whose network connection stalls.
type BlockingStream struct {
	SliceStream
	ctx context.Context
}

func NewBlockingStream(ctx context.Context, chunks ...string) *BlockingStream {
	return &BlockingStream{SliceStream: SliceStream{Events: TextStream(chunks...).Events}, ctx: ctx}
}

func (b *BlockingStream) Next() bool {
	if b.SliceStream.Next() {
		return true
	}
	<-b.ctx.Done()
	return false
}

func (b *BlockingStream) Err() error {
	return b.ctx.Err()
}
