package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"assistui/config"
	"assistui/model"
)

// Stream is a single-pass sequence of text chunks from one assistant run.
//
//	for s.Next() {
//		fmt.Print(s.Chunk())
//	}
//	if err := s.Err(); err != nil { ... }
//
// When Next reports normal completion the assistant turn is recorded with
// the concatenation of every chunk yielded. Close may be called at any time,
// including from another goroutine, to cancel the run; a closed stream
// records nothing. The send slot is freed once the turn is recorded, or on
// Close.
type Stream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	events    model.EventStream
	listeners []Listener
	store     Store
	span      trace.Span
	metrics   *sessionMetrics
	started   time.Time
	release   func()

	chunk     string
	text      strings.Builder
	citations []model.Citation
	chunks    atomic.Int64
	err       error
	done      bool

	closed   atomic.Bool
	finished sync.Once
}

func newStream(ctx context.Context, cancel context.CancelFunc, events model.EventStream, listeners []Listener,
	store Store, span trace.Span, metrics *sessionMetrics, release func()) *Stream {
	return &Stream{
		ctx:       ctx,
		cancel:    cancel,
		events:    events,
		listeners: listeners,
		store:     store,
		span:      span,
		metrics:   metrics,
		started:   time.Now(),
		release:   release,
	}
}

// Next blocks until the next text chunk arrives. It returns false once the
// run has finished, failed, or the stream was closed.
func (s *Stream) Next() bool {
	if s.done || s.closed.Load() {
		return false
	}

	for s.events.Next() {
		ev := s.events.Current()
		for _, l := range s.listeners {
			l.OnEvent(ev)
		}

		switch ev.Kind {
		case model.EventTextDelta:
			s.chunk = ev.Text
			s.text.WriteString(ev.Text)
			s.chunks.Add(1)
			return true
		case model.EventMessageDone:
			if ev.Message != nil {
				s.citations = append(s.citations, ev.Message.Citations...)
			}
		}
	}

	s.done = true
	s.chunk = ""

	switch {
	case s.closed.Load() || s.ctx.Err() != nil:
		s.err = s.ctx.Err()
		if s.err == nil {
			s.err = context.Canceled
		}
	case s.events.Err() != nil:
		s.err = remoteErr("stream run", s.events.Err())
	case !s.closed.CompareAndSwap(false, true):
		// Close won the race for the finished run
		s.err = context.Canceled
	default:
		// The stream is claimed: a later Close is a no-op and the send
		// slot stays held until the turn is written.
		_, err := s.store.AppendTurn(model.ConversationTurn{
			Role:    model.RoleAssistant,
			Content: s.text.String(),
		})
		s.err = storageErr("append assistant turn", err)
		config.Logf("[Session] Run complete: %d chunks, %d bytes", s.chunks.Load(), s.text.Len())
	}

	s.finish(s.err)
	return false
}

// Chunk returns the text delta made current by the last call to Next.
func (s *Stream) Chunk() string {
	return s.chunk
}

// Text returns every chunk yielded so far, concatenated.
func (s *Stream) Text() string {
	return s.text.String()
}

// Citations returns the resolved file citations of completed messages.
func (s *Stream) Citations() []model.Citation {
	return s.citations
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close cancels the run and frees the send slot. The remote run is left to
// finish on its own; no assistant turn is recorded. Close is idempotent, and
// has no effect once Next has started recording a completed run.
func (s *Stream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.cancel()
	err := s.events.Close()
	s.finish(context.Canceled)
	return err
}

// finish runs once, from whichever of Next or Close ends the stream first.
func (s *Stream) finish(err error) {
	s.finished.Do(func() {
		s.cancel()

		n := s.chunks.Load()
		attrs := metric.WithAttributes(attribute.Bool("completed", err == nil))
		s.metrics.chunks.Add(context.Background(), n, attrs)
		s.metrics.duration.Record(context.Background(), time.Since(s.started).Seconds(), attrs)

		s.span.SetAttributes(attribute.Int64("stream.chunks", n))
		endSpan(s.span, err)
		s.release()
	})
}
