package provider

import (
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/ssestream"

	"assistui/config"
	"assistui/model"
)

// runStream adapts the SDK's assistant event stream to model.EventStream.
// One SDK event may expand into several model events, so translated events
// are queued until consumed.
type runStream struct {
	stream  *ssestream.Stream[openai.AssistantStreamEventUnion]
	pending []model.StreamEvent
	cur     model.StreamEvent
	err     error
	// seen tracks tool call indexes per run step for created-vs-delta.
	seen map[string]map[int64]bool
}

func newRunStream(s *ssestream.Stream[openai.AssistantStreamEventUnion]) *runStream {
	return &runStream{
		stream: s,
		seen:   make(map[string]map[int64]bool),
	}
}

func (r *runStream) Next() bool {
	for len(r.pending) == 0 {
		if r.err != nil || !r.stream.Next() {
			return false
		}
		if err := r.translate(r.stream.Current()); err != nil {
			r.err = err
			return false
		}
	}

	r.cur = r.pending[0]
	r.pending = r.pending[1:]
	return true
}

func (r *runStream) Current() model.StreamEvent {
	return r.cur
}

func (r *runStream) Err() error {
	if r.err != nil {
		return r.err
	}
	if err := r.stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}
	return nil
}

func (r *runStream) Close() error {
	return r.stream.Close()
}

func (r *runStream) translate(ev openai.AssistantStreamEventUnion) error {
	switch ev.Event {
	case "thread.message.delta":
		for _, c := range ev.AsThreadMessageDelta().Data.Delta.Content {
			if c.Type == "text" && c.Text.Value != "" {
				r.pending = append(r.pending, model.TextDelta(c.Text.Value))
			}
		}

	case "thread.run.step.delta":
		step := ev.AsThreadRunStepDelta().Data
		if step.Delta.StepDetails.Type != "tool_calls" {
			return nil
		}
		seen := r.seen[step.ID]
		if seen == nil {
			seen = make(map[int64]bool)
			r.seen[step.ID] = seen
		}
		for _, tc := range step.Delta.StepDetails.ToolCalls {
			call := model.ToolCall{ID: tc.ID, Type: tc.Type}
			if !seen[tc.Index] {
				seen[tc.Index] = true
				r.pending = append(r.pending, model.ToolCallCreated(call))
			}
			if tc.Type == model.ToolCodeInterpreter {
				call.Input = tc.CodeInterpreter.Input
			}
			r.pending = append(r.pending, model.ToolCallDelta(call))
		}

	case "thread.message.completed":
		r.pending = append(r.pending, model.MessageDone(convertMessage(ev.AsThreadMessageCompleted().Data)))

	case "thread.run.failed", "thread.run.cancelled", "thread.run.expired":
		run := ev.AsThreadRunFailed().Data
		msg := run.LastError.Message
		if msg == "" {
			msg = string(run.Status)
		}
		return fmt.Errorf("run %s ended: %s", run.ID, msg)

	case "thread.run.requires_action":
		return fmt.Errorf("run requires function tool output, which is not supported")

	case "error":
		return fmt.Errorf("OpenAI stream error: %s", ev.AsErrorEvent().Data.Message)

	default:
		if config.Debug && config.DebugLog != nil && ev.Event != "" {
			config.DebugLog.Printf("[OpenAI] Ignoring stream event %s", ev.Event)
		}
	}
	return nil
}
