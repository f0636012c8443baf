package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assistui/model"
)

func TestOpenAIRemoteImplementsInterface(t *testing.T) {
	var _ model.Remote = (*OpenAIRemote)(nil)
}

func newTestRemote(t *testing.T, handler http.HandlerFunc) *OpenAIRemote {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	r, err := NewOpenAIRemote("sk-test", Options{BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAIRemote: %v", err)
	}
	return r
}

func TestNewOpenAIRemoteRequiresKey(t *testing.T) {
	if _, err := NewOpenAIRemote("", Options{}); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestCheckKey(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "valid key", status: http.StatusOK},
		{name: "invalid key", status: http.StatusUnauthorized, wantErr: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
				calls++
				if !strings.HasSuffix(req.URL.Path, "/models") {
					t.Errorf("unexpected path %s", req.URL.Path)
				}
				if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
					t.Errorf("Authorization = %q", got)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					fmt.Fprint(w, `{"object":"list","data":[]}`)
				} else {
					fmt.Fprint(w, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
				}
			})

			err := r.CheckKey(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != 1 {
				t.Errorf("expected exactly one request (no retries), got %d", calls)
			}
		})
	}
}

func TestListAssistants(t *testing.T) {
	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasSuffix(req.URL.Path, "/assistants") {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if got := req.URL.Query().Get("order"); got != "asc" {
			t.Errorf("order = %q, want asc", got)
		}
		if got := req.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","has_more":false,"data":[
			{"id":"asst_1","object":"assistant","created_at":1700000000,"name":"Helper",
			 "instructions":"be brief","model":"gpt-4o-mini",
			 "tools":[{"type":"file_search"},{"type":"code_interpreter"}],
			 "tool_resources":{"file_search":{"vector_store_ids":["vs_1"]}}}
		]}`)
	})

	got, err := r.ListAssistants(context.Background(), "asc", 5)
	if err != nil {
		t.Fatalf("ListAssistants: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d assistants, want 1", len(got))
	}

	a := got[0]
	if a.ID != "asst_1" || a.Name != "Helper" || a.Model != "gpt-4o-mini" {
		t.Errorf("unexpected record %+v", a)
	}
	if !a.HasTool(model.ToolFileSearch) || !a.HasTool(model.ToolCodeInterpreter) {
		t.Errorf("tools = %v", a.Tools)
	}
	if len(a.VectorStoreIDs) != 1 || a.VectorStoreIDs[0] != "vs_1" {
		t.Errorf("vector stores = %v", a.VectorStoreIDs)
	}
	if a.CreatedAt.Unix() != 1700000000 {
		t.Errorf("created_at = %v", a.CreatedAt)
	}
}

func TestRemoteErrorsAreNotRetried(t *testing.T) {
	calls := 0
	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":{"message":"busy"}}`)
	})

	if err := r.DeleteVectorStore(context.Background(), "vs_1"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("got %d calls, want 1", calls)
	}
}

const runStreamBody = `event: thread.run.created
data: {"id":"run_1","object":"thread.run","status":"queued","thread_id":"thread_1","assistant_id":"asst_1"}

event: thread.run.step.delta
data: {"id":"step_1","object":"thread.run.step.delta","delta":{"step_details":{"type":"tool_calls","tool_calls":[{"index":0,"id":"call_1","type":"code_interpreter","code_interpreter":{"input":"print("}}]}}}

event: thread.run.step.delta
data: {"id":"step_1","object":"thread.run.step.delta","delta":{"step_details":{"type":"tool_calls","tool_calls":[{"index":0,"type":"code_interpreter","code_interpreter":{"input":"1)"}}]}}}

event: thread.message.delta
data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"Hel"}}]}}

event: thread.message.delta
data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"lo"}}]}}

event: thread.message.completed
data: {"id":"msg_1","object":"thread.message","role":"assistant","status":"completed","thread_id":"thread_1","content":[{"type":"text","text":{"value":"Hello【4:0†doc.pdf】","annotations":[{"type":"file_citation","text":"【4:0†doc.pdf】","start_index":5,"end_index":18,"file_citation":{"file_id":"file_9"}}]}}]}

event: thread.run.completed
data: {"id":"run_1","object":"thread.run","status":"completed","thread_id":"thread_1","assistant_id":"asst_1"}

event: done
data: [DONE]

`

func sseHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, "/threads/thread_1/runs") {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}
}

func TestStreamRunTranslatesEvents(t *testing.T) {
	r := newTestRemote(t, sseHandler(t, runStreamBody))

	stream, err := r.StreamRun(context.Background(), "thread_1", "asst_1", "")
	if err != nil {
		t.Fatalf("StreamRun: %v", err)
	}
	defer stream.Close()

	var events []model.StreamEvent
	for stream.Next() {
		events = append(events, stream.Current())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream error: %v", err)
	}

	wantKinds := []model.EventKind{
		model.EventToolCallCreated,
		model.EventToolCallDelta,
		model.EventToolCallDelta,
		model.EventTextDelta,
		model.EventTextDelta,
		model.EventMessageDone,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	for i, k := range wantKinds {
		if events[i].Kind != k {
			t.Errorf("event %d kind = %v, want %v", i, events[i].Kind, k)
		}
	}

	if events[0].ToolCall.ID != "call_1" || events[0].ToolCall.Type != model.ToolCodeInterpreter {
		t.Errorf("created tool call = %+v", events[0].ToolCall)
	}
	if events[1].ToolCall.Input != "print(" || events[2].ToolCall.Input != "1)" {
		t.Errorf("tool inputs = %q, %q", events[1].ToolCall.Input, events[2].ToolCall.Input)
	}
	if events[3].Text+events[4].Text != "Hello" {
		t.Errorf("text = %q", events[3].Text+events[4].Text)
	}

	msg := events[5].Message
	if msg.ID != "msg_1" || !strings.HasPrefix(msg.Text, "Hello") {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Citations) != 1 || msg.Citations[0].FileID != "file_9" || msg.Citations[0].Marker != "【4:0†doc.pdf】" {
		t.Errorf("citations = %+v", msg.Citations)
	}
}

func TestStreamRunFailure(t *testing.T) {
	body := `event: thread.message.delta
data: {"id":"msg_1","object":"thread.message.delta","delta":{"content":[{"index":0,"type":"text","text":{"value":"par"}}]}}

event: thread.run.failed
data: {"id":"run_1","object":"thread.run","status":"failed","last_error":{"code":"server_error","message":"boom"}}

`
	r := newTestRemote(t, sseHandler(t, body))

	stream, err := r.StreamRun(context.Background(), "thread_1", "asst_1", "extra")
	if err != nil {
		t.Fatalf("StreamRun: %v", err)
	}
	defer stream.Close()

	n := 0
	for stream.Next() {
		n++
	}
	if n != 1 {
		t.Errorf("got %d events before failure, want 1", n)
	}
	if err := stream.Err(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Err() = %v, want run failure", err)
	}
}

func TestUploadFileSendsMultipart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestRemote(t, func(w http.ResponseWriter, req *http.Request) {
		if !strings.HasSuffix(req.URL.Path, "/files") {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		if got := req.FormValue("purpose"); got != "assistants" {
			t.Errorf("purpose = %q", got)
		}
		if _, hdr, err := req.FormFile("file"); err != nil || hdr.Filename != "notes.txt" {
			t.Errorf("file part = %v, %v", hdr, err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"file_1","object":"file","bytes":5,"created_at":1700000000,"filename":"notes.txt","purpose":"assistants","status":"processed"}`)
	})

	f, err := r.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if f.ID != "file_1" || f.Filename != "notes.txt" || f.Bytes != 5 {
		t.Errorf("unexpected file record %+v", f)
	}
}
