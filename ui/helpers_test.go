package ui

import (
	"fmt"
	"strings"
	"testing"

	"assistui/model"
	"assistui/storage"
)

func TestFilterAssistants(t *testing.T) {
	list := []model.AssistantRecord{
		{ID: "asst_1", Name: "financial analyst", Model: "gpt-4o"},
		{ID: "asst_2", Name: "code reviewer", Model: "gpt-4o-mini"},
		{ID: "asst_3", Name: "travel planner", Model: "gpt-4-turbo"},
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty query keeps order", query: "", want: []string{"asst_1", "asst_2", "asst_3"}},
		{name: "blank query keeps order", query: "   ", want: []string{"asst_1", "asst_2", "asst_3"}},
		{name: "name match", query: "review", want: []string{"asst_2"}},
		{name: "id match", query: "asst_3", want: []string{"asst_3"}},
		{name: "no match", query: "zzzz", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ids []string
			for _, a := range filterAssistants(list, tt.query) {
				ids = append(ids, a.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.want) {
				t.Errorf("filterAssistants(%q) = %v, want %v", tt.query, ids, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: []string{}},
		{in: "vs_1", want: []string{"vs_1"}},
		{in: "vs_1, vs_2 ,,vs_3", want: []string{"vs_1", "vs_2", "vs_3"}},
		{in: "~/a.pdf\n~/b.md", want: []string{"~/a.pdf", "~/b.md"}},
	}
	for _, tt := range tests {
		got := parseList(tt.in)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("parseList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAssistantSpecFromForm(t *testing.T) {
	tests := []struct {
		name      string
		values    []string
		wantTools []string
		wantErr   bool
	}{
		{
			name:      "defaults",
			values:    []string{"Analyst", "gpt-4o", "Be brief.", "file_search", ""},
			wantTools: []string{"file_search"},
		},
		{
			name:      "store ids enable file search",
			values:    []string{"Coder", "gpt-4o", "", "code_interpreter", "vs_1, vs_2"},
			wantTools: []string{"code_interpreter", "file_search"},
		},
		{
			name:    "missing model",
			values:  []string{"Analyst", "", "", "", ""},
			wantErr: true,
		},
		{
			name:    "unknown tool",
			values:  []string{"Analyst", "gpt-4o", "", "function", ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAssistantForm("", "")
			for i, v := range tt.values {
				f.inputs[i].SetValue(v)
			}
			spec, err := assistantSpecFromForm(f)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if fmt.Sprint(spec.Tools) != fmt.Sprint(tt.wantTools) {
				t.Errorf("tools = %v, want %v", spec.Tools, tt.wantTools)
			}
			if spec.Name != tt.values[0] || spec.Model != tt.values[1] {
				t.Errorf("spec = %+v", spec)
			}
		})
	}
}

func TestTruncateAndWrap(t *testing.T) {
	truncTests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "hello", width: 10, want: "hello"},
		{in: "hello world", width: 5, want: "hell…"},
		{in: "hello", width: 0, want: ""},
	}
	for _, tt := range truncTests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}

	wrapTests := []struct {
		in    string
		width int
		want  string
	}{
		{in: "a bb ccc", width: 4, want: "a bb\nccc"},
		{in: "one\ntwo three", width: 5, want: "one\ntwo\nthree"},
		{in: "unchanged", width: 0, want: "unchanged"},
	}
	for _, tt := range wrapTests {
		if got := wordWrap(tt.in, tt.width); got != tt.want {
			t.Errorf("wordWrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}

	if got := leftTextLine("ab", 4); got != "ab  " {
		t.Errorf("leftTextLine = %q", got)
	}
}

func TestFlexColumns(t *testing.T) {
	cols := flexColumns(100, []string{"Name", "Size"}, []int{0, 10}, []int{1, 0})
	if cols[0].Width != 86 || cols[1].Width != 10 {
		t.Errorf("widths = %d, %d, want 86, 10", cols[0].Width, cols[1].Width)
	}

	// Columns never shrink below their title
	cols = flexColumns(4, []string{"Filename", "ID"}, []int{0, 0}, []int{1, 1})
	if cols[0].Width != len("Filename") || cols[1].Width != len("ID") {
		t.Errorf("narrow widths = %d, %d", cols[0].Width, cols[1].Width)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "-"},
		{n: -5, want: "-"},
		{n: 512, want: "512 B"},
		{n: 2_000_000, want: "2.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatFooter(t *testing.T) {
	footer := FormatFooter("Enter", "Submit", "Esc", "Cancel", "dangling")
	for _, want := range []string{"Enter", "Submit", "Esc", "Cancel"} {
		if !strings.Contains(footer, want) {
			t.Errorf("footer %q missing %q", footer, want)
		}
	}
	if strings.Contains(footer, "dangling") {
		t.Errorf("footer %q kept an unpaired key", footer)
	}
}

func TestReplyContent(t *testing.T) {
	cits := []model.Citation{{Index: 1, Marker: "[1]", FileID: "file_1", Filename: "goog-10k.pdf"}}

	tests := []struct {
		name      string
		streamed  string
		completed *model.CompletedMessage
		citations []model.Citation
		want      string
	}{
		{name: "streamed only", streamed: "Revenue grew.", want: "Revenue grew."},
		{
			name:      "completed text wins",
			streamed:  "Revenue grew【4:0†source】.",
			completed: &model.CompletedMessage{Text: "Revenue grew [1]."},
			citations: cits,
			want:      "Revenue grew [1].\n\n[1] goog-10k.pdf",
		},
		{
			name:      "empty completed text",
			streamed:  "partial",
			completed: &model.CompletedMessage{},
			want:      "partial",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := replyContent(tt.streamed, tt.completed, tt.citations); got != tt.want {
				t.Errorf("replyContent = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFindMessage(t *testing.T) {
	msgs := []chatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "hi"},
	}
	if got := findMessage(msgs, model.RoleUser, "hi"); got != 2 {
		t.Errorf("findMessage = %d, want newest match 2", got)
	}
	if got := findMessage(msgs, model.RoleAssistant, "hi"); got != -1 {
		t.Errorf("findMessage with wrong role = %d, want -1", got)
	}
}

func TestSearchStateMove(t *testing.T) {
	s := &searchState{matches: make([]storage.TurnMatch, 3)}
	steps := []struct {
		delta int
		want  int
	}{
		{delta: 1, want: 1},
		{delta: 1, want: 2},
		{delta: 1, want: 0},
		{delta: -1, want: 2},
	}
	for _, step := range steps {
		s.move(step.delta)
		if s.selected != step.want {
			t.Fatalf("after move(%d) selected = %d, want %d", step.delta, s.selected, step.want)
		}
	}

	empty := &searchState{}
	empty.move(1)
	if _, ok := empty.current(); ok {
		t.Error("empty search should have no current match")
	}
}

func TestEventRelayWithoutProgram(t *testing.T) {
	r := NewEventRelay()
	// Must not panic before a program is attached
	r.OnEvent(model.ToolCallCreated(model.ToolCall{ID: "call_1", Type: model.ToolFileSearch}))
}
