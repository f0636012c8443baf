package provider

import (
	"testing"

	"github.com/openai/openai-go/v3"

	"assistui/model"
)

func TestToolParams(t *testing.T) {
	tests := []struct {
		name       string
		input      []string
		wantSearch int
		wantCode   int
	}{
		{name: "none", input: nil},
		{name: "file search", input: []string{model.ToolFileSearch}, wantSearch: 1},
		{name: "both", input: []string{model.ToolCodeInterpreter, model.ToolFileSearch}, wantSearch: 1, wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := toolParams(tt.input)
			if len(params) != len(tt.input) {
				t.Fatalf("got %d params, want %d", len(params), len(tt.input))
			}

			search, code := 0, 0
			for _, p := range params {
				if p.OfFileSearch != nil {
					search++
				}
				if p.OfCodeInterpreter != nil {
					code++
				}
			}
			if search != tt.wantSearch || code != tt.wantCode {
				t.Errorf("file_search=%d code_interpreter=%d, want %d/%d", search, code, tt.wantSearch, tt.wantCode)
			}
		})
	}
}

func TestConvertMessage(t *testing.T) {
	tests := []struct {
		name          string
		msg           openai.Message
		wantText      string
		wantCitations []model.Citation
	}{
		{
			name:     "plain text",
			msg:      openai.Message{ID: "msg_1", Content: []openai.MessageContentUnion{{Type: "text", Text: openai.Text{Value: "hi"}}}},
			wantText: "hi",
		},
		{
			name: "skips non-text blocks",
			msg: openai.Message{ID: "msg_2", Content: []openai.MessageContentUnion{
				{Type: "image_file"},
				{Type: "text", Text: openai.Text{Value: "second"}},
				{Type: "text", Text: openai.Text{Value: "third"}},
			}},
			wantText: "second",
		},
		{
			name: "file citations",
			msg: openai.Message{ID: "msg_3", Content: []openai.MessageContentUnion{{
				Type: "text",
				Text: openai.Text{
					Value: "see [a] and [b]",
					Annotations: []openai.AnnotationUnion{
						{Type: "file_citation", Text: "[a]", FileCitation: openai.FileCitationAnnotationFileCitation{FileID: "file_a"}},
						{Type: "file_path", Text: "[b]"},
					},
				},
			}}},
			wantText: "see [a] and [b]",
			wantCitations: []model.Citation{
				{Index: 0, Marker: "[a]", FileID: "file_a"},
				{Index: 1, Marker: "[b]"},
			},
		},
		{
			name: "no content",
			msg:  openai.Message{ID: "msg_4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convertMessage(tt.msg)
			if got.ID != tt.msg.ID {
				t.Errorf("ID = %q, want %q", got.ID, tt.msg.ID)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if len(got.Citations) != len(tt.wantCitations) {
				t.Fatalf("got %d citations, want %d", len(got.Citations), len(tt.wantCitations))
			}
			for i, c := range tt.wantCitations {
				if got.Citations[i] != c {
					t.Errorf("citation %d = %+v, want %+v", i, got.Citations[i], c)
				}
			}
		})
	}
}

func TestConvertVectorStore(t *testing.T) {
	vs := openai.VectorStore{
		ID:           "vs_1",
		Name:         "docs",
		CreatedAt:    1700000000,
		LastActiveAt: 1700000600,
		UsageBytes:   2048,
		Status:       openai.VectorStoreStatusCompleted,
		FileCounts: openai.VectorStoreFileCounts{
			Completed: 3,
			Failed:    1,
			Total:     4,
		},
	}

	got := convertVectorStore(vs)
	if got.ID != "vs_1" || got.Name != "docs" || got.Status != "completed" || got.UsageBytes != 2048 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.FileCounts.Completed != 3 || got.FileCounts.Failed != 1 || got.FileCounts.Total != 4 {
		t.Errorf("file counts = %+v", got.FileCounts)
	}
	if got.LastActiveAt.Unix() != 1700000600 {
		t.Errorf("last active = %v", got.LastActiveAt)
	}
}
