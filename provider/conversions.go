package provider

import (
	"github.com/openai/openai-go/v3"

	"assistui/model"
)

// convertAssistant maps an SDK assistant onto the local record.
func convertAssistant(a openai.Assistant) model.AssistantRecord {
	tools := make([]string, 0, len(a.Tools))
	for _, t := range a.Tools {
		tools = append(tools, t.Type)
	}

	return model.AssistantRecord{
		ID:             a.ID,
		Name:           a.Name,
		Instructions:   a.Instructions,
		Tools:          tools,
		Model:          a.Model,
		VectorStoreIDs: append([]string{}, a.ToolResources.FileSearch.VectorStoreIDs...),
		CreatedAt:      model.UnixTime(a.CreatedAt),
	}
}

// toolParams converts tool names into SDK tool params. Callers validate names first.
func toolParams(names []string) []openai.AssistantToolUnionParam {
	if len(names) == 0 {
		return nil
	}

	params := make([]openai.AssistantToolUnionParam, 0, len(names))
	for _, n := range names {
		switch n {
		case model.ToolFileSearch:
			params = append(params, openai.AssistantToolUnionParam{OfFileSearch: &openai.FileSearchToolParam{}})
		case model.ToolCodeInterpreter:
			params = append(params, openai.AssistantToolUnionParam{OfCodeInterpreter: &openai.CodeInterpreterToolParam{}})
		}
	}
	return params
}

func convertVectorStore(vs openai.VectorStore) model.VectorStoreRecord {
	return model.VectorStoreRecord{
		ID:         vs.ID,
		Name:       vs.Name,
		Status:     string(vs.Status),
		UsageBytes: vs.UsageBytes,
		FileCounts: model.FileCounts{
			InProgress: vs.FileCounts.InProgress,
			Completed:  vs.FileCounts.Completed,
			Failed:     vs.FileCounts.Failed,
			Cancelled:  vs.FileCounts.Cancelled,
			Total:      vs.FileCounts.Total,
		},
		CreatedAt:    model.UnixTime(vs.CreatedAt),
		LastActiveAt: model.UnixTime(vs.LastActiveAt),
	}
}

func convertFileBatch(b openai.VectorStoreFileBatch) model.FileBatch {
	return model.FileBatch{
		ID:            b.ID,
		VectorStoreID: b.VectorStoreID,
		Status:        string(b.Status),
		FileCounts: model.FileCounts{
			InProgress: b.FileCounts.InProgress,
			Completed:  b.FileCounts.Completed,
			Failed:     b.FileCounts.Failed,
			Cancelled:  b.FileCounts.Cancelled,
			Total:      b.FileCounts.Total,
		},
		CreatedAt: model.UnixTime(b.CreatedAt),
	}
}

func convertFile(f openai.FileObject) model.FileRecord {
	return model.FileRecord{
		ID:        f.ID,
		Filename:  f.Filename,
		Bytes:     f.Bytes,
		CreatedAt: model.UnixTime(f.CreatedAt),
	}
}

// convertMessage extracts the first text block of a completed message and
// its file citations. Citation text is not rewritten here; the session
// layer replaces it with index markers once filenames are resolved.
func convertMessage(m openai.Message) model.CompletedMessage {
	out := model.CompletedMessage{ID: m.ID}

	for _, c := range m.Content {
		if c.Type != "text" {
			continue
		}
		out.Text = c.Text.Value
		for i, ann := range c.Text.Annotations {
			cit := model.Citation{Index: i, Marker: ann.Text}
			if ann.Type == "file_citation" {
				cit.FileID = ann.FileCitation.FileID
			}
			out.Citations = append(out.Citations, cit)
		}
		break
	}
	return out
}
