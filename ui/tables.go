package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"

	"assistui/model"
)

// cellPadding is the horizontal padding bubbles/table adds around each cell.
const cellPadding = 2

// assistantSource adapts a record list to fuzzy.Source.
type assistantSource []model.AssistantRecord

func (s assistantSource) String(i int) string {
	a := s[i]
	return a.Name + " " + a.Model + " " + a.ID
}

func (s assistantSource) Len() int { return len(s) }

// filterAssistants fuzzy-matches name, model and id. Best matches come first;
// an empty query keeps the list as is.
func filterAssistants(list []model.AssistantRecord, query string) []model.AssistantRecord {
	query = strings.TrimSpace(query)
	if query == "" {
		return list
	}
	matches := fuzzy.FindFrom(query, assistantSource(list))
	out := make([]model.AssistantRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out
}

// flexColumns sizes columns to fill width. Fixed columns keep their width;
// the rest share what is left by weight.
func flexColumns(width int, titles []string, fixed []int, weights []int) []table.Column {
	remaining := width - cellPadding*len(titles)
	totalWeight := 0
	for i := range titles {
		remaining -= fixed[i]
		totalWeight += weights[i]
	}
	if remaining < 0 {
		remaining = 0
	}

	cols := make([]table.Column, len(titles))
	for i, title := range titles {
		w := fixed[i]
		if weights[i] > 0 && totalWeight > 0 {
			w += remaining * weights[i] / totalWeight
		}
		if w < len(title) {
			w = len(title)
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func assistantColumns(width int) []table.Column {
	return flexColumns(width,
		[]string{"Name", "Model", "Tools", "Stores", "Created"},
		[]int{0, 0, 0, 6, 19},
		[]int{4, 2, 3, 0, 0},
	)
}

func assistantRows(list []model.AssistantRecord) []table.Row {
	rows := make([]table.Row, 0, len(list))
	for _, a := range list {
		name := a.Name
		if name == "" {
			name = a.ID
		}
		rows = append(rows, table.Row{
			name,
			a.Model,
			strings.Join(a.Tools, ", "),
			fmt.Sprint(len(a.VectorStoreIDs)),
			a.CreatedAtString(),
		})
	}
	return rows
}

func vectorStoreColumns(width int) []table.Column {
	return flexColumns(width,
		[]string{"Name", "ID", "Files", "Size", "Created"},
		[]int{0, 0, 16, 9, 19},
		[]int{3, 2, 0, 0, 0},
	)
}

func vectorStoreRows(stores []model.VectorStoreRecord) []table.Row {
	rows := make([]table.Row, 0, len(stores))
	for _, vs := range stores {
		rows = append(rows, table.Row{
			vs.Name,
			vs.ID,
			vs.FileCounts.String(),
			formatBytes(vs.UsageBytes),
			vs.CreatedAtString(),
		})
	}
	return rows
}

func fileColumns(width int) []table.Column {
	return flexColumns(width,
		[]string{"Filename", "ID", "Size", "Created"},
		[]int{0, 0, 9, 19},
		[]int{3, 2, 0, 0},
	)
}

func fileRows(files []model.FileRecord) []table.Row {
	rows := make([]table.Row, 0, len(files))
	for _, f := range files {
		rows = append(rows, table.Row{
			f.Filename,
			f.ID,
			formatBytes(f.Bytes),
			f.CreatedAtString(),
		})
	}
	return rows
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func newTable(cols []table.Column, rows []table.Row, height int, focused bool) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(focused),
	)
	t.SetStyles(tableStyles(focused))
	return t
}
