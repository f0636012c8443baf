package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"assistui/model"
)

type formKind int

const (
	formAPIKey formKind = iota
	formNewAssistant
	formNewVectorStore
	formUploadFiles
	formAttachStores
	formExport
	formRunInstructions
	formAttachFile
	formSearch
)

type formField struct {
	Label       string
	Placeholder string
	Value       string
	Secret      bool
}

// formState is a stack of labelled inputs with one focused at a time.
// Tab and shift+tab move focus; Enter submits from any field.
type formState struct {
	kind    formKind
	title   string
	hint    string
	labels  []string
	inputs  []textinput.Model
	focused int
	err     string
	// target is the id the form acts on, e.g. the upload vector store
	target string
}

func newForm(kind formKind, title string, fields ...formField) *formState {
	f := &formState{kind: kind, title: title}
	for i, field := range fields {
		var in textinput.Model
		if field.Secret {
			in = NewPassphraseInput(field.Placeholder)
		} else {
			in = textinput.New()
			in.Placeholder = field.Placeholder
			in.CharLimit = 0
		}
		in.Prompt = ""
		in.SetValue(field.Value)
		if i == 0 {
			in.Focus()
		}
		f.labels = append(f.labels, field.Label)
		f.inputs = append(f.inputs, in)
	}
	return f
}

func (f *formState) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *formState) setWidth(w int) {
	for i := range f.inputs {
		f.inputs[i].Width = w
	}
}

func (f *formState) move(delta int) {
	if len(f.inputs) == 0 {
		return
	}
	f.inputs[f.focused].Blur()
	f.focused = (f.focused + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focused].Focus()
}

// update forwards a message to the focused input.
func (f *formState) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (f *formState) clearFocused() {
	f.inputs[f.focused].SetValue("")
}

func (f *formState) render(width, height int) string {
	modalWidth := modalWidthFor(70, width)
	f.setWidth(modalWidth - 4)

	labelStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var lines []string
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focused {
			label = "› " + label
		} else {
			label = "  " + label
		}
		lines = append(lines, labelStyle.Render(leftTextLine(label, modalWidth)))
		lines = append(lines, "  "+in.View())
		lines = append(lines, "")
	}
	if f.hint != "" {
		for _, l := range strings.Split(wordWrap(f.hint, modalWidth-4), "\n") {
			lines = append(lines, DimStyle.Render("  "+l))
		}
	}
	if f.err != "" {
		lines = append(lines, "", ErrorStyle.Render("  ⚠ "+f.err))
	}

	footer := FormatFooter("Enter", "Submit", "Tab", "Next field", "Esc", "Cancel")
	return RenderThreeSectionModal(f.title, lines, footer, ModalTypeInfo, modalWidth, width, height)
}

// parseList splits a comma or newline separated list, dropping blanks.
func parseList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// assistantSpecFromForm builds and validates the create input.
func assistantSpecFromForm(f *formState) (model.AssistantSpec, error) {
	spec := model.AssistantSpec{
		Name:           f.value(0),
		Model:          f.value(1),
		Instructions:   f.value(2),
		Tools:          model.ParseTools(f.value(3)),
		VectorStoreIDs: parseList(f.value(4)),
	}
	if len(spec.VectorStoreIDs) > 0 && !containsString(spec.Tools, model.ToolFileSearch) {
		spec.Tools = append(spec.Tools, model.ToolFileSearch)
	}
	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newAPIKeyForm() *formState {
	f := newForm(formAPIKey, "OpenAI API Key",
		formField{Label: "API key", Placeholder: "sk-...", Secret: true},
	)
	f.hint = "The key is checked against the API before it is used."
	return f
}

func newAssistantForm(defaultModel, defaultInstructions string) *formState {
	return newForm(formNewAssistant, "New Assistant",
		formField{Label: "Name", Placeholder: "Financial Analyst"},
		formField{Label: "Model", Value: defaultModel, Placeholder: "gpt-4o-mini"},
		formField{Label: "Instructions", Value: defaultInstructions, Placeholder: "You are a helpful assistant."},
		formField{Label: "Tools", Value: model.ToolFileSearch, Placeholder: "file_search, code_interpreter"},
		formField{Label: "Vector store IDs", Placeholder: "vs_abc, vs_def (optional)"},
	)
}

func newVectorStoreForm() *formState {
	f := newForm(formNewVectorStore, "New Vector Store",
		formField{Label: "Name", Placeholder: "Financial Statements"},
	)
	f.hint = "The new store is attached to the selected assistant."
	return f
}

func newUploadForm(vs model.VectorStoreRecord) *formState {
	name := vs.Name
	if name == "" {
		name = vs.ID
	}
	f := newForm(formUploadFiles, fmt.Sprintf("Upload to %s", name),
		formField{Label: "File paths", Placeholder: "~/docs/report.pdf, ~/docs/notes.md"},
	)
	f.target = vs.ID
	f.hint = "Files are uploaded as one batch. Supported types include pdf, md, txt and docx."
	return f
}

func newAttachStoresForm(current []string) *formState {
	f := newForm(formAttachStores, "Attach Vector Stores",
		formField{Label: "Vector store IDs", Value: strings.Join(current, ", "), Placeholder: "vs_abc, vs_def"},
	)
	f.hint = "Replaces the assistant's vector stores and enables file_search."
	return f
}

func newExportForm(defaultPath string) *formState {
	return newForm(formExport, "Export Conversation",
		formField{Label: "Export path", Value: defaultPath},
	)
}

func newRunInstructionsForm(current string) *formState {
	f := newForm(formRunInstructions, "Run Instructions",
		formField{Label: "Additional instructions", Value: current, Placeholder: "Address the user as Jane Doe."},
	)
	f.hint = "Appended to the assistant's instructions for every run until cleared."
	return f
}

func newAttachFileForm(current string) *formState {
	f := newForm(formAttachFile, "Attach File",
		formField{Label: "File path", Value: current, Placeholder: "~/docs/report.pdf"},
	)
	f.hint = "Uploaded with the next message and searchable by file_search."
	return f
}

func newSearchForm() *formState {
	return newForm(formSearch, "Search Conversation",
		formField{Label: "Query", Placeholder: "text to find"},
	)
}
