package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
)

// PromptView is what the confirmation prompt shows.
type PromptView struct {
	Title    string
	Question string
	Warning  string
	// Notes is markdown, rendered with glamour above the question.
	Notes string
}

// ConfirmModel is a yes/no question answered with a single key press.
type ConfirmModel struct {
	view     PromptView
	keys     KeyMap
	width    int
	done     bool
	accepted bool
	notes    string
}

// NewConfirmModel creates a prompt for view.
func NewConfirmModel(view PromptView) *ConfirmModel {
	m := &ConfirmModel{
		view:  view,
		keys:  DefaultKeyMap(),
		width: DefaultWidth,
	}
	m.renderNotes()
	return m
}

// Accepted reports whether the user answered yes.
func (m *ConfirmModel) Accepted() bool {
	return m.accepted
}

// Done reports whether the user answered at all.
func (m *ConfirmModel) Done() bool {
	return m.done
}

// Init implements tea.Model.
func (m *ConfirmModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 && msg.Width != m.width {
			m.width = msg.Width
			m.renderNotes()
		}
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Yes):
			m.done, m.accepted = true, true
			return m, tea.Quit
		case key.Matches(msg, m.keys.No), key.Matches(msg, m.keys.Enter), key.Matches(msg, m.keys.Quit):
			m.done, m.accepted = true, false
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *ConfirmModel) View() string {
	if m.done {
		if m.accepted {
			return styleAccepted.Render("Installing update.") + "\n"
		}
		return styleDeclined.Render("Update skipped.") + "\n"
	}

	var b strings.Builder
	if m.view.Title != "" {
		b.WriteString(styleTitle.Render(m.view.Title))
		b.WriteString("\n\n")
	}
	if m.notes != "" {
		b.WriteString(m.notes)
		b.WriteString("\n\n")
	}
	b.WriteString(styleQuestion.Render(wordwrap.String(m.view.Question, m.width)))
	b.WriteString("\n")
	if m.view.Warning != "" {
		b.WriteString(styleWarning.Render(wordwrap.String(m.view.Warning, m.width)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleHint.Render(fmt.Sprintf("%s %s  %s %s",
		styleKey.Render(m.keys.Yes.Help().Key), m.keys.Yes.Help().Desc,
		styleKey.Render(m.keys.No.Help().Key), m.keys.No.Help().Desc)))
	b.WriteString("\n")
	return b.String()
}

func (m *ConfirmModel) renderNotes() {
	if strings.TrimSpace(m.view.Notes) == "" {
		m.notes = ""
		return
	}
	m.notes = RenderReleaseNotes(m.view.Notes, m.width, "")
}

// RunConfirm shows the prompt on a terminal and waits for an answer. A
// prompt closed without an answer counts as no.
func RunConfirm(ctx context.Context, in io.Reader, out io.Writer, view PromptView) (bool, error) {
	program := tea.NewProgram(
		NewConfirmModel(view),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("run prompt: %w", err)
	}
	m, ok := final.(*ConfirmModel)
	if !ok {
		return false, nil
	}
	return m.Accepted(), nil
}
