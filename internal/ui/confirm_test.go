package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func pressRune(m *ConfirmModel, r rune) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	return cmd
}

func TestConfirmModelAnswers(t *testing.T) {
	tests := []struct {
		name   string
		msg    tea.KeyMsg
		accept bool
	}{
		{"yes", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}}, true},
		{"no", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}}, false},
		{"enter defaults to no", tea.KeyMsg{Type: tea.KeyEnter}, false},
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfirmModel(PromptView{Question: "Install?"})
			_, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if !m.Done() {
				t.Fatal("expected model to be done")
			}
			if m.Accepted() != tt.accept {
				t.Fatalf("Accepted() = %v, want %v", m.Accepted(), tt.accept)
			}
		})
	}
}

func TestConfirmModelIgnoresOtherKeys(t *testing.T) {
	m := NewConfirmModel(PromptView{Question: "Install?"})
	if cmd := pressRune(m, 'x'); cmd != nil {
		t.Fatal("expected no command for unbound key")
	}
	if m.Done() {
		t.Fatal("model should still be waiting")
	}
}

func TestConfirmModelView(t *testing.T) {
	PlainOutput()
	m := NewConfirmModel(PromptView{
		Title:    "Git for Windows",
		Question: "Git for Windows 2.42.0 is available. Install it?",
		Warning:  "Warning: this will close all open Git Bash sessions, killing one session.",
	})

	view := m.View()
	for _, want := range []string{"Git for Windows", "Install it?", "killing one session", "install", "not now"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	pressRune(m, 'y')
	if !strings.Contains(m.View(), "Installing update") {
		t.Errorf("expected final view to confirm install, got %q", m.View())
	}
}

func TestConfirmModelWrapsToWindow(t *testing.T) {
	PlainOutput()
	m := NewConfirmModel(PromptView{Question: strings.Repeat("long ", 30)})
	m.Update(tea.WindowSizeMsg{Width: 30, Height: 10})

	for _, line := range strings.Split(m.View(), "\n") {
		if lipgloss.Width(strings.TrimRight(line, " ")) > 30 {
			t.Fatalf("line exceeds window width: %q", line)
		}
	}
}
