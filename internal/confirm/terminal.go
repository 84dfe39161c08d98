package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"gitupdate/internal/ui"
)

// TerminalChannel asks on the terminal. On a TTY it runs a single-key
// prompt; otherwise it reads one line from the input.
type TerminalChannel struct {
	in          io.Reader
	out         io.Writer
	interactive bool

	// run is a function variable to allow overriding in tests.
	run func(ctx context.Context, in io.Reader, out io.Writer, view ui.PromptView) (bool, error)
}

// NewTerminalChannel creates a TerminalChannel reading in and writing out.
func NewTerminalChannel(in io.Reader, out io.Writer, interactive bool) *TerminalChannel {
	return &TerminalChannel{
		in:          in,
		out:         out,
		interactive: interactive,
		run:         ui.RunConfirm,
	}
}

// StdioInteractive reports whether both stdin and stdout are terminals.
func StdioInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Name implements Channel.
func (t *TerminalChannel) Name() string { return "terminal" }

// Interactive implements Channel.
func (t *TerminalChannel) Interactive() bool { return true }

// Confirm implements Channel.
func (t *TerminalChannel) Confirm(ctx context.Context, p Prompt) (Outcome, error) {
	if t.interactive {
		yes, err := t.run(ctx, t.in, t.out, ui.PromptView{
			Title:    p.Title,
			Question: p.Question,
			Warning:  p.Warning,
			Notes:    p.Notes,
		})
		if err != nil {
			return Declined, err
		}
		if yes {
			return Accepted, nil
		}
		return Declined, nil
	}
	return t.confirmLine(p)
}

func (t *TerminalChannel) confirmLine(p Prompt) (Outcome, error) {
	if _, err := fmt.Fprintf(t.out, "%s [y/N] ", p.Text()); err != nil {
		return Declined, fmt.Errorf("write prompt: %w", err)
	}
	line, err := bufio.NewReader(t.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return Declined, fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) {
		_, _ = fmt.Fprintln(t.out)
	}
	return ParseAnswer(line), nil
}

// ParseAnswer reduces a typed answer to an Outcome. Only an explicit yes
// accepts; anything else, including an empty line, declines.
func ParseAnswer(line string) Outcome {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return Accepted
	default:
		return Declined
	}
}
