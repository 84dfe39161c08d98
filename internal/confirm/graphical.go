package confirm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"gitupdate/internal/command"
	"gitupdate/internal/debug"
)

// ErrNoDialog reports that no graphical dialog can be shown.
var ErrNoDialog = errors.New("no graphical dialog available")

// Dialog shows a modal yes/no question.
type Dialog interface {
	AskYesNo(ctx context.Context, title, message string) (bool, error)
}

// GraphicalChannel asks through a modal dialog and falls back to another
// channel (normally the terminal) when no dialog can be shown.
type GraphicalChannel struct {
	dialog   Dialog
	fallback Channel
}

// NewGraphicalChannel creates a GraphicalChannel. fallback may be nil.
func NewGraphicalChannel(dialog Dialog, fallback Channel) *GraphicalChannel {
	return &GraphicalChannel{dialog: dialog, fallback: fallback}
}

// Name implements Channel.
func (g *GraphicalChannel) Name() string { return "graphical" }

// Interactive implements Channel.
func (g *GraphicalChannel) Interactive() bool { return true }

// Confirm implements Channel.
func (g *GraphicalChannel) Confirm(ctx context.Context, p Prompt) (Outcome, error) {
	yes, err := g.dialog.AskYesNo(ctx, p.Title, p.Text())
	if err != nil {
		if g.fallback == nil {
			return Declined, err
		}
		debug.Logf("confirm: dialog unavailable (%v), falling back to %s", err, g.fallback.Name())
		return g.fallback.Confirm(ctx, p)
	}
	if yes {
		return Accepted, nil
	}
	return Declined, nil
}

// HelperDialog runs a configured helper as "<helper> --title <title> <message>".
// Exit status 0 means yes and 1 means no.
type HelperDialog struct {
	runner command.Runner
	helper string
}

// NewHelperDialog creates a HelperDialog for the given command.
func NewHelperDialog(runner command.Runner, helper string) *HelperDialog {
	return &HelperDialog{runner: runner, helper: helper}
}

// AskYesNo implements Dialog.
func (h *HelperDialog) AskYesNo(ctx context.Context, title, message string) (bool, error) {
	bin, args := command.Split(h.helper)
	if bin == "" {
		return false, ErrNoDialog
	}
	args = append(args, "--title", title, message)
	_, err := h.runner.Run(ctx, bin, args...)
	code, ran := command.ExitCode(err)
	switch {
	case !ran:
		return false, fmt.Errorf("%w: %s: %v", ErrNoDialog, bin, err)
	case code == 0:
		return true, nil
	case code == 1:
		return false, nil
	default:
		return false, fmt.Errorf("%s exited with status %d", bin, code)
	}
}

// dialogTool describes a command line dialog program.
type dialogTool struct {
	bin  string
	args func(title, message string) []string
	// yes interprets the output of a run that exited 0.
	yes func(out string) bool
}

var (
	osascriptTool = dialogTool{
		bin: "osascript",
		args: func(title, message string) []string {
			script := fmt.Sprintf(`display dialog %q with title %q buttons {"No", "Yes"} default button "Yes" with icon caution`,
				message, title)
			return []string{"-e", script}
		},
		yes: func(out string) bool {
			return strings.Contains(out, "button returned:Yes")
		},
	}
	zenityTool = dialogTool{
		bin: "zenity",
		args: func(title, message string) []string {
			return []string{"--question", "--title", title, "--text", message}
		},
	}
	kdialogTool = dialogTool{
		bin: "kdialog",
		args: func(title, message string) []string {
			return []string{"--title", title, "--yesno", message}
		},
	}
)

// toolDialog shows the first available dialogTool.
type toolDialog struct {
	runner   command.Runner
	lookPath command.LookPathFunc
	getenv   func(string) string
	tools    []dialogTool
	// needsDisplay requires an X11 or Wayland display.
	needsDisplay bool
}

func newToolDialog(runner command.Runner, needsDisplay bool, tools ...dialogTool) *toolDialog {
	return &toolDialog{
		runner:       runner,
		lookPath:     exec.LookPath,
		getenv:       os.Getenv,
		tools:        tools,
		needsDisplay: needsDisplay,
	}
}

// AskYesNo implements Dialog.
func (d *toolDialog) AskYesNo(ctx context.Context, title, message string) (bool, error) {
	if d.needsDisplay && d.getenv("DISPLAY") == "" && d.getenv("WAYLAND_DISPLAY") == "" {
		return false, ErrNoDialog
	}
	for _, tool := range d.tools {
		path, err := d.lookPath(tool.bin)
		if err != nil {
			continue
		}
		out, err := d.runner.Run(ctx, path, tool.args(title, message)...)
		code, ran := command.ExitCode(err)
		switch {
		case !ran:
			debug.Logf("confirm: %s failed to run: %v", tool.bin, err)
			continue
		case code == 0:
			if tool.yes != nil {
				return tool.yes(string(out)), nil
			}
			return true, nil
		case code == 1:
			return false, nil
		default:
			return false, fmt.Errorf("%s exited with status %d", tool.bin, code)
		}
	}
	return false, ErrNoDialog
}
