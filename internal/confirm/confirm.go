// Package confirm asks the user whether to install an update.
//
// Exactly one Channel is chosen at startup (see Select). Every channel
// reduces its answer to an Outcome:
//
//   - Accepted: install now.
//   - Declined: the user said no; the version is remembered so quiet runs
//     stop asking about it.
//   - Ignored: the question went unanswered (a toast that timed out or was
//     dismissed); nothing is remembered.
package confirm

import (
	"context"
	"strings"
)

// Outcome is the reduced answer of a confirmation channel.
type Outcome int

const (
	Declined Outcome = iota
	Accepted
	Ignored
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Ignored:
		return "ignored"
	default:
		return "declined"
	}
}

// Prompt is the question put to the user.
type Prompt struct {
	// Title names the host application, e.g. "Git for Windows".
	Title string
	// Question asks whether to install, e.g. "Git for Windows 2.42.0 is available. Install it?".
	Question string
	// Warning names the sessions that installing would close. Empty when none.
	Warning string
	// Notes is the markdown release body. Only the terminal shows it.
	Notes string
}

// Text joins question and warning for channels that show a single message.
func (p Prompt) Text() string {
	if strings.TrimSpace(p.Warning) == "" {
		return p.Question
	}
	return p.Question + "\n\n" + p.Warning
}

// Channel obtains consent from the user.
type Channel interface {
	Confirm(ctx context.Context, p Prompt) (Outcome, error)
	// Name identifies the channel in logs.
	Name() string
	// Interactive reports whether a person sees the prompt. The session
	// warning is only computed for interactive channels.
	Interactive() bool
}

// AutoChannel accepts without asking. Used for --yes.
type AutoChannel struct{}

// Confirm implements Channel.
func (AutoChannel) Confirm(context.Context, Prompt) (Outcome, error) {
	return Accepted, nil
}

// Name implements Channel.
func (AutoChannel) Name() string { return "auto" }

// Interactive implements Channel.
func (AutoChannel) Interactive() bool { return false }
