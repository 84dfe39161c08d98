package confirm

import (
	"context"
	"math"
	"strconv"
	"time"

	"gitupdate/internal/command"
	"gitupdate/internal/debug"
	apperrors "gitupdate/internal/errors"
)

// DefaultToastHelper is the toast helper looked up on PATH when none is configured.
const DefaultToastHelper = "wintoast.exe"

// Exit statuses of the toast helper.
const (
	toastClicked         = 0
	toastDismissed       = 1
	toastTimedOut        = 2
	toastHidden          = 3
	toastNotActivated    = 4
	toastFailed          = 5
	toastUnsupported     = 6
	toastUnhandledOption = 7
	toastMultipleTexts   = 8
	toastInitFailed      = 9
	toastNotLaunched     = 10
	toastActionYes       = 16
	toastActionNo        = 17
)

// MapToastCode maps a toast helper exit status to an Outcome. The second
// result is false when the status carries no answer and another channel
// has to ask instead.
func MapToastCode(code int) (Outcome, bool) {
	//nolint:gosec // G115: -1 is reported as 255 or 0xFFFFFFFF depending on the platform
	if code == 255 || uint32(code) == math.MaxUint32 {
		return Declined, false
	}
	switch code {
	case toastActionYes:
		return Accepted, true
	case toastActionNo:
		return Declined, true
	case toastDismissed, toastTimedOut, toastHidden, toastNotActivated:
		return Ignored, true
	case toastClicked, toastFailed, toastUnsupported, toastUnhandledOption,
		toastMultipleTexts, toastInitFailed, toastNotLaunched:
		return Declined, false
	default:
		debug.Warnf("confirm: unexpected toast exit status %d", code)
		return Declined, false
	}
}

// ToastChannel asks through a Windows toast notification with Yes and No
// actions, shown by an external helper. Statuses without an answer fall
// back to another channel.
type ToastChannel struct {
	runner   command.Runner
	helper   string
	expire   time.Duration
	fallback Channel
}

// NewToastChannel creates a ToastChannel running helper. fallback may be nil.
func NewToastChannel(runner command.Runner, helper string, expire time.Duration, fallback Channel) *ToastChannel {
	return &ToastChannel{runner: runner, helper: helper, expire: expire, fallback: fallback}
}

// Name implements Channel.
func (t *ToastChannel) Name() string { return "toast" }

// Interactive implements Channel.
func (t *ToastChannel) Interactive() bool { return true }

// Confirm implements Channel.
func (t *ToastChannel) Confirm(ctx context.Context, p Prompt) (Outcome, error) {
	args := []string{
		"--appname", p.Title,
		"--text", p.Text(),
		"--action", "Yes",
		"--action", "No",
	}
	if t.expire > 0 {
		args = append(args, "--expirems", strconv.FormatInt(t.expire.Milliseconds(), 10))
	}

	_, err := t.runner.Run(ctx, t.helper, args...)
	code, ran := command.ExitCode(err)
	if !ran {
		debug.Logf("confirm: toast helper %s did not run: %v", t.helper, err)
		return t.fallBack(ctx, p, -1)
	}

	outcome, answered := MapToastCode(code)
	debug.LogFields(debug.Fields{"status": code, "outcome": outcome.String(), "answered": answered}, "confirm: toast finished")
	if answered {
		return outcome, nil
	}
	return t.fallBack(ctx, p, code)
}

func (t *ToastChannel) fallBack(ctx context.Context, p Prompt, code int) (Outcome, error) {
	if t.fallback == nil {
		return Ignored, apperrors.New(apperrors.CodeConfirmationAmbiguous,
			"toast status "+strconv.Itoa(code)+" carries no answer", nil)
	}
	return t.fallback.Confirm(ctx, p)
}

// ToastAvailable reports whether toasts can be shown and returns the
// resolved helper path. Toasts need Windows 10 or later and the helper.
func ToastAvailable(helper string, lookPath command.LookPathFunc) (string, bool) {
	if !toastSupported() {
		return "", false
	}
	if helper == "" {
		helper = DefaultToastHelper
	}
	path, err := lookPath(helper)
	if err != nil {
		debug.Logf("confirm: toast helper %s not found: %v", helper, err)
		return "", false
	}
	return path, true
}
