package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"gitupdate/internal/ui"
	"gitupdate/internal/update"
)

const (
	defaultSpinnerInterval = 120 * time.Millisecond
	defaultSpinnerDelay    = 300 * time.Millisecond
)

type spinnerEvent struct {
	state  update.State
	detail string
}

// stageSpinner shows the current update state on a single terminal line
// while network calls block.
type stageSpinner struct {
	writer        io.Writer
	delay         time.Duration
	frameInterval time.Duration
	frames        []rune

	events chan spinnerEvent
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu       sync.Mutex
	frameIdx int
}

func newStageSpinner(w io.Writer, delay time.Duration) *stageSpinner {
	return newCustomStageSpinner(w, delay, defaultSpinnerInterval)
}

func newCustomStageSpinner(w io.Writer, delay, frameInterval time.Duration) *stageSpinner {
	if w == nil {
		w = io.Discard
	}
	sp := &stageSpinner{
		writer:        w,
		delay:         delay,
		frameInterval: frameInterval,
		frames:        []rune{'|', '/', '-', '\\'},
		events:        make(chan spinnerEvent, 8),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go sp.loop()
	return sp
}

func (s *stageSpinner) Stage(state update.State, detail string) {
	if s == nil {
		return
	}
	select {
	case <-s.stopCh:
		return
	default:
	}
	select {
	case s.events <- spinnerEvent{state: state, detail: detail}:
	default:
	}
}

func (s *stageSpinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *stageSpinner) loop() {
	defer close(s.doneCh)

	var delayCh <-chan time.Time
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		delayCh = timer.C
	}

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	var current spinnerEvent
	hasStage := false
	visible := s.delay == 0

	for {
		select {
		case <-s.stopCh:
			if visible {
				s.clearLine()
			}
			return
		case ev := <-s.events:
			current = ev
			hasStage = true
			if visible {
				s.render(current)
			}
		case <-ticker.C:
			if visible && hasStage {
				s.render(current)
			}
		case <-delayCh:
			delayCh = nil
			if hasStage {
				visible = true
				s.render(current)
			}
		}
	}
}

func (s *stageSpinner) render(ev spinnerEvent) {
	frame := s.nextFrame()
	message := formatStageMessage(ev.state, ev.detail)
	_, _ = fmt.Fprintf(s.writer, "\r\033[2K%c %s", frame, ui.StageLine(message))
}

func (s *stageSpinner) clearLine() {
	_, _ = fmt.Fprint(s.writer, "\r\033[2K")
}

func (s *stageSpinner) nextFrame() rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.frames[s.frameIdx%len(s.frames)]
	s.frameIdx++
	return frame
}

var stageMessages = map[update.State]string{
	update.StateResolveProxy:       "Reading proxy settings...",
	update.StateFetchLatestVersion: "Checking for the latest version...",
	update.StateCompareVersions:    "Comparing versions...",
	update.StateNeedsPrompt:        "Fetching release information...",
	update.StateDownload:           "Downloading installer...",
	update.StateInstall:            "Starting installer...",
	update.StateTerminateSiblings:  "Closing shell sessions...",
}

func formatStageMessage(state update.State, detail string) string {
	msg := stageMessages[state]
	if strings.TrimSpace(msg) == "" {
		msg = "Working..."
	}
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return msg
	}
	return fmt.Sprintf("%s - %s", msg, detail)
}

// formatProgress renders download progress as "12.3 MB / 45.6 MB (27%)",
// or just the byte count when the size is unknown.
func formatProgress(written, total int64) string {
	if total <= 0 {
		return formatMegabytes(written)
	}
	pct := written * 100 / total
	return fmt.Sprintf("%s / %s (%d%%)", formatMegabytes(written), formatMegabytes(total), pct)
}

func formatMegabytes(n int64) string {
	return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
}

// stageReporter feeds orchestrator states to a spinner. The spinner is
// hidden while the user is asked for confirmation and brought back for the
// download.
type stageReporter struct {
	factory func() spinnerHandle

	mu      sync.Mutex
	current spinnerHandle
}

type spinnerHandle interface {
	Stage(state update.State, detail string)
	Stop()
}

func newStageReporter(factory func() spinnerHandle) *stageReporter {
	return &stageReporter{factory: factory}
}

func (r *stageReporter) OnState(state update.State) {
	if r == nil || r.factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	switch state {
	case update.StateConfirm, update.StateUpToDate, update.StateSuppressed,
		update.StateDeclined, update.StateIgnored, update.StateFailed:
		r.stopLocked()
		return
	case update.StateAccepted:
		return
	}
	if r.current == nil {
		r.current = r.factory()
	}
	r.current.Stage(state, "")
}

func (r *stageReporter) OnProgress(written, total int64) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.current.Stage(update.StateDownload, formatProgress(written, total))
	}
}

func (r *stageReporter) Stop() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *stageReporter) stopLocked() {
	if r.current != nil {
		r.current.Stop()
		r.current = nil
	}
}
