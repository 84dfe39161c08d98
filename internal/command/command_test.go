package command

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   int
		wantOK bool
	}{
		{"nil", nil, 0, true},
		{"stub exit", ExitError{Code: 16}, 16, true},
		{"wrapped stub exit", fmt.Errorf("toast: %w", ExitError{Code: 2}), 2, true},
		{"negative", ExitError{Code: -1}, -1, true},
		{"not started", errors.New("executable file not found"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExitCode(tt.err)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExitCode() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	if got := (ExitError{Code: 17}).Error(); got != "exit status 17" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSplit(t *testing.T) {
	bin, args := Split("  git   --version ")
	if bin != "git" || len(args) != 1 || args[0] != "--version" {
		t.Errorf("Split() = %q, %q", bin, args)
	}
	if bin, args := Split(""); bin != "" || args != nil {
		t.Errorf("Split(\"\") = %q, %q", bin, args)
	}
}
