package update

import (
	"context"
	"testing"

	"gitupdate/internal/command"
	apperrors "gitupdate/internal/errors"
)

type stubRunner struct {
	out  string
	err  error
	bin  string
	args []string
}

func (r *stubRunner) Run(_ context.Context, bin string, args ...string) ([]byte, error) {
	r.bin = bin
	r.args = args
	return []byte(r.out), r.err
}

func TestHostVersion(t *testing.T) {
	runner := &stubRunner{out: "git version 2.41.0.windows.3\n"}

	got, err := HostVersion(context.Background(), runner, "git --version", "git version ")
	if err != nil {
		t.Fatalf("HostVersion() error = %v", err)
	}
	if got != "2.41.0.windows.3" {
		t.Errorf("HostVersion() = %q, want %q", got, "2.41.0.windows.3")
	}
	if runner.bin != "git" || len(runner.args) != 1 || runner.args[0] != "--version" {
		t.Errorf("ran %q %v, want git [--version]", runner.bin, runner.args)
	}
}

func TestHostVersion_Errors(t *testing.T) {
	tests := []struct {
		name     string
		cmdline  string
		runner   *stubRunner
		wantCode apperrors.Code
	}{
		{
			name:     "no command",
			cmdline:  "  ",
			runner:   &stubRunner{},
			wantCode: apperrors.CodeConfigurationError,
		},
		{
			name:     "command fails",
			cmdline:  "git --version",
			runner:   &stubRunner{out: "not found", err: command.ExitError{Code: 127}},
			wantCode: apperrors.CodeHostVersion,
		},
		{
			name:     "unexpected output",
			cmdline:  "git --version",
			runner:   &stubRunner{out: "usage: git\n"},
			wantCode: apperrors.CodeHostVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := HostVersion(context.Background(), tt.runner, tt.cmdline, "git version ")
			if err == nil {
				t.Fatal("HostVersion() should fail")
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Errorf("code = %s, want %s", apperrors.CodeOf(err), tt.wantCode)
			}
		})
	}
}
