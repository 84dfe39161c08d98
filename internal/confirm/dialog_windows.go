//go:build windows

package confirm

import (
	"context"
	"fmt"

	"golang.org/x/sys/windows"

	"gitupdate/internal/command"
)

const (
	mbYesNo         = 0x00000004
	mbIconQuestion  = 0x00000020
	mbSetForeground = 0x00010000
	mbTopmost       = 0x00040000
	idYes           = 6
)

type messageBoxDialog struct{}

func newPlatformDialog(command.Runner) Dialog {
	return messageBoxDialog{}
}

// AskYesNo implements Dialog.
func (messageBoxDialog) AskYesNo(_ context.Context, title, message string) (bool, error) {
	t, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return false, fmt.Errorf("encode title: %w", err)
	}
	m, err := windows.UTF16PtrFromString(message)
	if err != nil {
		return false, fmt.Errorf("encode message: %w", err)
	}
	ret, err := windows.MessageBox(0, m, t, mbYesNo|mbIconQuestion|mbSetForeground|mbTopmost)
	if ret == 0 {
		return false, fmt.Errorf("%w: MessageBox: %v", ErrNoDialog, err)
	}
	return ret == idYes, nil
}
