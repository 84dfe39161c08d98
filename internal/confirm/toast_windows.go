//go:build windows

package confirm

import "golang.org/x/sys/windows"

// toastSupported is a function variable to allow overriding in tests.
var toastSupported = func() bool {
	return windows.RtlGetVersion().MajorVersion >= 10
}
