//go:build !windows

package confirm

// toastSupported is a function variable to allow overriding in tests.
var toastSupported = func() bool {
	return false
}
