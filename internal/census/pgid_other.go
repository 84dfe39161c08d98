//go:build !unix

package census

// Windows has no process groups in the POSIX sense; every process leads
// its own.
func processGroup(pid int) (int, error) {
	return pid, nil
}
