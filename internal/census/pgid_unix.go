//go:build unix

package census

import "golang.org/x/sys/unix"

func processGroup(pid int) (int, error) {
	return unix.Getpgid(pid)
}
