// Package proc answers liveness questions about child process IDs.
package proc

import (
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Alive reports whether a process with the given pid currently exists.
func Alive(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// WaitGone polls until the process disappears or the timeout elapses.
// Returns true if the process is gone.
func WaitGone(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !Alive(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
