//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillGroup(pid int) error {
	if pid <= 0 {
		return ErrInvalidPID
	}
	return exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
