// Package process holds platform-specific helpers for the headless browser
// child processes started by the renderer.
package process

import "errors"

// ErrInvalidPID is returned for PIDs that would target the caller's own
// process group or no process at all.
var ErrInvalidPID = errors.New("invalid process id")
