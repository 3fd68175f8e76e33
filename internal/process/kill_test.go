package process

// Notes:
// - KillGroup: only invalid and non-existent PIDs are exercised. Real kill
//   behavior is covered by the renderer integration tests since terminating
//   live processes is unsafe in unit tests.
// These are acceptable gaps: we test observable behavior, not syscall internals.

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// TestKillGroup - PID validation
// ---------------------------------------------------------------------------

func TestKillGroup_RejectsNonPositivePID(t *testing.T) {
	t.Parallel()

	for _, pid := range []int{0, -1} {
		if err := KillGroup(pid); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("KillGroup(%d) = %v, want ErrInvalidPID", pid, err)
		}
	}
}

func TestKillGroup_UnknownPID(t *testing.T) {
	t.Parallel()

	// A PID this large is never allocated; the call must fail, not panic.
	if err := KillGroup(999999999); err == nil {
		t.Error("expected error for unknown PID")
	}
}
