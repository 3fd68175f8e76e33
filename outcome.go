package brochure

import "time"

// CaptureStatus is what happened to an entry's local artifact.
type CaptureStatus string

// Capture statuses.
const (
	CaptureSkipped      CaptureStatus = "skipped-existing"
	CaptureRendered     CaptureStatus = "rendered"
	CaptureRenderFailed CaptureStatus = "render-failed"
	CaptureStampFailed  CaptureStatus = "stamp-failed"
	CaptureWriteFailed  CaptureStatus = "write-failed"
)

// Failed reports whether the status is a failure.
func (s CaptureStatus) Failed() bool {
	switch s {
	case CaptureRenderFailed, CaptureStampFailed, CaptureWriteFailed:
		return true
	}
	return false
}

// SyncStatus is what happened to an entry's remote copy.
type SyncStatus string

// Sync statuses.
const (
	SyncSynced       SyncStatus = "synced"
	SyncFailed       SyncStatus = "sync-failed"
	SyncSkipped      SyncStatus = "sync-skipped-no-credentials"
	SyncNotAttempted SyncStatus = "not-attempted"
)

// Outcome records how one entry went. Capture and sync are independent:
// a sync failure never changes the capture status.
type Outcome struct {
	Entry     Entry
	Capture   CaptureStatus
	Sync      SyncStatus
	RemoteURL string
	Err       error // capture failure, if any
	SyncErr   error // sync failure, if any
	Duration  time.Duration
}

// Failed reports whether either half of the outcome failed.
func (o Outcome) Failed() bool {
	return o.Capture.Failed() || o.Sync == SyncFailed
}

// Summary counts outcomes by status.
type Summary struct {
	Total        int `json:"total"`
	Rendered     int `json:"rendered"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	Synced       int `json:"synced"`
	SyncFailed   int `json:"syncFailed"`
	SyncDisabled int `json:"syncSkipped"`
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch o.Capture {
		case CaptureRendered:
			s.Rendered++
		case CaptureSkipped:
			s.Skipped++
		case CaptureRenderFailed, CaptureStampFailed, CaptureWriteFailed:
			s.Failed++
		}
		switch o.Sync {
		case SyncSynced:
			s.Synced++
		case SyncFailed:
			s.SyncFailed++
		case SyncSkipped:
			s.SyncDisabled++
		}
	}
	return s
}

// HasFailures reports whether any capture or sync failed.
func (s Summary) HasFailures() bool {
	return s.Failed > 0 || s.SyncFailed > 0
}
