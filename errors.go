package brochure

import (
	"errors"
	"fmt"
)

// Sentinel errors for library operations.
var (
	// Renderer errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrPDFGeneration  = errors.New("PDF generation failed")
	ErrSessionClosed  = errors.New("renderer session is closed")

	// Mark engine errors.
	ErrMarkNotFound = errors.New("mark image not found")
	ErrMarkDecode   = errors.New("mark image cannot be decoded")
	ErrDocumentRead = errors.New("document cannot be read")
	ErrStampApply   = errors.New("failed to apply mark")

	// Artifact store errors.
	ErrArtifactWrite = errors.New("failed to write artifact")
	ErrArtifactRead  = errors.New("failed to read artifact")
	ErrInvalidKey    = errors.New("invalid artifact key")

	// Remote sync errors.
	ErrSyncUpload = errors.New("remote upload failed")

	// Input and settings validation errors.
	ErrInputList         = errors.New("invalid input list")
	ErrInvalidAddress    = errors.New("address does not resolve to an artifact key")
	ErrInvalidBaseURL    = errors.New("invalid base URL")
	ErrInvalidPageFormat = errors.New("invalid page format")
	ErrInvalidCorner     = errors.New("invalid mark corner")
	ErrInvalidMarkSize   = errors.New("invalid mark size")
	ErrInvalidMargin     = errors.New("invalid mark margin")
	ErrInvalidOpacity    = errors.New("invalid mark opacity")
)

// RenderFailure reports that one address could not be rendered.
// The pipeline skips the entry and continues with the next one.
type RenderFailure struct {
	Address string
	Cause   error
}

func (f *RenderFailure) Error() string {
	return fmt.Sprintf("rendering %s: %v", f.Address, f.Cause)
}

func (f *RenderFailure) Unwrap() error { return f.Cause }

// StampFailure reports that a mark could not be applied to a document.
// No artifact is written when stamping fails.
type StampFailure struct {
	Cause error
}

func (f *StampFailure) Error() string {
	return fmt.Sprintf("stamping: %v", f.Cause)
}

func (f *StampFailure) Unwrap() error { return f.Cause }

// SyncFailure reports that an artifact could not be pushed to the remote store.
// The local artifact stays on disk so a later run can retry.
type SyncFailure struct {
	Key   string
	Cause error
}

func (f *SyncFailure) Error() string {
	return fmt.Sprintf("syncing %s: %v", f.Key, f.Cause)
}

func (f *SyncFailure) Unwrap() error { return f.Cause }
