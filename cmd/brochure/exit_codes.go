package main

import (
	"context"
	"errors"
	"os"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/assets"
	"github.com/alnah/go-brochure/internal/config"
	"github.com/alnah/go-brochure/internal/ledger"
	"github.com/alnah/go-brochure/internal/remote"
)

// Exit codes for the brochure CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every entry captured and synced (or skipped)
	ExitGeneral = 1 // General error, or some entries failed
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // Input list, mark, or artifact I/O
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Run outcome and interruption (exit 1)
	if errors.Is(err, ErrEntriesFailed) || errors.Is(err, context.Canceled) {
		return ExitGeneral
	}

	// Browser errors (exit 4)
	if errors.Is(err, brochure.ErrBrowserConnect) ||
		errors.Is(err, brochure.ErrPageCreate) ||
		errors.Is(err, brochure.ErrPageLoad) ||
		errors.Is(err, brochure.ErrPDFGeneration) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, brochure.ErrInputList) ||
		errors.Is(err, brochure.ErrMarkNotFound) ||
		errors.Is(err, brochure.ErrMarkDecode) ||
		errors.Is(err, brochure.ErrArtifactWrite) ||
		errors.Is(err, brochure.ErrArtifactRead) ||
		errors.Is(err, ErrNoPDFs) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoLedger) ||
		errors.Is(err, ErrUnsupportedShell) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, brochure.ErrInvalidBaseURL) ||
		errors.Is(err, brochure.ErrInvalidPageFormat) ||
		errors.Is(err, brochure.ErrInvalidCorner) ||
		errors.Is(err, brochure.ErrInvalidMarkSize) ||
		errors.Is(err, brochure.ErrInvalidMargin) ||
		errors.Is(err, brochure.ErrInvalidOpacity) ||
		errors.Is(err, assets.ErrStyleNotFound) ||
		errors.Is(err, assets.ErrInvalidAssetName) ||
		errors.Is(err, assets.ErrInvalidBasePath) ||
		errors.Is(err, remote.ErrInvalidURL) ||
		errors.Is(err, ledger.ErrEmptyPath) {
		return ExitUsage
	}

	return ExitGeneral
}
