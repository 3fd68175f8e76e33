package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-brochure/internal/config"
)

// envConfig holds configuration from BROCHURE_* environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string        // BROCHURE_CONFIG: config file name or path
	BaseURL    string        // BROCHURE_BASE_URL: site to capture
	Timeout    time.Duration // BROCHURE_TIMEOUT: per-page navigation timeout

	// Tier 2 - I/O
	Input     string // BROCHURE_INPUT: identifier list
	OutputDir string // BROCHURE_OUTPUT_DIR: artifact directory
	Mark      string // BROCHURE_MARK: mark image
	Bucket    string // BROCHURE_BUCKET: remote bucket
	EnvFile   string // BROCHURE_ENV_FILE: credentials file

	// Tier 3 - Extended
	PageFormat string // BROCHURE_PAGE_FORMAT: a4, letter, legal, continuous
	Style      string // BROCHURE_STYLE: print stylesheet name
	Ledger     string // BROCHURE_LEDGER: outcome history database
	Workers    int    // BROCHURE_WORKERS: parallel sessions
}

// knownEnvVars lists valid BROCHURE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	// Tier 1 - Essential
	"BROCHURE_CONFIG":   true,
	"BROCHURE_BASE_URL": true,
	"BROCHURE_TIMEOUT":  true,
	// Tier 2 - I/O
	"BROCHURE_INPUT":      true,
	"BROCHURE_OUTPUT_DIR": true,
	"BROCHURE_MARK":       true,
	"BROCHURE_BUCKET":     true,
	"BROCHURE_ENV_FILE":   true,
	// Tier 3 - Extended
	"BROCHURE_PAGE_FORMAT": true,
	"BROCHURE_STYLE":       true,
	"BROCHURE_LEDGER":      true,
	"BROCHURE_WORKERS":     true,
	// Diagnostics
	"BROCHURE_CONTAINER": true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable numbers and durations are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("BROCHURE_CONFIG"),
		BaseURL:    getenv("BROCHURE_BASE_URL"),
		Input:      getenv("BROCHURE_INPUT"),
		OutputDir:  getenv("BROCHURE_OUTPUT_DIR"),
		Mark:       getenv("BROCHURE_MARK"),
		Bucket:     getenv("BROCHURE_BUCKET"),
		EnvFile:    getenv("BROCHURE_ENV_FILE"),
		PageFormat: getenv("BROCHURE_PAGE_FORMAT"),
		Style:      getenv("BROCHURE_STYLE"),
		Ledger:     getenv("BROCHURE_LEDGER"),
	}

	if timeout := getenv("BROCHURE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("BROCHURE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w >= 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized BROCHURE_* variables.
// Helps catch typos like BROCHURE_OUTPUT instead of BROCHURE_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, "BROCHURE_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config values with those set in the environment.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeCaptureFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.BaseURL != "" {
		cfg.Render.BaseURL = env.BaseURL
	}
	if env.Timeout > 0 {
		cfg.Render.Timeout = env.Timeout.String()
	}
	if env.Input != "" {
		cfg.Input.Path = env.Input
	}
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Mark != "" {
		cfg.Mark.Path = env.Mark
	}
	if env.Bucket != "" {
		cfg.Remote.Bucket = env.Bucket
	}
	if env.PageFormat != "" {
		cfg.Render.PageFormat = env.PageFormat
	}
	if env.Style != "" {
		cfg.Render.Style = env.Style
	}
	if env.Ledger != "" {
		cfg.Ledger.Path = env.Ledger
	}
	if env.Workers > 0 {
		cfg.Render.Workers = env.Workers
	}
}
