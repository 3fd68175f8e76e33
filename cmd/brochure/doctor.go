package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/config"
	"github.com/alnah/go-brochure/internal/fileutil"
	"github.com/alnah/go-brochure/internal/remote"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Capture  captureInfo `json:"capture"`
	Remote   remoteInfo  `json:"remote"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable   bool `json:"temp_writable"`
	OutputWritable bool `json:"output_writable"`
}

// captureInfo holds the inputs a capture run needs.
type captureInfo struct {
	InputPath  string `json:"input_path"`
	Entries    int    `json:"entries"`
	MarkPath   string `json:"mark_path"`
	MarkFormat string `json:"mark_format,omitempty"`
	OutputDir  string `json:"output_dir"`
}

// remoteInfo holds remote sync readiness.
type remoteInfo struct {
	Configured bool   `json:"configured"`
	Source     string `json:"source,omitempty"`
	Bucket     string `json:"bucket"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	var f doctorFlags
	if _, _, err := parseFlagSet(newDoctorFlagSet(&f), args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, err)
		return ExitUsage
	}

	cfg, _, err := loadConfig(f.common.config, env)
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
		return exitCodeFor(err)
	}

	result := runDoctor(cfg, env)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(cfg *config.Config, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.Getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.Getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result, env.Getenv)
	checkSystem(result, cfg.Output.Dir)
	checkCaptureInputs(result, cfg)
	checkRemote(result, cfg, env)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		// Use rod's launcher to locate Chrome
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Errors = append(result.Errors,
				"Chrome/Chromium not found. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- path from LookPath or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("BROCHURE_CONTAINER") == "1" {
		return true, "BROCHURE_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp and output directories accept writes.
func checkSystem(result *doctorResult, outputDir string) {
	tmpDir := os.TempDir()
	if writable(tmpDir) {
		result.System.TempWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	}

	// The output directory is created on demand; probe its nearest existing ancestor.
	dir := outputDir
	for dir != "" && !fileutil.DirExists(dir) {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if writable(dir) {
		result.System.OutputWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Output directory not writable: %s", outputDir))
	}
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".brochure-doctor-*")
	if err != nil {
		return false
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return true
}

// checkCaptureInputs verifies the input list and mark image load.
func checkCaptureInputs(result *doctorResult, cfg *config.Config) {
	result.Capture.InputPath = cfg.Input.Path
	result.Capture.MarkPath = cfg.Mark.Path
	result.Capture.OutputDir = cfg.Output.Dir

	entries, err := brochure.LoadEntries(cfg.Input.Path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Input list: %v", err))
	} else {
		result.Capture.Entries = len(entries)
		if len(entries) == 0 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Input list %s has no entries", cfg.Input.Path))
		}
	}

	mark, err := brochure.LoadMark(cfg.Mark.Path)
	if err != nil {
		// Stamping fails per entry, so a bad mark does not block a run.
		result.Warnings = append(result.Warnings, fmt.Sprintf("Mark image: %v", err))
	} else {
		result.Capture.MarkFormat = mark.Format()
	}
}

// checkRemote reports whether Supabase credentials were found.
func checkRemote(result *doctorResult, cfg *config.Config, env *Environment) {
	result.Remote.Bucket = cfg.Remote.Bucket

	envFile := env.EnvFile
	if v := env.Getenv("BROCHURE_ENV_FILE"); v != "" {
		envFile = v
	}
	creds, err := remote.LoadCredentials(envFile, env.Getenv)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("Credentials: %v", err))
		return
	}
	if !creds.Configured() {
		result.Warnings = append(result.Warnings,
			"Supabase credentials not found. Remote sync will be skipped")
		return
	}
	result.Remote.Configured = true
	result.Remote.Source = creds.Source
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "brochure doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [ERROR] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.OutputWritable {
		fmt.Fprintf(w, "  [OK] Output directory: %s\n", r.Capture.OutputDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Output directory: %s not writable\n", r.Capture.OutputDir)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Capture")
	if r.Capture.Entries > 0 {
		fmt.Fprintf(w, "  [OK] Input list: %s (%d entries)\n", r.Capture.InputPath, r.Capture.Entries)
	} else {
		fmt.Fprintf(w, "  [WARN] Input list: %s\n", r.Capture.InputPath)
	}
	if r.Capture.MarkFormat != "" {
		fmt.Fprintf(w, "  [OK] Mark: %s (%s)\n", r.Capture.MarkPath, r.Capture.MarkFormat)
	} else {
		fmt.Fprintf(w, "  [WARN] Mark: %s\n", r.Capture.MarkPath)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Remote")
	if r.Remote.Configured {
		fmt.Fprintf(w, "  [OK] Credentials: %s\n", r.Remote.Source)
		fmt.Fprintf(w, "  [OK] Bucket: %s\n", r.Remote.Bucket)
	} else {
		fmt.Fprintln(w, "  [WARN] Credentials: not found (sync disabled)")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to capture")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
