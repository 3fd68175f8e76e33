package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	brochure "github.com/alnah/go-brochure"
	"github.com/alnah/go-brochure/internal/config"
	"github.com/alnah/go-brochure/internal/hints"
	"github.com/alnah/go-brochure/internal/ledger"
	"github.com/alnah/go-brochure/internal/remote"
)

// ErrEntriesFailed is returned when a run finished but some entries failed.
var ErrEntriesFailed = errors.New("some entries failed")

// bucketEnsurer is implemented by object stores that can create their bucket.
type bucketEnsurer interface {
	EnsureBucket(ctx context.Context, bucket string, spec remote.BucketSpec) (bool, error)
}

// captureReport is the --json document.
type captureReport struct {
	RunID    string           `json:"runId"`
	Outcomes []outcomeJSON    `json:"outcomes"`
	Summary  brochure.Summary `json:"summary"`
}

type outcomeJSON struct {
	Key        string `json:"key"`
	Address    string `json:"address"`
	Capture    string `json:"capture"`
	Sync       string `json:"sync"`
	RemoteURL  string `json:"remoteUrl,omitempty"`
	Error      string `json:"error,omitempty"`
	SyncError  string `json:"syncError,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// runCaptureCmd renders, stamps, stores and syncs every entry of the input list.
func runCaptureCmd(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseCaptureFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCaptureUsage(env.Stdout)
			return nil
		}
		return err
	}

	cfg, _, err := loadConfig(f.common.config, env)
	if err != nil {
		return err
	}
	mergeCaptureFlags(f, cfg)
	if len(positional) == 1 {
		cfg.Input.Path = positional[0]
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	entries, err := brochure.LoadEntries(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("%w%s", err, hints.ForInputList())
	}
	if len(entries) == 0 {
		if !f.common.quiet {
			fmt.Fprintf(env.Stderr, "no entries in %s\n", cfg.Input.Path)
		}
		return nil
	}

	placement, err := placementFromConfig(cfg.Mark)
	if err != nil {
		return err
	}
	css, err := resolveStyle(cfg.Render)
	if err != nil {
		return err
	}
	script, err := loadScript(cfg.Render)
	if err != nil {
		return err
	}
	format, err := brochure.ParsePageFormat(cfg.Render.PageFormat)
	if err != nil {
		return err
	}
	timeout, settle, idle := cfg.Durations()

	launcher, err := env.NewLauncher(brochure.RenderSettings{
		BaseURL: cfg.Render.BaseURL,
		Format:  format,
		Idle:    idle,
		Settle:  settle,
		CSS:     css,
		Script:  script,
	})
	if err != nil {
		return fmt.Errorf("%w%s", err, hints.ForBaseURL())
	}

	syncer := newSyncer(ctx, cfg, env, f.common.quiet)

	runID := uuid.NewString()
	reporter := newReporter(env, runID, f)
	if cfg.Ledger.Path != "" {
		l, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			fmt.Fprintf(env.Stderr, "warning: ledger disabled: %v\n", err)
		} else {
			defer func() { _ = l.Close() }()
			reporter.ledger = l
		}
	}

	workers := brochure.ResolvePoolSize(cfg.Render.Workers)
	if f.common.verbose {
		fmt.Fprintf(env.Stderr, "Run %s: %d entries, %d workers\n", runID, len(entries), workers)
	}

	pipeline := brochure.NewPipeline(
		launcher,
		brochure.NewStamper(cfg.Mark.Path, placement),
		brochure.NewLocalStore(cfg.Output.Dir),
		brochure.WithForce(f.force),
		brochure.WithTimeout(timeout),
		brochure.WithWorkers(workers),
		brochure.WithSyncer(syncer),
		brochure.WithReporter(func(o brochure.Outcome) { reporter.report(ctx, o) }),
	)

	start := env.Now()
	outcomes, runErr := pipeline.Run(ctx, entries)
	summary := brochure.Summarize(outcomes)

	if f.json {
		if err := writeCaptureJSON(env.Stdout, runID, outcomes, summary); err != nil {
			return err
		}
	} else if !f.common.quiet {
		printSummary(env.Stdout, summary, env.Now().Sub(start))
	}

	if runErr != nil {
		if errors.Is(runErr, brochure.ErrBrowserConnect) {
			return fmt.Errorf("%w%s", runErr, hints.ForBrowserConnect())
		}
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%w: %d of %d", ErrEntriesFailed, countFailed(outcomes), summary.Total)
	}
	return nil
}

// newSyncer builds the remote syncer. Missing credentials disable sync with a
// warning rather than failing the run.
func newSyncer(ctx context.Context, cfg *config.Config, env *Environment, quiet bool) *brochure.Syncer {
	envFile := env.EnvFile
	if v := env.Getenv("BROCHURE_ENV_FILE"); v != "" {
		envFile = v
	}

	creds, err := remote.LoadCredentials(envFile, env.Getenv)
	if err != nil {
		fmt.Fprintf(env.Stderr, "warning: remote sync disabled: %v\n", err)
		return brochure.NewSyncer(nil, cfg.Remote.Bucket)
	}
	if !creds.Configured() {
		if !quiet {
			fmt.Fprintf(env.Stderr, "warning: remote sync disabled: credentials not found%s\n", hints.ForMissingCredentials())
		}
		return brochure.NewSyncer(nil, cfg.Remote.Bucket)
	}

	store, err := env.NewObjectStore(creds)
	if err != nil {
		fmt.Fprintf(env.Stderr, "warning: remote sync disabled: %v\n", err)
		return brochure.NewSyncer(nil, cfg.Remote.Bucket)
	}

	if cfg.Remote.EnsureBucket {
		if ensurer, ok := store.(bucketEnsurer); ok {
			spec := remote.DefaultBucketSpec
			spec.Public = cfg.Remote.Public
			created, err := ensurer.EnsureBucket(ctx, cfg.Remote.Bucket, spec)
			switch {
			case err != nil:
				fmt.Fprintf(env.Stderr, "warning: ensuring bucket %s: %v\n", cfg.Remote.Bucket, err)
			case created && !quiet:
				fmt.Fprintf(env.Stderr, "Created bucket %s\n", cfg.Remote.Bucket)
			}
		}
	}

	return brochure.NewSyncer(store, cfg.Remote.Bucket)
}

// outcomeRecorder is the subset of the ledger the reporter writes to.
type outcomeRecorder interface {
	Record(ctx context.Context, row ledger.Row) error
}

// reporter prints each outcome as it completes and records it in the ledger.
// The pipeline serializes calls, so no locking is needed.
type reporter struct {
	env     *Environment
	runID   string
	quiet   bool
	verbose bool
	json    bool
	ledger  outcomeRecorder
}

func newReporter(env *Environment, runID string, f *captureFlags) *reporter {
	return &reporter{
		env:     env,
		runID:   runID,
		quiet:   f.common.quiet,
		verbose: f.common.verbose,
		json:    f.json,
	}
}

func (r *reporter) report(ctx context.Context, o brochure.Outcome) {
	if !r.json {
		printOutcome(r.env.Stdout, r.env.Stderr, o, r.quiet, r.verbose)
	}
	if r.ledger == nil {
		return
	}
	row := ledger.Row{
		RunID:      r.runID,
		Key:        o.Entry.Key,
		Address:    o.Entry.Address,
		Capture:    string(o.Capture),
		Sync:       string(o.Sync),
		Error:      errString(o.Err),
		SyncError:  errString(o.SyncErr),
		RemoteURL:  o.RemoteURL,
		Duration:   o.Duration,
		RecordedAt: r.env.Now(),
	}
	// A canceled run still records what it saw.
	if err := r.ledger.Record(context.WithoutCancel(ctx), row); err != nil {
		fmt.Fprintf(r.env.Stderr, "warning: %v\n", err)
	}
}

// printOutcome writes one progress line. Failures always go to stderr.
func printOutcome(stdout, stderr io.Writer, o brochure.Outcome, quiet, verbose bool) {
	key := o.Entry.Key
	switch {
	case o.Capture.Failed():
		var hint string
		if errors.Is(o.Err, context.DeadlineExceeded) {
			hint = hints.ForTimeout()
		}
		fmt.Fprintf(stderr, "FAILED %s: %v%s\n", key, o.Err, hint)
	case quiet:
	case o.Capture == brochure.CaptureSkipped:
		fmt.Fprintf(stdout, "Skipped %s (exists)\n", key)
	default:
		fmt.Fprintf(stdout, "Rendered %s (%v)\n", key, o.Duration.Round(time.Millisecond))
	}

	switch {
	case o.Sync == brochure.SyncFailed:
		fmt.Fprintf(stderr, "FAILED sync %s: %v\n", key, o.SyncErr)
	case o.Sync == brochure.SyncSynced && verbose:
		fmt.Fprintf(stdout, "Synced %s -> %s\n", key, o.RemoteURL)
	}
}

func printSummary(w io.Writer, s brochure.Summary, elapsed time.Duration) {
	fmt.Fprintf(w, "\n%d entries: %d rendered, %d skipped, %d failed",
		s.Total, s.Rendered, s.Skipped, s.Failed)
	if s.SyncDisabled < s.Total {
		fmt.Fprintf(w, "; %d synced, %d sync failed", s.Synced, s.SyncFailed)
	}
	fmt.Fprintf(w, " (%v)\n", elapsed.Round(time.Millisecond))
}

func writeCaptureJSON(w io.Writer, runID string, outcomes []brochure.Outcome, s brochure.Summary) error {
	report := captureReport{RunID: runID, Outcomes: make([]outcomeJSON, 0, len(outcomes)), Summary: s}
	for _, o := range outcomes {
		report.Outcomes = append(report.Outcomes, outcomeJSON{
			Key:        o.Entry.Key,
			Address:    o.Entry.Address,
			Capture:    string(o.Capture),
			Sync:       string(o.Sync),
			RemoteURL:  o.RemoteURL,
			Error:      errString(o.Err),
			SyncError:  errString(o.SyncErr),
			DurationMS: o.Duration.Milliseconds(),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func countFailed(outcomes []brochure.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
