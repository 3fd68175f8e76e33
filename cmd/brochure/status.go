package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-brochure/internal/ledger"
)

// ErrNoLedger is returned by status when no ledger is configured.
var ErrNoLedger = errors.New("no ledger configured")

type statusRow struct {
	Key        string    `json:"key"`
	Address    string    `json:"address"`
	Capture    string    `json:"capture"`
	Sync       string    `json:"sync"`
	RemoteURL  string    `json:"remoteUrl,omitempty"`
	Error      string    `json:"error,omitempty"`
	SyncError  string    `json:"syncError,omitempty"`
	RunID      string    `json:"runId"`
	RecordedAt time.Time `json:"recordedAt"`
}

// runStatusCmd prints the latest recorded outcome of every key.
func runStatusCmd(ctx context.Context, args []string, env *Environment) error {
	f, err := parseStatusFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printStatusUsage(env.Stdout)
			return nil
		}
		return err
	}

	cfg, _, err := loadConfig(f.common.config, env)
	if err != nil {
		return err
	}
	path := cfg.Ledger.Path
	if f.ledger != "" {
		path = f.ledger
	}
	if path == "" {
		return fmt.Errorf("%w: set --ledger, ledger.path or BROCHURE_LEDGER", ErrNoLedger)
	}

	l, err := ledger.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = l.Close() }()

	rows, err := l.Latest(ctx)
	if err != nil {
		return err
	}

	if f.json {
		out := make([]statusRow, 0, len(rows))
		for _, r := range rows {
			out = append(out, statusRow{
				Key: r.Key, Address: r.Address, Capture: r.Capture, Sync: r.Sync,
				RemoteURL: r.RemoteURL, Error: r.Error, SyncError: r.SyncError, RunID: r.RunID, RecordedAt: r.RecordedAt,
			})
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printStatus(env.Stdout, rows)
	return nil
}

func printStatus(w io.Writer, rows []ledger.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No outcomes recorded yet.")
		return
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%-40s %-16s %-28s %s\n", r.Key, r.Capture, r.Sync, r.RecordedAt.Format(time.RFC3339))
		if r.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", r.Error)
		}
		if r.SyncError != "" {
			fmt.Fprintf(w, "  sync error: %s\n", r.SyncError)
		}
	}
}
