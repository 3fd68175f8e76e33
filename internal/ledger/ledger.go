// Package ledger keeps a history of per-entry capture outcomes in a SQLite
// database so that later invocations can report what happened to each key.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEmptyPath is returned by Open when no database path is configured.
var ErrEmptyPath = errors.New("ledger path cannot be empty")

// Row is one recorded outcome.
type Row struct {
	RunID      string
	Key        string
	Address    string
	Capture    string
	Sync       string
	Error      string
	SyncError  string
	RemoteURL  string
	Duration   time.Duration
	RecordedAt time.Time
}

// Ledger appends outcome rows and answers "latest per key" queries.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path, creating parent directories
// and the schema if needed.
func Open(path string) (*Ledger, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	// Pipeline workers report concurrently; one connection keeps SQLite
	// writers from contending for the file lock.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, now: time.Now}
	if err := l.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			key TEXT NOT NULL,
			address TEXT NOT NULL,
			capture TEXT NOT NULL,
			sync TEXT NOT NULL,
			error TEXT,
			sync_error TEXT,
			remote_url TEXT,
			duration_ms INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_key ON outcomes(key)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return l.addSyncErrorColumn()
}

// addSyncErrorColumn upgrades ledgers created before sync errors were kept.
func (l *Ledger) addSyncErrorColumn() error {
	var n int
	err := l.db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('outcomes') WHERE name = 'sync_error'`).Scan(&n)
	if err != nil {
		return fmt.Errorf("inspecting outcomes table: %w", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := l.db.Exec(`ALTER TABLE outcomes ADD COLUMN sync_error TEXT`); err != nil {
		return fmt.Errorf("adding sync_error column: %w", err)
	}
	return nil
}

// Record appends one row. A zero RecordedAt is stamped with the current time.
func (l *Ledger) Record(ctx context.Context, row Row) error {
	if row.RecordedAt.IsZero() {
		row.RecordedAt = l.now()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, key, address, capture, sync, error, sync_error, remote_url, duration_ms, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.RunID, row.Key, row.Address, row.Capture, row.Sync,
		row.Error, row.SyncError, row.RemoteURL, row.Duration.Milliseconds(),
		row.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", row.Key, err)
	}
	return nil
}

// Latest returns the most recent row for every key, ordered by key.
func (l *Ledger) Latest(ctx context.Context) ([]Row, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT o.run_id, o.key, o.address, o.capture, o.sync,
		        COALESCE(o.error, ''), COALESCE(o.sync_error, ''), COALESCE(o.remote_url, ''), o.duration_ms, o.recorded_at
		 FROM outcomes o
		 JOIN (SELECT key, MAX(id) AS id FROM outcomes GROUP BY key) last ON last.id = o.id
		 ORDER BY o.key`)
	if err != nil {
		return nil, fmt.Errorf("querying latest outcomes: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r          Row
			durationMS int64
			recordedAt string
		)
		if err := rows.Scan(&r.RunID, &r.Key, &r.Address, &r.Capture, &r.Sync,
			&r.Error, &r.SyncError, &r.RemoteURL, &durationMS, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
