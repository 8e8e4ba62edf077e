// Package history persists per-run analysis snapshots in SQLite so
// successive scans of a codebase can be compared over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"exportmap/internal/xerrors"
)

// Snapshot is one completed analysis run.
type Snapshot struct {
	RunID             string
	Timestamp         time.Time
	Roots             []string
	FilesScanned      int
	Modules           int
	Ambiguous         int
	Unanalyzable      int
	ParseErrors       int
	DiagnosticCount   int
	DiagnosticsByRule map[string]int
}

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeStorage, "open history database")
	}
	// modernc.org/sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY churn under concurrent snapshot writes.
	db.SetMaxOpenConns(1)

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, xerrors.Wrap(err, xerrors.CodeStorage, "migrate history database")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record writes one snapshot. A zero RunID is assigned a fresh UUID;
// the assigned ID is returned.
func (s *Store) Record(ctx context.Context, snap Snapshot) (string, error) {
	if snap.RunID == "" {
		snap.RunID = uuid.NewString()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", xerrors.Wrap(err, xerrors.CodeStorage, "begin snapshot transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (run_id, schema_version, ts_utc, roots, files_scanned, module_count,
                  ambiguous_count, unanalyzable_count, parse_error_count, diagnostic_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, SchemaVersion, snap.Timestamp.UTC().Format(time.RFC3339Nano),
		strings.Join(snap.Roots, ","), snap.FilesScanned, snap.Modules,
		snap.Ambiguous, snap.Unanalyzable, snap.ParseErrors, snap.DiagnosticCount)
	if err != nil {
		return "", xerrors.AddContext(
			xerrors.Wrap(err, xerrors.CodeStorage, "insert run"),
			xerrors.CtxOperation, "record")
	}

	for rule, count := range snap.DiagnosticsByRule {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_diagnostics (run_id, rule, count) VALUES (?, ?, ?)`,
			snap.RunID, rule, count)
		if err != nil {
			return "", xerrors.AddContext(
				xerrors.Wrap(err, xerrors.CodeStorage, "insert run diagnostics"),
				xerrors.CtxRule, rule)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", xerrors.Wrap(err, xerrors.CodeStorage, "commit snapshot")
	}
	return snap.RunID, nil
}

// Recent returns up to limit snapshots, newest first. Per-rule counts
// are not loaded; use DiagnosticsFor when they are needed.
func (s *Store) Recent(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, ts_utc, roots, files_scanned, module_count, ambiguous_count,
       unanalyzable_count, parse_error_count, diagnostic_count
FROM runs ORDER BY ts_utc DESC LIMIT ?`, limit)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeStorage, "query runs")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts, roots string
		if err := rows.Scan(&snap.RunID, &ts, &roots, &snap.FilesScanned, &snap.Modules,
			&snap.Ambiguous, &snap.Unanalyzable, &snap.ParseErrors, &snap.DiagnosticCount); err != nil {
			return nil, xerrors.Wrap(err, xerrors.CodeStorage, "scan run row")
		}
		snap.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		if roots != "" {
			snap.Roots = strings.Split(roots, ",")
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// DiagnosticsFor returns the per-rule diagnostic counts of one run.
func (s *Store) DiagnosticsFor(ctx context.Context, runID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule, count FROM run_diagnostics WHERE run_id = ?`, runID)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeStorage, "query run diagnostics")
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var rule string
		var count int
		if err := rows.Scan(&rule, &count); err != nil {
			return nil, xerrors.Wrap(err, xerrors.CodeStorage, "scan diagnostics row")
		}
		out[rule] = count
	}
	return out, rows.Err()
}
