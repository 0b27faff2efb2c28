package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"QuantCache/internal/model"
)

// SQLiteRecorder writes runs next to the price data, in the same database
// file as the store.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(ctx context.Context, dbPath string, log logrus.FieldLogger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w: %w", model.ErrStorage, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w: %w", model.ErrStorage, err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w: %w", model.ErrStorage, err)
	}
	log.WithField("path", dbPath).Debug("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at  INTEGER NOT NULL,
			kind        TEXT NOT NULL,
			elapsed_ms  INTEGER,
			total       INTEGER,
			succeeded   INTEGER,
			failed      INTEGER,
			inserted    INTEGER,
			interrupted TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_kind_ts ON sync_runs(kind, started_at)`,

		`CREATE TABLE IF NOT EXISTS sync_failures (
			run_id INTEGER NOT NULL REFERENCES sync_runs(id),
			symbol TEXT NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_run ON sync_failures(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores run and its per-symbol failures in one transaction.
func (r *SQLiteRecorder) RecordRun(ctx context.Context, run Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w: %w", model.ErrStorage, err)
	}
	defer tx.Rollback()

	sum := run.Summary
	res, err := tx.ExecContext(ctx, `INSERT INTO sync_runs
		(started_at, kind, elapsed_ms, total, succeeded, failed, inserted, interrupted)
		VALUES (?,?,?,?,?,?,?,?)`,
		run.StartedAt.Unix(), run.Kind, run.Elapsed.Milliseconds(),
		sum.Total, sum.Succeeded, sum.Failed, sum.Inserted, run.Interrupted,
	)
	if err != nil {
		return fmt.Errorf("record run: %w: %w", model.ErrStorage, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("record run: %w: %w", model.ErrStorage, err)
	}

	for _, reason := range sum.Reasons() {
		for _, symbol := range sum.Failures[reason] {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sync_failures (run_id, symbol, reason) VALUES (?,?,?)`,
				id, symbol, reason); err != nil {
				return fmt.Errorf("record failure: %w: %w", model.ErrStorage, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w: %w", model.ErrStorage, err)
	}
	r.log.WithFields(logrus.Fields{"kind": run.Kind, "failed": sum.Failed}).Debug("run recorded")
	return nil
}

// LastRun returns the newest run of kind.
func (r *SQLiteRecorder) LastRun(ctx context.Context, kind string) (Run, bool, error) {
	var (
		id        int64
		startedAt int64
		elapsedMS int64
		run       = Run{Kind: kind}
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, started_at, elapsed_ms, total, succeeded, failed, inserted, interrupted
		FROM sync_runs WHERE kind = ? ORDER BY started_at DESC, id DESC LIMIT 1`, kind).
		Scan(&id, &startedAt, &elapsedMS, &run.Summary.Total, &run.Summary.Succeeded,
			&run.Summary.Failed, &run.Summary.Inserted, &run.Interrupted)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("last run: %w: %w", model.ErrStorage, err)
	}
	run.StartedAt = time.Unix(startedAt, 0)
	run.Elapsed = time.Duration(elapsedMS) * time.Millisecond

	rows, err := r.db.QueryContext(ctx,
		`SELECT symbol, reason FROM sync_failures WHERE run_id = ? ORDER BY rowid`, id)
	if err != nil {
		return Run{}, false, fmt.Errorf("last run failures: %w: %w", model.ErrStorage, err)
	}
	defer rows.Close()
	run.Summary.Failures = make(map[string][]string)
	for rows.Next() {
		var symbol, reason string
		if err := rows.Scan(&symbol, &reason); err != nil {
			return Run{}, false, fmt.Errorf("scan failure: %w: %w", model.ErrStorage, err)
		}
		run.Summary.Failures[reason] = append(run.Summary.Failures[reason], symbol)
	}
	if err := rows.Err(); err != nil {
		return Run{}, false, fmt.Errorf("last run failures: %w: %w", model.ErrStorage, err)
	}
	return run, true, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}

var _ Recorder = (*SQLiteRecorder)(nil)
var _ Recorder = (*NoopRecorder)(nil)
