package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"QuantCache/internal/model"
)

// SQLiteStore keeps every symbol in one normalized prices table keyed by
// (symbol, date). Symbols are always bound as parameters.
type SQLiteStore struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(ctx context.Context, dbPath string, log logrus.FieldLogger) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storageErr("create data dir", err)
		}
	}
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_txlock=immediate", dbPath))
	if err != nil {
		return nil, storageErr("open sqlite", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("ping sqlite", err)
	}

	// WAL lets readers (analysis runs) proceed while a sync is writing.
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, storageErr("set WAL mode", err)
	}

	s := &SQLiteStore{db: db, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, storageErr("migrate", err)
	}

	log.WithField("path", dbPath).Info("sqlite store opened")
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS series (
			symbol     TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS prices (
			symbol    TEXT NOT NULL,
			date      TEXT NOT NULL,
			open      REAL,
			high      REAL,
			low       REAL,
			close     REAL,
			volume    INTEGER,
			adj_close REAL,
			PRIMARY KEY (symbol, date)
		) WITHOUT ROWID`,

		`CREATE TABLE IF NOT EXISTS summary (
			symbol   TEXT PRIMARY KEY,
			name     TEXT,
			type     TEXT,
			sector   TEXT,
			industry TEXT
		)`,
	}

	for _, st := range stmts {
		if _, err := s.db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("exec %q: %w", st[:40], err)
		}
	}
	return nil
}

func (s *SQLiteStore) EnsureSeriesExists(ctx context.Context, symbol string) error {
	return ensureSeries(ctx, s.db, symbol)
}

// Upsert runs in its own transaction so a batch is written in one commit.
func (s *SQLiteStore) Upsert(ctx context.Context, symbol string, records []model.PriceRecord) (int, error) {
	u, err := s.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer u.Rollback()

	n, err := u.Upsert(ctx, symbol, records)
	if err != nil {
		return 0, err
	}
	if err := u.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) WriteMetadataOnce(ctx context.Context, symbol string, meta model.SymbolMetadata) (bool, error) {
	return writeMetadata(ctx, s.db, symbol, meta)
}

func (s *SQLiteStore) ReadRange(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return nil, err
	}
	hi := "9999-12-31"
	if !end.IsZero() {
		hi = model.FormatDate(model.Day(end))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT date, open, high, low, close, volume, adj_close
		FROM prices WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		symbol, model.FormatDate(model.Day(start)), hi,
	)
	if err != nil {
		return nil, storageErr("read "+symbol, err)
	}
	defer rows.Close()

	records := []model.PriceRecord{}
	for rows.Next() {
		var (
			r    model.PriceRecord
			date string
		)
		if err := rows.Scan(&date, &r.Open, &r.High, &r.Low, &r.Close, &r.Volume, &r.AdjClose); err != nil {
			return nil, storageErr("scan "+symbol, err)
		}
		if r.Date, err = time.Parse(model.DateFormat, date); err != nil {
			return nil, storageErr("parse stored date "+date, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read "+symbol, err)
	}
	return records, nil
}

func (s *SQLiteStore) SymbolExists(ctx context.Context, symbol string) (bool, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return false, err
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM series WHERE symbol = ?`, symbol).Scan(&n)
	if err != nil {
		return false, storageErr("lookup "+symbol, err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) LastDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return time.Time{}, false, err
	}
	var last sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM prices WHERE symbol = ?`, symbol).Scan(&last)
	if err != nil {
		return time.Time{}, false, storageErr("last date "+symbol, err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(model.DateFormat, last.String)
	if err != nil {
		return time.Time{}, false, storageErr("parse stored date "+last.String, err)
	}
	return t, true, nil
}

func (s *SQLiteStore) Symbols(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT symbol FROM series`)
	if err != nil {
		return nil, storageErr("list symbols", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, storageErr("list symbols", err)
		}
		symbols = append(symbols, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list symbols", err)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func (s *SQLiteStore) Metadata(ctx context.Context, symbol string) (model.SymbolMetadata, bool, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return model.SymbolMetadata{}, false, err
	}
	meta := model.SymbolMetadata{Symbol: symbol}
	var typ string
	err := s.db.QueryRowContext(ctx, `SELECT name, type, sector, industry FROM summary WHERE symbol = ?`, symbol).
		Scan(&meta.Name, &typ, &meta.Sector, &meta.Industry)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SymbolMetadata{}, false, nil
	}
	if err != nil {
		return model.SymbolMetadata{}, false, storageErr("metadata "+symbol, err)
	}
	meta.Type = model.SecurityType(typ)
	return meta, true, nil
}

// Begin starts a transaction-scoped unit of work.
func (s *SQLiteStore) Begin(ctx context.Context) (Unit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("begin", err)
	}
	return &sqliteUnit{tx: tx}, nil
}

func (s *SQLiteStore) Close() error {
	s.log.Info("closing sqlite store")
	return s.db.Close()
}

func ensureSeries(ctx context.Context, q querier, symbol string) error {
	if err := model.CheckSymbol(symbol); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO series (symbol, created_at) VALUES (?, ?)`,
		symbol, time.Now().Unix())
	if err != nil {
		return storageErr("ensure series "+symbol, err)
	}
	return nil
}

func upsert(ctx context.Context, q querier, symbol string, records []model.PriceRecord) (int, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	stmt, err := q.PrepareContext(ctx, `INSERT OR IGNORE INTO prices
		(symbol, date, open, high, low, close, volume, adj_close)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, storageErr("prepare upsert", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		if r.Date.IsZero() {
			return inserted, fmt.Errorf("upsert %s: record without date: %w", symbol, model.ErrValidation)
		}
		res, err := stmt.ExecContext(ctx, symbol, model.FormatDate(model.Day(r.Date)),
			r.Open, r.High, r.Low, r.Close, r.Volume, r.AdjClose)
		if err != nil {
			return inserted, storageErr("upsert "+symbol, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, storageErr("upsert "+symbol, err)
		}
		inserted += int(n)
	}
	return inserted, nil
}

func writeMetadata(ctx context.Context, q querier, symbol string, meta model.SymbolMetadata) (bool, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return false, err
	}
	typ := meta.Type
	if typ == "" {
		typ = model.TypeUnknown
	}
	res, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO summary
		(symbol, name, type, sector, industry) VALUES (?,?,?,?,?)`,
		symbol, meta.Name, string(typ), meta.Sector, meta.Industry,
	)
	if err != nil {
		return false, storageErr("write metadata "+symbol, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("write metadata "+symbol, err)
	}
	return n > 0, nil
}
