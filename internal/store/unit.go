package store

import (
	"context"
	"database/sql"
	"errors"

	"QuantCache/internal/model"
)

type sqliteUnit struct {
	tx   *sql.Tx
	done bool
}

func (u *sqliteUnit) EnsureSeriesExists(ctx context.Context, symbol string) error {
	return ensureSeries(ctx, u.tx, symbol)
}

func (u *sqliteUnit) Upsert(ctx context.Context, symbol string, records []model.PriceRecord) (int, error) {
	return upsert(ctx, u.tx, symbol, records)
}

func (u *sqliteUnit) WriteMetadataOnce(ctx context.Context, symbol string, meta model.SymbolMetadata) (bool, error) {
	return writeMetadata(ctx, u.tx, symbol, meta)
}

func (u *sqliteUnit) Commit() error {
	u.done = true
	if err := u.tx.Commit(); err != nil {
		return storageErr("commit", err)
	}
	return nil
}

func (u *sqliteUnit) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return storageErr("rollback", err)
	}
	return nil
}
