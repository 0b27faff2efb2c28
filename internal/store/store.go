// Package store persists symbol price series and their summary metadata.
package store

import (
	"context"
	"fmt"
	"time"

	"QuantCache/internal/model"
)

// Writer is the write half of the store contract. Both the store itself and
// a Unit of work implement it.
type Writer interface {
	// EnsureSeriesExists registers symbol; calling it again is a no-op.
	EnsureSeriesExists(ctx context.Context, symbol string) error
	// Upsert inserts records whose date is not stored yet and returns how
	// many were inserted. Existing dates are never overwritten.
	Upsert(ctx context.Context, symbol string, records []model.PriceRecord) (int, error)
	// WriteMetadataOnce inserts the summary row unless one exists and
	// reports whether it wrote.
	WriteMetadataOnce(ctx context.Context, symbol string, meta model.SymbolMetadata) (bool, error)
}

// Reader is the read half of the store contract.
type Reader interface {
	// ReadRange returns records with start <= date <= end in ascending date
	// order. A zero end means no upper bound. Unknown symbols yield an empty
	// slice, not an error.
	ReadRange(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error)
	SymbolExists(ctx context.Context, symbol string) (bool, error)
	// LastDate returns the newest stored date, ok is false for empty series.
	LastDate(ctx context.Context, symbol string) (last time.Time, ok bool, err error)
	Symbols(ctx context.Context) ([]string, error)
	Metadata(ctx context.Context, symbol string) (meta model.SymbolMetadata, ok bool, err error)
}

// Unit is a scoped unit of work. Rollback after Commit is a no-op so callers
// can always defer it.
type Unit interface {
	Writer
	Commit() error
	Rollback() error
}

// Store owns the on-disk representation of series and metadata.
type Store interface {
	Writer
	Reader
	// Begin acquires a unit of work that must be committed or rolled back.
	Begin(ctx context.Context) (Unit, error)
	Close() error
}

// ReadSeries loads the whole stored history of symbol.
func ReadSeries(ctx context.Context, r Reader, symbol string) (model.SymbolSeries, error) {
	records, err := r.ReadRange(ctx, symbol, time.Time{}, time.Time{})
	if err != nil {
		return model.SymbolSeries{}, err
	}
	return model.SymbolSeries{Symbol: symbol, Records: records}, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorage, err)
}
