// Package syncer keeps the local store current with a quote source.
package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"QuantCache/internal/collector"
	"QuantCache/internal/model"
	"QuantCache/internal/store"
)

// Catalog is the symbol universe the batch operations walk.
type Catalog interface {
	Lookup(symbol string) (model.SymbolMetadata, bool)
	Symbols() []string
}

// Synchronizer fetches daily records and writes them through the store.
type Synchronizer struct {
	Source  collector.QuoteSource
	Store   store.Store
	Catalog Catalog
	Log     logrus.FieldLogger
	// Workers bounds concurrent symbols in batch runs; 1 is sequential.
	Workers int
	// Window is the trailing range of batch runs without a start override.
	Window time.Duration
	// Now is the clock used to resolve "today".
	Now func() time.Time
}

// New creates a sequential Synchronizer with the default window.
func New(src collector.QuoteSource, st store.Store, cat Catalog, log logrus.FieldLogger) *Synchronizer {
	return &Synchronizer{
		Source:  src,
		Store:   st,
		Catalog: cat,
		Log:     log,
		Workers: 1,
		Window:  model.DefaultWindow,
		Now:     time.Now,
	}
}

// Today returns the current calendar day.
func (s *Synchronizer) Today() time.Time {
	if s.Now == nil {
		return model.Day(time.Now())
	}
	return model.Day(s.Now())
}

func (s *Synchronizer) window() time.Duration {
	if s.Window <= 0 {
		return model.DefaultWindow
	}
	return s.Window
}

// SyncOne fetches symbol over [start, end] and stores the records in one
// unit of work together with the catalog metadata, if any. A failed fetch
// writes nothing. The returned outcome carries the same error.
func (s *Synchronizer) SyncOne(ctx context.Context, symbol string, start, end time.Time) (model.SyncOutcome, error) {
	began := time.Now()
	out := model.SyncOutcome{Symbol: symbol, Start: model.Day(start), End: model.Day(end)}
	err := s.syncOne(ctx, &out)
	out.Err = err
	out.Elapsed = time.Since(began)

	entry := s.Log.WithFields(logrus.Fields{
		"symbol":  symbol,
		"start":   model.FormatDate(out.Start),
		"end":     model.FormatDate(out.End),
		"fetched": out.Fetched,
	})
	if err != nil {
		entry.WithField("reason", out.Reason()).Warnf("sync failed: %v", err)
		return out, err
	}
	entry.WithFields(logrus.Fields{
		"inserted": out.Inserted,
		"metadata": out.MetadataWritten,
	}).Info("symbol synced")
	return out, nil
}

func (s *Synchronizer) syncOne(ctx context.Context, out *model.SyncOutcome) error {
	if err := model.CheckSymbol(out.Symbol); err != nil {
		return err
	}
	if err := model.CheckRange(out.Start, out.End); err != nil {
		return err
	}

	records, err := s.Source.Fetch(ctx, out.Symbol, out.Start, out.End)
	if err != nil {
		return err
	}
	out.Fetched = len(records)

	unit, err := s.Store.Begin(ctx)
	if err != nil {
		return err
	}
	defer unit.Rollback()

	if err := unit.EnsureSeriesExists(ctx, out.Symbol); err != nil {
		return err
	}
	if out.Inserted, err = unit.Upsert(ctx, out.Symbol, records); err != nil {
		return err
	}
	if s.Catalog != nil {
		if meta, ok := s.Catalog.Lookup(out.Symbol); ok {
			if out.MetadataWritten, err = unit.WriteMetadataOnce(ctx, out.Symbol, meta); err != nil {
				return err
			}
		}
	}
	if err := unit.Commit(); err != nil {
		out.Inserted, out.MetadataWritten = 0, false
		return err
	}
	return nil
}

// SyncAll syncs every valid catalog symbol up to today. Without a start
// override each symbol starts at the trailing window, or the day after its
// last stored date when that is older. Per-symbol failures are recorded in
// the outcomes and the batch continues. An override after today fails the
// batch with model.ErrValidation. Cancelling ctx stops scheduling symbols;
// the outcomes of started symbols are returned with the context error.
func (s *Synchronizer) SyncAll(ctx context.Context, startOverride *time.Time) ([]model.SyncOutcome, error) {
	end := s.Today()
	if startOverride != nil {
		if err := model.CheckRange(*startOverride, end); err != nil {
			return nil, err
		}
	}

	symbols := s.batchSymbols()
	outcomes := make([]model.SyncOutcome, len(symbols))
	s.Log.WithFields(logrus.Fields{"symbols": len(symbols), "workers": max(s.Workers, 1)}).Info("batch sync started")

	var g errgroup.Group
	g.SetLimit(max(s.Workers, 1))
	scheduled := 0
	for i, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		scheduled++
		i, symbol := i, symbol
		g.Go(func() error {
			outcomes[i] = s.syncBatchSymbol(ctx, symbol, startOverride, end)
			return nil
		})
	}
	g.Wait()
	outcomes = outcomes[:scheduled]

	sum := Summarize(outcomes)
	s.Log.WithFields(logrus.Fields{
		"succeeded": sum.Succeeded,
		"failed":    sum.Failed,
		"inserted":  sum.Inserted,
	}).Info("batch sync finished")

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("batch sync interrupted after %d of %d symbols: %w", scheduled, len(symbols), err)
	}
	return outcomes, nil
}

// Backfill syncs every catalog symbol from start to today. Re-running it is
// safe since existing dates are never rewritten.
func (s *Synchronizer) Backfill(ctx context.Context, start time.Time) ([]model.SyncOutcome, error) {
	start = model.Day(start)
	return s.SyncAll(ctx, &start)
}

func (s *Synchronizer) batchSymbols() []string {
	if s.Catalog == nil {
		return nil
	}
	all := s.Catalog.Symbols()
	valid := make([]string, 0, len(all))
	for _, symbol := range all {
		if !model.ValidSymbol(symbol) {
			s.Log.WithField("symbol", symbol).Debug("skipping symbol with unsupported characters")
			continue
		}
		valid = append(valid, symbol)
	}
	return valid
}

func (s *Synchronizer) syncBatchSymbol(ctx context.Context, symbol string, override *time.Time, end time.Time) model.SyncOutcome {
	var start time.Time
	if override != nil {
		start = *override
	} else {
		var err error
		if start, err = s.windowStart(ctx, symbol, end); err != nil {
			s.Log.WithField("symbol", symbol).Warnf("sync failed: %v", err)
			return model.SyncOutcome{Symbol: symbol, End: end, Err: err}
		}
	}
	out, _ := s.SyncOne(ctx, symbol, start, end)
	return out
}

// windowStart is the trailing window start, pulled back to the day after
// the last stored date when the series would otherwise be left with a hole.
func (s *Synchronizer) windowStart(ctx context.Context, symbol string, end time.Time) (time.Time, error) {
	start := model.Day(end.Add(-s.window()))
	last, ok, err := s.Store.LastDate(ctx, symbol)
	if err != nil {
		return time.Time{}, err
	}
	if ok && last.Before(start) {
		return model.Day(last).AddDate(0, 0, 1), nil
	}
	return start, nil
}
