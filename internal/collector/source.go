// Package collector retrieves daily price history from remote quote sources.
package collector

import (
	"context"
	"sort"
	"time"

	"QuantCache/internal/model"
)

// QuoteSource returns the daily records of symbol within [start, end].
// Errors wrap model.ErrNotFound for unknown symbols and model.ErrUnavailable
// for transient failures.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error)
	Name() string
}

// normalize keeps valid records within [start, end], one per day, ascending.
func normalize(records []model.PriceRecord, start, end time.Time) []model.PriceRecord {
	lo, hi := model.Day(start), model.Day(end)
	out := make([]model.PriceRecord, 0, len(records))
	for _, r := range records {
		r.Date = model.Day(r.Date)
		if r.Date.Before(lo) || r.Date.After(hi) || !r.Valid() {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for i, r := range out {
		if i > 0 && r.Date.Equal(dedup[len(dedup)-1].Date) {
			continue
		}
		dedup = append(dedup, r)
	}
	return dedup
}
