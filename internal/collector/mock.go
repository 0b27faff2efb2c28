package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"QuantCache/internal/model"
)

// MockSource returns controllable data for development and testing.
// Symbols in Data return those records; symbols in Fail return that error;
// any other symbol gets a generated series around Price, or ErrNotFound when
// Price is zero.
type MockSource struct {
	Price float64
	Data  map[string][]model.PriceRecord
	Fail  map[string]error

	mu    sync.Mutex
	calls []string
}

func (m *MockSource) Name() string { return "mock" }

// Calls returns the symbols fetched so far, in call order.
func (m *MockSource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mock %s: %w: %w", symbol, model.ErrUnavailable, err)
	}
	if err := model.CheckRange(start, end); err != nil {
		return nil, err
	}
	if err, ok := m.Fail[symbol]; ok {
		return nil, fmt.Errorf("mock %s: %w", symbol, err)
	}
	if recs, ok := m.Data[symbol]; ok {
		return normalize(recs, start, end), nil
	}
	if m.Price <= 0 {
		return nil, fmt.Errorf("mock %s: %w", symbol, model.ErrNotFound)
	}
	return normalize(generateMockBars(symbol, m.Price, start, end), start, end), nil
}

// generateMockBars produces one bar per weekday with a symbol-specific,
// deterministic oscillation around basePrice.
func generateMockBars(symbol string, basePrice float64, start, end time.Time) []model.PriceRecord {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	phase := float64(h.Sum32()%360) * math.Pi / 180

	var bars []model.PriceRecord
	for d := model.Day(start); !d.After(model.Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		t := float64(d.Unix()/86400) / 10
		p := basePrice * (1 + 0.05*math.Sin(t+phase))
		bars = append(bars, model.PriceRecord{
			Date:     d,
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			Volume:   1000000,
			AdjClose: p,
		})
	}
	return bars
}
