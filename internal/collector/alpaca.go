package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"QuantCache/internal/model"
)

// barsClient is the subset of *marketdata.Client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaSource implements QuoteSource with Alpaca daily bars. Close comes
// from unadjusted bars and AdjClose from split and dividend adjusted ones.
type AlpacaSource struct {
	client barsClient
}

// NewAlpacaSource creates a source backed by the Alpaca market data API.
func NewAlpacaSource(apiKey, apiSecret string) *AlpacaSource {
	return &AlpacaSource{
		client: marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
		}),
	}
}

func (f *AlpacaSource) Name() string { return "alpaca" }

func (f *AlpacaSource) bars(symbol string, start, end time.Time, adj marketdata.Adjustment) ([]marketdata.Bar, error) {
	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      model.Day(start),
		End:        model.Day(end).AddDate(0, 0, 1),
		Adjustment: adj,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca %s (%s): %v: %w", symbol, adj, err, model.ErrUnavailable)
	}
	return bars, nil
}

func (f *AlpacaSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error) {
	if err := model.CheckRange(start, end); err != nil {
		return nil, err
	}
	raw, err := f.bars(symbol, start, end, marketdata.Raw)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("alpaca %s: %w: %w", symbol, model.ErrUnavailable, err)
	}
	adjusted, err := f.bars(symbol, start, end, marketdata.All)
	if err != nil {
		return nil, err
	}

	adjClose := make(map[time.Time]float64, len(adjusted))
	for _, b := range adjusted {
		adjClose[model.Day(b.Timestamp.UTC())] = b.Close
	}

	records := make([]model.PriceRecord, 0, len(raw))
	for _, b := range raw {
		d := model.Day(b.Timestamp.UTC())
		a, ok := adjClose[d]
		if !ok {
			a = b.Close
		}
		records = append(records, model.PriceRecord{
			Date:     d,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   int64(b.Volume),
			AdjClose: a,
		})
	}
	return normalize(records, start, end), nil
}
