package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"QuantCache/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooSource implements QuoteSource using the Yahoo Finance chart API.
type YahooSource struct {
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
	http      *getter
}

// NewYahooSource creates a Yahoo Finance source.
func NewYahooSource(opts HTTPOptions, log logrus.FieldLogger) *YahooSource {
	g := newGetter(opts, log.WithField("source", "yahoo"))
	g.header.Set("User-Agent", "Mozilla/5.0")
	return &YahooSource{
		BaseURL: yahooBaseURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"DJI":    "^DJI",
			"VIX":    "^VIX",
		},
		http: g,
	}
}

func (f *YahooSource) Name() string { return "yahoo" }

func (f *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func (f *YahooSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error) {
	if err := model.CheckRange(start, end); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("period1", fmt.Sprint(model.Day(start).Unix()))
	q.Set("period2", fmt.Sprint(model.Day(end).AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	q.Set("includeAdjustedClose", "true")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	status, body, err := f.http.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(body, &chart)
	if decodeErr == nil && chart.Chart.Error != nil {
		if status == http.StatusNotFound || chart.Chart.Error.Code == "Not Found" {
			return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, model.ErrNotFound)
		}
		return nil, fmt.Errorf("yahoo %s: api error %s: %w", symbol, chart.Chart.Error.Description, model.ErrUnavailable)
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: status 404: %w", symbol, model.ErrNotFound)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d, body: %s: %w", symbol, status, snippet(body), model.ErrUnavailable)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo %s: decode: %v: %w", symbol, decodeErr, model.ErrUnavailable)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty result: %w", symbol, model.ErrNotFound)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		// valid symbol, no trading day in range
		return []model.PriceRecord{}, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	records := make([]model.PriceRecord, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		c := at(quote.Close, i)
		if c == 0 {
			continue // null bar (holiday, halted)
		}
		a := at(adj, i)
		if a == 0 {
			a = c
		}
		records = append(records, model.PriceRecord{
			Date:     time.Unix(ts+result.Meta.GMTOffset, 0).UTC(),
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    c,
			Volume:   int64(at(quote.Volume, i)),
			AdjClose: a,
		})
	}
	return normalize(records, start, end), nil
}
