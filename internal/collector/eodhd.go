package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"QuantCache/internal/model"
)

const eodhdBaseURL = "https://eodhd.com"

// EODHDSource implements QuoteSource using the EOD Historical Data REST API.
type EODHDSource struct {
	BaseURL  string
	APIKey   string
	Exchange string // suffix appended to plain tickers, "US" by default
	http     *getter
}

// NewEODHDSource creates a new source for the given API key.
func NewEODHDSource(apiKey string, opts HTTPOptions, log logrus.FieldLogger) *EODHDSource {
	return &EODHDSource{
		BaseURL:  eodhdBaseURL,
		APIKey:   apiKey,
		Exchange: "US",
		http:     newGetter(opts, log.WithField("source", "eodhd")),
	}
}

func (f *EODHDSource) Name() string { return "eodhd" }

// eodBar is the JSON shape of one day from the eod endpoint.
type eodBar struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        float64 `json:"volume"`
}

func (f *EODHDSource) ticker(symbol string) string {
	if strings.Contains(symbol, ".") || f.Exchange == "" {
		return symbol
	}
	return symbol + "." + f.Exchange
}

func (f *EODHDSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]model.PriceRecord, error) {
	if err := model.CheckRange(start, end); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("api_token", f.APIKey)
	q.Set("fmt", "json")
	q.Set("period", "d")
	q.Set("from", model.FormatDate(start))
	q.Set("to", model.FormatDate(end))
	endpoint := fmt.Sprintf("%s/api/eod/%s?%s", f.BaseURL, url.PathEscape(f.ticker(symbol)), q.Encode())

	status, body, err := f.http.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("eodhd %s: %w", symbol, err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("eodhd %s: %s: %w", symbol, snippet(body), model.ErrNotFound)
	case status != http.StatusOK:
		return nil, fmt.Errorf("eodhd %s: status %d, body: %s: %w", symbol, status, snippet(body), model.ErrUnavailable)
	}

	var bars []eodBar
	if err := json.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("eodhd %s: decode bars: %v: %w", symbol, err, model.ErrUnavailable)
	}

	records := make([]model.PriceRecord, 0, len(bars))
	for _, b := range bars {
		d, err := time.Parse(model.DateFormat, b.Date)
		if err != nil {
			continue
		}
		records = append(records, model.PriceRecord{
			Date:     d,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   int64(b.Volume),
			AdjClose: b.AdjustedClose,
		})
	}
	return normalize(records, start, end), nil
}
