package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"QuantCache/internal/model"
)

// HTTPOptions configures the shared client of the HTTP sources.
type HTTPOptions struct {
	ProxyURL   string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Backoff <= 0 {
		o.Backoff = time.Second
	}
	return o
}

func newHTTPClient(o HTTPOptions) *http.Client {
	transport := &http.Transport{}
	if o.ProxyURL != "" {
		if u, err := url.Parse(o.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   o.Timeout,
		Transport: transport,
	}
}

// getter performs GETs with exponential backoff on throttling, server errors
// and transport failures.
type getter struct {
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	header     http.Header
	log        logrus.FieldLogger
}

func newGetter(o HTTPOptions, log logrus.FieldLogger) *getter {
	o = o.withDefaults()
	return &getter{
		client:     newHTTPClient(o),
		maxRetries: o.MaxRetries,
		backoff:    o.Backoff,
		header:     http.Header{},
		log:        log,
	}
}

// get returns the status and body of the first non-retryable response.
func (g *getter) get(ctx context.Context, endpoint string) (int, []byte, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			wait := g.backoff * time.Duration(1<<uint(attempt-1))
			g.log.WithFields(logrus.Fields{"attempt": attempt + 1, "wait": wait}).
				Warnf("quote request failed: %v, retrying", lastErr)
			select {
			case <-ctx.Done():
				return 0, nil, fmt.Errorf("%w: %w", model.ErrUnavailable, ctx.Err())
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("build request: %w", err)
		}
		for k, v := range g.header {
			req.Header[k] = v
		}

		resp, err := g.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, fmt.Errorf("%w: %w", model.ErrUnavailable, ctx.Err())
			}
			lastErr = err
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}
		return resp.StatusCode, body, nil
	}
	return 0, nil, fmt.Errorf("%w: %d attempts: %w", model.ErrUnavailable, g.maxRetries+1, lastErr)
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
