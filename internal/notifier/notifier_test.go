package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/analysis"
	"QuantCache/internal/model"
	"QuantCache/internal/syncer"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeTelegram struct {
	mu       sync.Mutex
	failures int
	texts    []string
	chatIDs  []string
}

func (f *fakeTelegram) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failures > 0 {
			f.failures--
			http.Error(w, `{"ok":false}`, http.StatusTooManyRequests)
			return
		}
		f.texts = append(f.texts, payload["text"])
		f.chatIDs = append(f.chatIDs, payload["chat_id"])
		io.WriteString(w, `{"ok":true}`)
	}
}

func newTestNotifier(t *testing.T, fake *fakeTelegram) *TelegramNotifier {
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	n := NewTelegramNotifier("TOKEN", "42", "", quietLogger())
	n.BaseURL = srv.URL
	n.Backoff = time.Millisecond
	return n
}

func TestTelegramNotifier_Send(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)

	require.NoError(t, n.Send(context.Background(), "hello"))
	assert.Equal(t, []string{"hello"}, fake.texts)
	assert.Equal(t, []string{"42"}, fake.chatIDs)
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	fake := &fakeTelegram{failures: 2}
	n := newTestNotifier(t, fake)

	require.NoError(t, n.SendWithRetry(context.Background(), "report", 3))
	assert.Equal(t, []string{"report"}, fake.texts)

	fake.failures = 5
	err := n.SendWithRetry(context.Background(), "report", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 attempts failed")
}

func TestTelegramNotifier_SplitsLongMessages(t *testing.T) {
	fake := &fakeTelegram{}
	n := newTestNotifier(t, fake)

	line := strings.Repeat("x", 99) + "\n"
	require.NoError(t, n.Send(context.Background(), strings.Repeat(line, 100)))
	require.Len(t, fake.texts, 3)
	for _, text := range fake.texts {
		assert.LessOrEqual(t, len(text), maxMessageLen)
	}
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))
	assert.Equal(t, []string{"aaaa", "bbbb", "cc"}, splitMessage("aaaa\nbbbb\ncc", 6))
	assert.Equal(t, []string{"abcdef", "ghij"}, splitMessage("abcdefghij", 6))
}

func TestFormatSyncReport(t *testing.T) {
	outcomes := []model.SyncOutcome{
		{Symbol: "AAA", Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Fetched: 23, Inserted: 23},
		{Symbol: "BBB", Err: fmt.Errorf("timeout: %w", model.ErrUnavailable)},
		{Symbol: "CCC", Err: fmt.Errorf("gone: %w", model.ErrNotFound)},
	}
	report := FormatSyncReport("Update", time.Date(2024, 2, 1, 22, 30, 0, 0, time.UTC), syncer.Summarize(outcomes), outcomes)

	assert.Contains(t, report, "# Update | 2024-02-01 22:30")
	assert.Contains(t, report, "- Succeeded: 1")
	assert.Contains(t, report, "- Failed: 2")
	assert.Contains(t, report, "- Records inserted: 23")
	assert.Contains(t, report, "- **not_found** (1): CCC")
	assert.Contains(t, report, "- **unavailable** (1): BBB")
	assert.Contains(t, report, "| AAA | 2024-01-01 .. 2024-01-31 | 23 | 23 | ok |")
	assert.Less(t, strings.Index(report, "not_found"), strings.Index(report, "unavailable"))
}

func TestFormatOutcome(t *testing.T) {
	ok := FormatOutcome(model.SyncOutcome{Symbol: "AAA", Fetched: 3, Inserted: 2})
	assert.Contains(t, ok, "fetched 3, inserted 2")

	failed := FormatOutcome(model.SyncOutcome{Symbol: "AAA", Err: errors.New("boom")})
	assert.Contains(t, failed, "sync failed (other): boom")
}

func TestFormatAnalysisReport(t *testing.T) {
	series := model.SymbolSeries{Symbol: "AAA", Records: []model.PriceRecord{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)},
	}}
	meta := &model.SymbolMetadata{Symbol: "AAA", Name: "alpha inc", Type: model.TypeStock}
	ind := model.SeriesIndicators{LastAdjClose: 110, SMA20: 105, SMA200: 100, RSI14: 61, High52w: 120, Low52w: 80, Position52w: 0.75}
	rep := analysis.Report{
		NObs:        2,
		ADF:         analysis.ADFResult{Statistic: -3.9, PValue: 0.002, UsedLag: 1, NObs: 250, CriticalValues: analysis.CriticalValues(250)},
		Hurst:       0.31,
		VRErr:       model.InsufficientData("variance ratio", 2, 5),
		HalfLifeErr: fmt.Errorf("slope: %w", model.ErrDegenerateResult),
	}
	rep.Signal = analysis.Evaluate(rep)

	report := FormatAnalysisReport(series, meta, ind, rep)
	assert.Contains(t, report, "# AAA (alpha inc, stock)")
	assert.Contains(t, report, "2024-01-02 .. 2024-06-28")
	assert.Contains(t, report, "SMA200: 100.00 (deviation +10.0%)")
	assert.Contains(t, report, "| 1% |")
	assert.Contains(t, report, "| Hurst exponent | 0.310 |")
	assert.Contains(t, report, "| Variance ratio | insufficient_data |")
	assert.Contains(t, report, "| Half-life | degenerate |")
	assert.Contains(t, report, "**"+string(rep.Signal.Regime)+"**")
	assert.Contains(t, report, "> only 2 observations")
}

func TestFormatCointegrationReport(t *testing.T) {
	res := analysis.CointegrationResult{
		HedgeRatio: 2.0012,
		ADF:        analysis.ADFResult{Statistic: -5, PValue: 0.0001, NObs: 990, CriticalValues: analysis.CriticalValues(990)},
	}
	report := FormatCointegrationReport("AAA", "BBB", 1000, res)
	assert.Contains(t, report, "Hedge ratio: 2.0012")
	assert.Contains(t, report, "**Verdict:** cointegrated at 5%")
}
