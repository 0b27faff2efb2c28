package notifier

import (
	"fmt"
	"strings"
	"time"

	"QuantCache/internal/analysis"
	"QuantCache/internal/model"
	"QuantCache/internal/syncer"
)

// FormatSyncReport formats the completion report of a batch run as Markdown.
func FormatSyncReport(title string, at time.Time, sum syncer.Summary, outcomes []model.SyncOutcome) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s | %s\n\n", title, at.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("- Symbols: %d\n", sum.Total))
	b.WriteString(fmt.Sprintf("- Succeeded: %d\n", sum.Succeeded))
	b.WriteString(fmt.Sprintf("- Failed: %d\n", sum.Failed))
	b.WriteString(fmt.Sprintf("- Records inserted: %d\n", sum.Inserted))

	if sum.Failed > 0 {
		b.WriteString("\n## Failures\n\n")
		for _, reason := range sum.Reasons() {
			symbols := sum.Failures[reason]
			b.WriteString(fmt.Sprintf("- **%s** (%d): %s\n", reason, len(symbols), strings.Join(symbols, ", ")))
		}
	}

	// Per-symbol detail only for small runs
	if len(outcomes) > 0 && len(outcomes) <= 20 {
		b.WriteString("\n| Symbol | Range | Fetched | Inserted | Status |\n")
		b.WriteString("|---|---|---:|---:|---|\n")
		for _, o := range outcomes {
			status := "ok"
			if !o.OK() {
				status = o.Reason()
			}
			b.WriteString(fmt.Sprintf("| %s | %s .. %s | %d | %d | %s |\n",
				o.Symbol, model.FormatDate(o.Start), model.FormatDate(o.End), o.Fetched, o.Inserted, status))
		}
	}
	return b.String()
}

// FormatOutcome formats a single-symbol sync.
func FormatOutcome(o model.SyncOutcome) string {
	if !o.OK() {
		return fmt.Sprintf("**%s** sync failed (%s): %v\n", o.Symbol, o.Reason(), o.Err)
	}
	return fmt.Sprintf("**%s** %s .. %s: fetched %d, inserted %d, metadata written: %v (%s)\n",
		o.Symbol, model.FormatDate(o.Start), model.FormatDate(o.End),
		o.Fetched, o.Inserted, o.MetadataWritten, o.Elapsed.Round(time.Millisecond))
}

// FormatAnalysisReport formats the statistics of one series as Markdown.
func FormatAnalysisReport(series model.SymbolSeries, meta *model.SymbolMetadata, ind model.SeriesIndicators, rep analysis.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# %s", series.Symbol))
	if meta != nil && meta.Name != "" {
		b.WriteString(fmt.Sprintf(" (%s, %s)", meta.Name, meta.Type))
	}
	b.WriteString(fmt.Sprintf("\n\n%d observations, %s .. %s\n\n",
		series.Len(), model.FormatDate(series.First()), model.FormatDate(series.Last())))

	// Indicators
	b.WriteString("## Indicators\n\n")
	b.WriteString(fmt.Sprintf("- Adj close: %.2f\n", ind.LastAdjClose))
	if ind.SMA20 > 0 {
		b.WriteString(fmt.Sprintf("- SMA20: %.2f | Bollinger(20, 2): %.2f .. %.2f\n", ind.SMA20, ind.BollingerLo, ind.BollingerHi))
	}
	if ind.SMA200 > 0 {
		dev := (ind.LastAdjClose - ind.SMA200) / ind.SMA200 * 100
		b.WriteString(fmt.Sprintf("- SMA200: %.2f (deviation %+.1f%%)\n", ind.SMA200, dev))
	}
	b.WriteString(fmt.Sprintf("- RSI14: %.0f\n", ind.RSI14))
	b.WriteString(fmt.Sprintf("- 52w range: %.2f .. %.2f (position %.0f%%)\n", ind.Low52w, ind.High52w, ind.Position52w*100))
	b.WriteString(fmt.Sprintf("- Sharpe: %.2f\n\n", ind.Sharpe))

	// Tests
	b.WriteString("## Statistical tests\n\n")
	b.WriteString(formatADF(rep.ADF))
	b.WriteString("\n| Statistic | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| Hurst exponent | %s |\n", valueOrErr(rep.Hurst, rep.HurstErr, "%.3f")))
	if rep.VRErr != nil {
		b.WriteString(fmt.Sprintf("| Variance ratio | %s |\n", model.ErrorKind(rep.VRErr)))
	} else {
		b.WriteString(fmt.Sprintf("| Variance ratio (%d) | %.3f (z=%.2f, p=%.3f) |\n", rep.VR.Lag, rep.VR.Ratio, rep.VR.Statistic, rep.VR.PValue))
	}
	b.WriteString(fmt.Sprintf("| Half-life | %s |\n\n", valueOrErr(rep.HalfLife, rep.HalfLifeErr, "%.1f periods")))

	b.WriteString(formatSignal(rep.Signal))
	return b.String()
}

// FormatCointegrationReport formats a cointegrated ADF test of a on b.
func FormatCointegrationReport(a, b string, n int, res analysis.CointegrationResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s / %s\n\n", a, b))
	sb.WriteString(fmt.Sprintf("%d aligned observations\n\n", n))
	sb.WriteString(fmt.Sprintf("- Hedge ratio: %.4f (intercept %.4f)\n", res.HedgeRatio, res.Intercept))
	sb.WriteString(fmt.Sprintf("- Spread: %s - %.4f x %s\n\n", a, res.HedgeRatio, b))
	sb.WriteString(formatADF(res.ADF))
	verdict := "not cointegrated at 5%"
	if res.Cointegrated(analysis.Level5) {
		verdict = "cointegrated at 5%"
	}
	sb.WriteString(fmt.Sprintf("\n**Verdict:** %s\n", verdict))
	return sb.String()
}

func formatADF(r analysis.ADFResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("ADF statistic **%.4f**, p-value %.4f, lags %d, nobs %d\n\n", r.Statistic, r.PValue, r.UsedLag, r.NObs))
	b.WriteString("| Level | Critical value | Rejects unit root |\n|---|---:|---|\n")
	for _, level := range analysis.Levels {
		b.WriteString(fmt.Sprintf("| %s | %.4f | %v |\n", level, r.CriticalValues[level], r.Rejects(level)))
	}
	return b.String()
}

func formatSignal(sig model.RegimeSignal) string {
	var b strings.Builder
	b.WriteString("## Regime\n\n")
	for _, f := range sig.Factors {
		b.WriteString(fmt.Sprintf("- %s (%s): %+.1f x %.2f = %+.3f\n",
			f.Name, f.Commentary, f.RawScore, f.Weight, f.Weighted))
	}
	b.WriteString(fmt.Sprintf("\nTotal score %+.3f: **%s**\n", sig.TotalScore, sig.Regime))
	if sig.WarningMsg != "" {
		b.WriteString(fmt.Sprintf("\n> %s\n", sig.WarningMsg))
	}
	return b.String()
}

func valueOrErr(v float64, err error, format string) string {
	if err != nil {
		return model.ErrorKind(err)
	}
	return fmt.Sprintf(format, v)
}
