package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"QuantCache/internal/analysis"
	"QuantCache/internal/calculator"
	"QuantCache/internal/model"
	"QuantCache/internal/notifier"
	"QuantCache/internal/store"
)

// rangeFlags selects a slice of the stored history; empty means unbounded.
type rangeFlags struct {
	start, end string
}

func (r *rangeFlags) set(f *flag.FlagSet) {
	f.StringVar(&r.start, "start", "", "First day of the sample (defaults to the first stored day)")
	f.StringVar(&r.end, "end", "", "Last day of the sample (defaults to the last stored day)")
}

func (r *rangeFlags) resolve() (start, end time.Time, err error) {
	if r.start != "" {
		if start, err = model.ParseDate(r.start); err != nil {
			return
		}
	}
	if r.end != "" {
		if end, err = model.ParseDate(r.end); err != nil {
			return
		}
	}
	if !start.IsZero() && !end.IsZero() {
		err = model.CheckRange(start, end)
	}
	return
}

// readStored loads the stored records of symbol in [start, end].
func readStored(ctx context.Context, r store.Reader, symbol string, start, end time.Time) (model.SymbolSeries, error) {
	if err := model.CheckSymbol(symbol); err != nil {
		return model.SymbolSeries{}, err
	}
	records, err := r.ReadRange(ctx, symbol, start, end)
	if err != nil {
		return model.SymbolSeries{}, err
	}
	if len(records) == 0 {
		return model.SymbolSeries{}, fmt.Errorf("no stored data for %s, run sync first: %w", symbol, model.ErrNotFound)
	}
	return model.SymbolSeries{Symbol: symbol, Records: records}, nil
}

type analyzeCmd struct {
	app  *App
	rng  rangeFlags
	opts analysis.Options
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "run the statistical tests on a stored symbol" }
func (*analyzeCmd) Usage() string {
	return `quantcache analyze [-start] [-end] [-lag N] [-hurst-lag N] [-vr-lag N] SYMBOL

  Reads the stored adjusted closes of SYMBOL and reports indicators, the ADF
  test, the Hurst exponent, the variance ratio, the half-life and the
  resulting regime.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	def := analysis.DefaultOptions()
	c.rng.set(f)
	f.IntVar(&c.opts.ADFLag, "lag", def.ADFLag, "ADF lag; negative selects it by AIC")
	f.IntVar(&c.opts.HurstMaxLag, "hurst-lag", def.HurstMaxLag, "Exclusive upper lag of the Hurst estimate")
	f.IntVar(&c.opts.VRLag, "vr-lag", def.VRLag, "Variance ratio horizon")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.app.usage("analyze takes exactly one symbol")
	}
	start, end, err := c.rng.resolve()
	if err != nil {
		return c.app.fail(err)
	}

	e, err := c.app.open(ctx, false)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	symbol := f.Arg(0)
	series, err := readStored(ctx, e.store, symbol, start, end)
	if err != nil {
		return c.app.fail(err)
	}
	rep, err := analysis.Classify(series.AdjCloses(), c.opts)
	if err != nil {
		return c.app.fail(fmt.Errorf("analyze %s: %w", symbol, err))
	}
	ind, err := calculator.Indicators(series)
	if err != nil {
		return c.app.fail(fmt.Errorf("indicators %s: %w", symbol, err))
	}

	var meta *model.SymbolMetadata
	if m, ok, err := e.store.Metadata(ctx, symbol); err != nil {
		e.log.Warnf("metadata %s: %v", symbol, err)
	} else if ok {
		meta = &m
	}
	c.app.printMarkdown(notifier.FormatAnalysisReport(series, meta, ind, rep))
	return subcommands.ExitSuccess
}

type cointCmd struct {
	app *App
	rng rangeFlags
}

func (*cointCmd) Name() string     { return "coint" }
func (*cointCmd) Synopsis() string { return "test two stored symbols for cointegration" }
func (*cointCmd) Usage() string {
	return `quantcache coint [-start] [-end] SYMBOL_A SYMBOL_B

  Regresses SYMBOL_A on SYMBOL_B over their common days and runs the ADF
  test on the spread.
`
}

func (c *cointCmd) SetFlags(f *flag.FlagSet) { c.rng.set(f) }

func (c *cointCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		return c.app.usage("coint takes exactly two symbols")
	}
	start, end, err := c.rng.resolve()
	if err != nil {
		return c.app.fail(err)
	}

	e, err := c.app.open(ctx, false)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	symA, symB := f.Arg(0), f.Arg(1)
	a, err := readStored(ctx, e.store, symA, start, end)
	if err != nil {
		return c.app.fail(err)
	}
	b, err := readStored(ctx, e.store, symB, start, end)
	if err != nil {
		return c.app.fail(err)
	}

	xa, xb := model.AlignAdjCloses(a.Records, b.Records)
	res, err := analysis.CointegratedADF(xa, xb)
	if err != nil {
		return c.app.fail(fmt.Errorf("coint %s/%s: %w", symA, symB, err))
	}
	c.app.printMarkdown(notifier.FormatCointegrationReport(symA, symB, len(xa), res))
	return subcommands.ExitSuccess
}
