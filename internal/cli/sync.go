package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/google/subcommands"

	"QuantCache/internal/model"
	"QuantCache/internal/notifier"
	"QuantCache/internal/recorder"
)

type syncCmd struct {
	app        *App
	start, end string
}

func (*syncCmd) Name() string     { return "sync" }
func (*syncCmd) Synopsis() string { return "fetch and store the daily history of one symbol" }
func (*syncCmd) Usage() string {
	return `quantcache sync [-start YYYY-MM-DD] [-end YYYY-MM-DD] SYMBOL

  Fetches SYMBOL between start and end (inclusive) and stores the dates not
  stored yet. End defaults to today, start to 30 days before end.
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First day to fetch (YYYY-MM-DD or DD/MM/YYYY)")
	f.StringVar(&c.end, "end", "", "Last day to fetch (defaults to today)")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return c.app.usage("sync takes exactly one symbol")
	}
	start, end, err := model.ResolveRange(c.start, c.end, c.app.today())
	if err != nil {
		return c.app.fail(err)
	}

	e, err := c.app.open(ctx, false)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	out, err := c.app.synchronizer(e).SyncOne(ctx, f.Arg(0), start, end)
	c.app.printMarkdown(notifier.FormatOutcome(out))
	if err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}

type updateCmd struct {
	app  *App
	days int
}

func (*updateCmd) Name() string     { return "update" }
func (*updateCmd) Synopsis() string { return "sync the trailing window of every cataloged symbol" }
func (*updateCmd) Usage() string {
	return `quantcache update [-days N]

  Syncs every cataloged symbol over the trailing window. A symbol whose last
  stored day is older than the window resumes from the day after it.
`
}

func (c *updateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "Trailing window in days (defaults to sync.window_days)")
}

func (c *updateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.days < 0 {
		return c.app.usage("-days must not be negative")
	}
	e, err := c.app.open(ctx, true)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	s := c.app.synchronizer(e)
	if c.days > 0 {
		s.Window = time.Duration(c.days) * 24 * time.Hour
	}
	return c.app.runBatch(ctx, e, recorder.KindUpdate, func(ctx context.Context) ([]model.SyncOutcome, error) {
		return s.SyncAll(ctx, nil)
	})
}

type backfillCmd struct {
	app   *App
	start string
}

func (*backfillCmd) Name() string     { return "backfill" }
func (*backfillCmd) Synopsis() string { return "sync every cataloged symbol from a start date" }
func (*backfillCmd) Usage() string {
	return `quantcache backfill [-start YYYY-MM-DD]

  Syncs every cataloged symbol from start to today. Start defaults to
  sync.backfill_start. Dates already stored are left untouched.
`
}

func (c *backfillCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "start", "", "First day to fetch (defaults to sync.backfill_start)")
}

func (c *backfillCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := c.app.open(ctx, true)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	text := c.start
	if text == "" {
		text = e.cfg.Sync.BackfillStart
	}
	start, err := model.ParseDate(text)
	if err != nil {
		return c.app.fail(err)
	}

	s := c.app.synchronizer(e)
	return c.app.runBatch(ctx, e, recorder.KindBackfill, func(ctx context.Context) ([]model.SyncOutcome, error) {
		return s.Backfill(ctx, start)
	})
}

// runBatch runs a batch sync, records it and prints its completion report.
// Per-symbol failures are reported, only a batch-level error fails the
// command.
func (a *App) runBatch(ctx context.Context, e *env, kind string, run func(context.Context) ([]model.SyncOutcome, error)) subcommands.ExitStatus {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	started := now()
	outcomes, err := run(ctx)
	if len(outcomes) > 0 {
		r := recorder.NewRun(kind, started, now().Sub(started), outcomes, err)
		if rerr := e.recorder.RecordRun(ctx, r); rerr != nil {
			e.log.Errorf("record run: %v", rerr)
		}
		title := strings.ToUpper(kind[:1]) + kind[1:]
		a.printMarkdown(notifier.FormatSyncReport(title, started, r.Summary, outcomes))
	}
	if err != nil {
		return a.fail(fmt.Errorf("%s: %w", kind, err))
	}
	return subcommands.ExitSuccess
}
