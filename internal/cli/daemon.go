package cli

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	"QuantCache/internal/notifier"
	"QuantCache/internal/scheduler"
)

type daemonCmd struct {
	app       *App
	runNow    bool
	noPolling bool
}

func (*daemonCmd) Name() string     { return "daemon" }
func (*daemonCmd) Synopsis() string { return "run the scheduled update until interrupted" }
func (*daemonCmd) Usage() string {
	return `quantcache daemon [-run-now] [-no-polling]

  Runs the update on schedule.update_cron. When Telegram is configured each
  run is reported to the chat, which can also send /update and /status.
`
}

func (c *daemonCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.runNow, "run-now", false, "Run an update right after start")
	f.BoolVar(&c.noPolling, "no-polling", false, "Do not answer chat commands")
}

func (c *daemonCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := c.app.open(ctx, true)
	if err != nil {
		return c.app.fail(err)
	}
	defer e.Close()

	var n notifier.Notifier
	var tn *notifier.TelegramNotifier
	if e.cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(e.cfg.Telegram.BotToken, e.cfg.Telegram.ChatID, e.cfg.Source.Proxy, e.log)
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, c.app.synchronizer(e), e.store, n, e.log)
	sched.Recorder = e.recorder
	if err := sched.RegisterAll(e.cfg.Schedule.UpdateCron); err != nil {
		return c.app.fail(err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && !c.noPolling {
		go tn.StartPolling(ctx, sched.HandleCommand)
		e.log.Info("telegram polling started")
	}
	if c.runNow {
		go sched.RunUpdateNow()
	}

	e.log.WithField("cron", e.cfg.Schedule.UpdateCron).Info("quantcache daemon running, press Ctrl+C to stop")
	<-ctx.Done()
	e.log.Info("shutdown signal received, stopping")
	return subcommands.ExitSuccess
}
