// Package scheduler runs the periodic update of the store and answers chat
// commands about it.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"QuantCache/internal/model"
	"QuantCache/internal/notifier"
	"QuantCache/internal/recorder"
	"QuantCache/internal/store"
	"QuantCache/internal/syncer"
)

// Updater runs a batch sync over the catalog.
type Updater interface {
	SyncAll(ctx context.Context, startOverride *time.Time) ([]model.SyncOutcome, error)
}

// Scheduler manages the cron-driven update runs.
type Scheduler struct {
	Cron     *cron.Cron
	Updater  Updater
	Store    store.Reader
	Notifier notifier.Notifier // optional
	Recorder recorder.Recorder // optional
	Log      logrus.FieldLogger
	Ctx      context.Context
	Now      func() time.Time

	mu      sync.Mutex
	running bool
	lastRun time.Time
	last    *syncer.Summary
}

// NewScheduler creates a new Scheduler. n may be nil when no chat is
// configured.
func NewScheduler(ctx context.Context, up Updater, st store.Reader, n notifier.Notifier, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Updater:  up,
		Store:    st,
		Notifier: n,
		Log:      log.WithField("component", "scheduler"),
		Ctx:      ctx,
		Now:      time.Now,
	}
}

// RegisterAll registers the update task.
func (s *Scheduler) RegisterAll(updateCron string) error {
	if _, err := s.Cron.AddFunc(updateCron, func() { s.RunUpdateNow() }); err != nil {
		return fmt.Errorf("register update task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running update.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunUpdateNow executes the update task immediately. It reports false when
// another update was still running and nothing was done.
func (s *Scheduler) RunUpdateNow() bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.Log.Warn("update already running, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.Log.Info("running update task")
	started := s.Now()
	outcomes, err := s.Updater.SyncAll(s.Ctx, nil)
	if err != nil && len(outcomes) == 0 {
		s.Log.Errorf("update: %v", err)
		s.trySend(fmt.Sprintf("Update failed: %v", err))
		return true
	}

	sum := syncer.Summarize(outcomes)
	s.mu.Lock()
	s.lastRun, s.last = started, &sum
	s.mu.Unlock()
	s.record(recorder.NewRun(recorder.KindUpdate, started, s.Now().Sub(started), outcomes, err))

	report := notifier.FormatSyncReport("Update", started, sum, nil)
	if err != nil {
		report += fmt.Sprintf("\nInterrupted: %v\n", err)
	}
	s.trySend(report)
	return true
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch commandName(command) {
	case "/update":
		s.mu.Lock()
		busy := s.running
		s.mu.Unlock()
		if busy {
			return "An update is already running."
		}
		go s.RunUpdateNow()
		return "Update started."
	case "/status":
		return s.status(ctx)
	default:
		return "Available commands:\n/update - sync the trailing window of every symbol\n/status - store and last run status"
	}
}

// commandName strips arguments and a trailing @botname.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

func (s *Scheduler) status(ctx context.Context) string {
	var b strings.Builder
	symbols, err := s.Store.Symbols(ctx)
	if err != nil {
		b.WriteString(fmt.Sprintf("Store unavailable: %v\n", err))
	} else {
		b.WriteString(fmt.Sprintf("Stored symbols: %d\n", len(symbols)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		b.WriteString("An update is running.\n")
	}
	lastRun, last := s.lastRun, s.last
	if last == nil && s.Recorder != nil {
		run, ok, err := s.Recorder.LastRun(ctx, recorder.KindUpdate)
		if err != nil {
			s.Log.Warnf("read run history: %v", err)
		} else if ok {
			lastRun, last = run.StartedAt, &run.Summary
		}
	}
	if last == nil {
		b.WriteString("No update has run yet.\n")
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Last update: %s, %d succeeded, %d failed, %d inserted\n",
		lastRun.Format("2006-01-02 15:04"), last.Succeeded, last.Failed, last.Inserted))
	return b.String()
}

func (s *Scheduler) record(run recorder.Run) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.RecordRun(s.Ctx, run); err != nil {
		s.Log.Errorf("record run: %v", err)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Errorf("send notification: %v", err)
	}
}
