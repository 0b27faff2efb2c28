package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
	"QuantCache/internal/notifier"
	"QuantCache/internal/recorder"
	"QuantCache/internal/store"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeUpdater struct {
	outcomes []model.SyncOutcome
	err      error
	release  chan struct{}
	calls    int
	mu       sync.Mutex
}

func (f *fakeUpdater) SyncAll(ctx context.Context, override *time.Time) ([]model.SyncOutcome, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return f.outcomes, f.err
}

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

type fakeReader struct {
	store.Reader
	symbols []string
}

func (f fakeReader) Symbols(context.Context) ([]string, error) { return f.symbols, nil }

func newTestScheduler(up Updater, n notifier.Notifier) *Scheduler {
	s := NewScheduler(context.Background(), up, fakeReader{symbols: []string{"AAA", "BBB"}}, n, quietLogger())
	s.Now = func() time.Time { return time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC) }
	return s
}

func TestRunUpdateNow_SendsReport(t *testing.T) {
	up := &fakeUpdater{outcomes: []model.SyncOutcome{
		{Symbol: "AAA", Inserted: 5},
		{Symbol: "BBB", Err: fmt.Errorf("x: %w", model.ErrUnavailable)},
	}}
	n := &fakeNotifier{}
	s := newTestScheduler(up, n)

	assert.True(t, s.RunUpdateNow())
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "# Update | 2024-03-01 22:30")
	assert.Contains(t, n.texts[0], "- **unavailable** (1): BBB")

	status := s.HandleCommand(context.Background(), "/status")
	assert.Contains(t, status, "Stored symbols: 2")
	assert.Contains(t, status, "1 succeeded, 1 failed, 5 inserted")
}

func TestRunUpdateNow_BatchError(t *testing.T) {
	up := &fakeUpdater{err: fmt.Errorf("bad override: %w", model.ErrValidation)}
	n := &fakeNotifier{}
	s := newTestScheduler(up, n)

	s.RunUpdateNow()
	require.Len(t, n.texts, 1)
	assert.Contains(t, n.texts[0], "Update failed")
	assert.Contains(t, s.HandleCommand(context.Background(), "/status"), "No update has run yet.")
}

func TestRunUpdateNow_SkipsWhileRunning(t *testing.T) {
	up := &fakeUpdater{release: make(chan struct{})}
	s := newTestScheduler(up, &fakeNotifier{})

	done := make(chan bool)
	go func() { done <- s.RunUpdateNow() }()
	require.Eventually(t, func() bool {
		up.mu.Lock()
		defer up.mu.Unlock()
		return up.calls == 1
	}, time.Second, time.Millisecond)

	assert.False(t, s.RunUpdateNow())
	assert.Equal(t, "An update is already running.", s.HandleCommand(context.Background(), "/update"))

	close(up.release)
	assert.True(t, <-done)
}

func TestHandleCommand(t *testing.T) {
	s := newTestScheduler(&fakeUpdater{}, nil)
	assert.Contains(t, s.HandleCommand(context.Background(), ""), "Available commands")
	assert.Contains(t, s.HandleCommand(context.Background(), "/help"), "/update")
	assert.Equal(t, "/start", commandName("/START@quantbot now"))
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(&fakeUpdater{}, nil)
	require.NoError(t, s.RegisterAll("0 30 22 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.RegisterAll("not a cron"))
}

type fakeRecorder struct {
	recorder.NoopRecorder
	runs []recorder.Run
}

func (f *fakeRecorder) RecordRun(_ context.Context, run recorder.Run) error {
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRecorder) LastRun(_ context.Context, kind string) (recorder.Run, bool, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].Kind == kind {
			return f.runs[i], true, nil
		}
	}
	return recorder.Run{}, false, nil
}

func TestRunUpdateNow_RecordsRun(t *testing.T) {
	rec := &fakeRecorder{}
	up := &fakeUpdater{outcomes: []model.SyncOutcome{{Symbol: "AAA", Inserted: 3}}}
	s := newTestScheduler(up, nil)
	s.Recorder = rec

	s.RunUpdateNow()
	require.Len(t, rec.runs, 1)
	assert.Equal(t, recorder.KindUpdate, rec.runs[0].Kind)
	assert.Equal(t, 3, rec.runs[0].Summary.Inserted)

	// a restarted scheduler reads the last run from the history
	restarted := newTestScheduler(up, nil)
	restarted.Recorder = rec
	status := restarted.HandleCommand(context.Background(), "/status")
	assert.Contains(t, status, "Last update: 2024-03-01 22:30, 1 succeeded, 0 failed, 3 inserted")
}
