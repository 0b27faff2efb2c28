package recorder

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"QuantCache/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	r, err := NewSQLiteRecorder(context.Background(), filepath.Join(t.TempDir(), "runs.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestLastRun_Empty(t *testing.T) {
	r := newTestRecorder(t)
	_, ok, err := r.LastRun(context.Background(), KindUpdate)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordRun_RoundTripsFailures(t *testing.T) {
	ctx := context.Background()
	r := newTestRecorder(t)

	first := time.Date(2024, 3, 1, 22, 30, 0, 0, time.UTC)
	outcomes := []model.SyncOutcome{
		{Symbol: "AAA", Inserted: 5},
		{Symbol: "BBB", Err: model.ErrUnavailable},
		{Symbol: "CCC", Err: model.ErrNotFound},
		{Symbol: "DDD", Err: model.ErrUnavailable},
	}
	require.NoError(t, r.RecordRun(ctx, NewRun(KindUpdate, first, 1500*time.Millisecond, outcomes, nil)))
	require.NoError(t, r.RecordRun(ctx, NewRun(KindBackfill, first.Add(time.Hour), time.Second, outcomes[:1], nil)))

	run, ok, err := r.LastRun(ctx, KindUpdate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, first.Equal(run.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, run.Elapsed)
	assert.Equal(t, 4, run.Summary.Total)
	assert.Equal(t, 1, run.Summary.Succeeded)
	assert.Equal(t, 3, run.Summary.Failed)
	assert.Equal(t, 5, run.Summary.Inserted)
	assert.Equal(t, []string{"BBB", "DDD"}, run.Summary.Failures["unavailable"])
	assert.Equal(t, []string{"CCC"}, run.Summary.Failures["not_found"])
	assert.Empty(t, run.Interrupted)
}

func TestRecordRun_NewestWins(t *testing.T) {
	ctx := context.Background()
	r := newTestRecorder(t)

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.RecordRun(ctx, NewRun(KindUpdate, day.AddDate(0, 0, 1), 0, nil, errors.New("context canceled"))))
	require.NoError(t, r.RecordRun(ctx, NewRun(KindUpdate, day, 0, nil, nil)))

	run, ok, err := r.LastRun(ctx, KindUpdate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, day.AddDate(0, 0, 1).Equal(run.StartedAt))
	assert.Equal(t, "context canceled", run.Interrupted)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	require.NoError(t, r.RecordRun(context.Background(), Run{Kind: KindUpdate}))
	_, ok, err := r.LastRun(context.Background(), KindUpdate)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, r.Close())
}
