package recorder

import "context"

// NoopRecorder is a no-op implementation used when no history is kept.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(context.Context, Run) error { return nil }
func (n *NoopRecorder) LastRun(context.Context, string) (Run, bool, error) {
	return Run{}, false, nil
}
func (n *NoopRecorder) Close() error { return nil }
