package storage

import "context"

// NoopRunRecorder discards run statuses.
// Used in dry-run mode and when no SSM parameter is configured.
type NoopRunRecorder struct{}

// LastRun always returns a zero RunStatus.
func (NoopRunRecorder) LastRun(_ context.Context) (RunStatus, error) {
	return RunStatus{}, nil
}

// RecordRun does nothing.
func (NoopRunRecorder) RecordRun(_ context.Context, _ RunStatus) error {
	return nil
}
