package model

import "time"

// SyncOutcome summarizes one symbol's synchronization.
type SyncOutcome struct {
	Symbol          string
	Start           time.Time
	End             time.Time
	Fetched         int
	Inserted        int
	MetadataWritten bool
	Err             error
	Elapsed         time.Duration
}

// OK reports whether the symbol synced without error.
func (o SyncOutcome) OK() bool { return o.Err == nil }

// Reason is the error kind of a failed outcome, empty on success.
func (o SyncOutcome) Reason() string { return ErrorKind(o.Err) }
