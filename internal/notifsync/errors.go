package notifsync

import "fmt"

// SyncError a failed Store call observed by the Syncer. The local cache is
// never modified when one is returned.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("notifsync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
