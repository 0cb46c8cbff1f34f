package domain

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned when no connector exists for the shop and
// provider a sync run needs. It is reported distinctly from mid-run
// failures: the run never started.
var ErrNotConnected = errors.New("shop is not connected")

// ErrSyncInProgress is returned when another sync run holds the shop's
// lease.
var ErrSyncInProgress = errors.New("a sync for this shop is already running")

// ErrInvalidOAuthState is returned when an OAuth callback carries an
// unknown or expired anti-replay state token.
var ErrInvalidOAuthState = errors.New("invalid or expired oauth state")

// ExtractionError wraps any catalog page fetch failure. No partial write
// happens; the whole run is safe to retry.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("catalog extraction failed: %v", e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// SnapshotError wraps a genuine spreadsheet read failure. An empty or
// missing data range is not an error; it means first sync.
type SnapshotError struct {
	Err error
}

func (e *SnapshotError) Error() string { return fmt.Sprintf("snapshot read failed: %v", e.Err) }
func (e *SnapshotError) Unwrap() error { return e.Err }

// MutationError wraps a batch write failure. All reads happened before
// the write, so prior persisted state is unaffected.
type MutationError struct {
	Err error
}

func (e *MutationError) Error() string { return fmt.Sprintf("spreadsheet mutation failed: %v", e.Err) }
func (e *MutationError) Unwrap() error { return e.Err }

// LocatorPersistError signals that a spreadsheet was created but its URL
// could not be saved on the connector. Callers must not blindly retry the
// run: doing so would create a second spreadsheet. SpreadsheetURL carries
// the orphaned sheet so it can be recovered.
type LocatorPersistError struct {
	SpreadsheetURL string
	Err            error
}

func (e *LocatorPersistError) Error() string {
	return fmt.Sprintf("spreadsheet %s created but its locator could not be persisted: %v", e.SpreadsheetURL, e.Err)
}
func (e *LocatorPersistError) Unwrap() error { return e.Err }
