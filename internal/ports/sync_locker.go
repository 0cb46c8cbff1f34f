package ports

import "context"

// SyncLocker provides the per-shop mutual-exclusion lease that keeps two
// sync runs from interleaving against the same spreadsheet.
type SyncLocker interface {
	// Acquire takes the shop's lease and returns a release func. When
	// the lease is held elsewhere it returns domain.ErrSyncInProgress.
	Acquire(ctx context.Context, shopDomain string) (release func(), err error)
}
