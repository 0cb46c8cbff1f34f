package ports

import (
	"context"

	"shopsheet-sync/internal/domain"
)

// SpreadsheetClient defines the operations the sync engine needs from
// the spreadsheet backend.
type SpreadsheetClient interface {
	// Create makes a new spreadsheet with the given title, grants
	// link-based write access, and returns its ID and canonical URL.
	// Creation is not idempotent; callers invoke it at most once per run.
	Create(ctx context.Context, accessToken, title string) (spreadsheetID, url string, err error)

	// ReadSnapshot reads the data region below the header, keyed by the
	// ID column. An empty or not-yet-populated sheet yields an empty
	// snapshot; any backend failure yields a *domain.SnapshotError.
	ReadSnapshot(ctx context.Context, accessToken, spreadsheetID string) (domain.SheetSnapshot, error)

	// ApplyBatch executes a plan as a single batch request. An empty
	// plan is a no-op and issues no call.
	ApplyBatch(ctx context.Context, accessToken, spreadsheetID string, ops []domain.SheetOp) error

	// SpreadsheetIDFromURL parses the spreadsheet ID back out of a
	// stored canonical URL.
	SpreadsheetIDFromURL(rawURL string) (string, error)
}

// GoogleOAuth covers the Google side of the credential lifecycle.
type GoogleOAuth interface {
	// AuthURL builds the consent URL carrying the anti-replay state and
	// offline/consent parameters.
	AuthURL(state string) string

	// Exchange trades an authorization code for tokens.
	Exchange(ctx context.Context, code string) (*domain.OAuthToken, error)

	// Refresh obtains a fresh access token from a refresh token.
	Refresh(ctx context.Context, refreshToken string) (*domain.OAuthToken, error)
}
