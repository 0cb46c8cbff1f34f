package ports

import (
	"context"

	"shopsheet-sync/internal/domain"
)

// ConnectorRepository defines the interface for connector persistence.
// Implementations must serialize writes per (shop, provider) key so that
// concurrent upserts never produce a duplicate record or a lost update.
type ConnectorRepository interface {
	// Get retrieves the connector for a shop and provider, or nil when
	// none exists.
	Get(ctx context.Context, shopDomain string, provider domain.Provider) (*domain.Connector, error)

	// Upsert applies a partial update to the connector for the key,
	// creating it when absent, and returns the resulting record.
	Upsert(ctx context.Context, shopDomain string, provider domain.Provider, fields domain.ConnectorUpdate) (*domain.Connector, error)

	// Delete removes all connectors for the key and returns how many
	// records were removed.
	Delete(ctx context.Context, shopDomain string, provider domain.Provider) (int64, error)
}

// StateRepository persists short-lived OAuth anti-replay sessions.
type StateRepository interface {
	// Create stores a new state session.
	Create(ctx context.Context, session *domain.StateSession) error

	// Consume atomically retrieves and deletes the session for a state
	// token. Returns nil for unknown or expired tokens.
	Consume(ctx context.Context, state string) (*domain.StateSession, error)
}
