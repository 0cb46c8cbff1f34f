package ports

import (
	"context"

	"shopsheet-sync/internal/domain"
)

// CatalogSource is a cursor-paginated view of a shop's product catalog.
type CatalogSource interface {
	// Page fetches the next page of products after cursor. An empty
	// cursor requests the first page. The returned page's EndCursor is
	// only meaningful while HasNextPage is true.
	Page(ctx context.Context, shopDomain, accessToken, cursor string, pageSize int) (*domain.CatalogPage, error)
}

// ShopifyOAuth covers the Shopify side of the credential lifecycle.
type ShopifyOAuth interface {
	// AuthURL builds the install/authorization URL for a shop.
	AuthURL(shopDomain, state string) string

	// Exchange trades an authorization code for an offline access token.
	Exchange(ctx context.Context, shopDomain, code string) (string, error)

	// VerifyToken checks that a stored token is still accepted by the
	// shop's admin API.
	VerifyToken(ctx context.Context, shopDomain, accessToken string) error
}
