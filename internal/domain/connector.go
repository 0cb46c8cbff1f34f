package domain

import "time"

// Provider identifies the external service a Connector authorizes.
type Provider string

const (
	ProviderGoogle  Provider = "GOOGLE"
	ProviderShopify Provider = "SHOPIFY"
)

// Connector represents one shop's authorization to one external provider.
// At most one Connector exists per (shop, provider) pair; the repository
// enforces this with a unique index and upsert writes.
type Connector struct {
	ID             string    `json:"id" bson:"_id"`
	ShopDomain     string    `json:"shop_domain" bson:"shop_domain"`
	Provider       Provider  `json:"provider" bson:"provider"`
	AccessToken    string    `json:"access_token" bson:"access_token"`
	RefreshToken   string    `json:"refresh_token,omitempty" bson:"refresh_token,omitempty"`
	TokenType      string    `json:"token_type,omitempty" bson:"token_type,omitempty"`
	ExpiresAt      time.Time `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	SpreadsheetURL string    `json:"spreadsheet_url,omitempty" bson:"spreadsheet_url,omitempty"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

// TokenExpired reports whether the stored access token expires within skew.
// Connectors without an expiry (Shopify offline tokens) never expire.
func (c *Connector) TokenExpired(skew time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(skew).After(c.ExpiresAt)
}

// ConnectorUpdate is a partial update applied by Upsert. Nil fields are
// left untouched on an existing record.
type ConnectorUpdate struct {
	AccessToken    *string
	RefreshToken   *string
	TokenType      *string
	ExpiresAt      *time.Time
	SpreadsheetURL *string
}

// OAuthToken is the result of a token exchange or refresh.
type OAuthToken struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	Expiry       time.Time
}
