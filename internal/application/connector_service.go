package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/ports"

	"github.com/rs/zerolog"
)

const (
	stateTTL = 10 * time.Minute

	// tokenRefreshSkew refreshes tokens this far ahead of expiry so a
	// long extraction never runs into a mid-pipeline 401.
	tokenRefreshSkew = 5 * time.Minute
)

// ConnectorService manages the OAuth credential lifecycle for both
// providers: authorization URLs, code exchange, token rotation, and
// disconnect.
type ConnectorService struct {
	connectors ports.ConnectorRepository
	states     ports.StateRepository
	google     ports.GoogleOAuth
	shopify    ports.ShopifyOAuth
	logger     zerolog.Logger
}

// NewConnectorService creates a new connector service
func NewConnectorService(
	connectors ports.ConnectorRepository,
	states ports.StateRepository,
	google ports.GoogleOAuth,
	shopify ports.ShopifyOAuth,
	logger zerolog.Logger,
) *ConnectorService {
	return &ConnectorService{
		connectors: connectors,
		states:     states,
		google:     google,
		shopify:    shopify,
		logger:     logger,
	}
}

// GoogleAuthURL generates the Google consent URL for a shop, recording
// an anti-replay state session first.
func (s *ConnectorService) GoogleAuthURL(ctx context.Context, shopDomain string) (string, error) {
	state, err := s.newState(ctx, shopDomain, domain.ProviderGoogle)
	if err != nil {
		return "", err
	}
	return s.google.AuthURL(state), nil
}

// CompleteGoogle finishes the Google OAuth round-trip: it consumes the
// state session, exchanges the code, and upserts the shop's connector.
func (s *ConnectorService) CompleteGoogle(ctx context.Context, state, code string) (*domain.Connector, error) {
	session, err := s.consumeState(ctx, state, domain.ProviderGoogle)
	if err != nil {
		return nil, err
	}

	token, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	update := domain.ConnectorUpdate{
		AccessToken: &token.AccessToken,
		TokenType:   &token.TokenType,
		ExpiresAt:   &token.Expiry,
	}
	// Google only returns a refresh token on the first consent; keep the
	// stored one when the exchange omits it.
	if token.RefreshToken != "" {
		update.RefreshToken = &token.RefreshToken
	}

	connector, err := s.connectors.Upsert(ctx, session.ShopDomain, domain.ProviderGoogle, update)
	if err != nil {
		return nil, fmt.Errorf("failed to save google connector: %w", err)
	}

	s.logger.Info().
		Str("shop", session.ShopDomain).
		Msg("Google connector saved")

	return connector, nil
}

// ShopifyAuthURL generates the Shopify install URL for a shop
func (s *ConnectorService) ShopifyAuthURL(ctx context.Context, shopDomain string) (string, error) {
	state, err := s.newState(ctx, shopDomain, domain.ProviderShopify)
	if err != nil {
		return "", err
	}
	return s.shopify.AuthURL(shopDomain, state), nil
}

// CompleteShopify finishes the Shopify OAuth round-trip. The callback's
// shop parameter must match the shop the state was issued for.
func (s *ConnectorService) CompleteShopify(ctx context.Context, shopDomain, state, code string) (*domain.Connector, error) {
	session, err := s.consumeState(ctx, state, domain.ProviderShopify)
	if err != nil {
		return nil, err
	}
	if session.ShopDomain != shopDomain {
		return nil, domain.ErrInvalidOAuthState
	}

	accessToken, err := s.shopify.Exchange(ctx, shopDomain, code)
	if err != nil {
		return nil, fmt.Errorf("shopify token exchange failed: %w", err)
	}

	if err := s.shopify.VerifyToken(ctx, shopDomain, accessToken); err != nil {
		return nil, fmt.Errorf("shopify token rejected: %w", err)
	}

	connector, err := s.connectors.Upsert(ctx, shopDomain, domain.ProviderShopify, domain.ConnectorUpdate{
		AccessToken: &accessToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save shopify connector: %w", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Msg("Shopify connector saved")

	return connector, nil
}

// Disconnect removes the shop's connector for a provider and returns the
// number of deleted records.
func (s *ConnectorService) Disconnect(ctx context.Context, shopDomain string, provider domain.Provider) (int64, error) {
	count, err := s.connectors.Delete(ctx, shopDomain, provider)
	if err != nil {
		return 0, fmt.Errorf("failed to disconnect: %w", err)
	}

	s.logger.Info().
		Str("shop", shopDomain).
		Str("provider", string(provider)).
		Int64("deleted", count).
		Msg("Connector disconnected")

	return count, nil
}

// FreshGoogleToken returns a usable access token for the connector,
// refreshing and persisting a rotated token first when the stored one is
// expired or about to expire. Persisting before returning keeps
// concurrent runs from each triggering their own refresh against a
// token Google already rotated.
func (s *ConnectorService) FreshGoogleToken(ctx context.Context, connector *domain.Connector) (string, error) {
	if !connector.TokenExpired(tokenRefreshSkew) {
		return connector.AccessToken, nil
	}

	if connector.RefreshToken == "" {
		return "", fmt.Errorf("google token expired and no refresh token is stored; shop %s must reconnect", connector.ShopDomain)
	}

	token, err := s.google.Refresh(ctx, connector.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh google token: %w", err)
	}

	update := domain.ConnectorUpdate{
		AccessToken: &token.AccessToken,
		ExpiresAt:   &token.Expiry,
	}
	if token.RefreshToken != "" {
		update.RefreshToken = &token.RefreshToken
	}

	if _, err := s.connectors.Upsert(ctx, connector.ShopDomain, domain.ProviderGoogle, update); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	s.logger.Info().
		Str("shop", connector.ShopDomain).
		Time("expiresAt", token.Expiry).
		Msg("Refreshed google token")

	return token.AccessToken, nil
}

func (s *ConnectorService) newState(ctx context.Context, shopDomain string, provider domain.Provider) (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	state := hex.EncodeToString(stateBytes)

	session := &domain.StateSession{
		State:      state,
		ShopDomain: shopDomain,
		Provider:   provider,
		ExpiresAt:  time.Now().Add(stateTTL),
		CreatedAt:  time.Now(),
	}
	if err := s.states.Create(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}

	return state, nil
}

func (s *ConnectorService) consumeState(ctx context.Context, state string, provider domain.Provider) (*domain.StateSession, error) {
	session, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("failed to verify oauth state: %w", err)
	}
	if session == nil || session.Provider != provider {
		return nil, domain.ErrInvalidOAuthState
	}
	return session, nil
}
