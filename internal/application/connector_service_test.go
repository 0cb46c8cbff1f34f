package application

import (
	"context"
	"testing"
	"time"

	"shopsheet-sync/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShop = "demo.myshopify.com"

func newConnectorServiceForTest(repo *fakeConnectorRepo, google *fakeGoogleOAuth) (*ConnectorService, *fakeStateRepo) {
	states := newFakeStateRepo()
	shopify := &fakeShopifyOAuth{token: "shpat_test"}
	return NewConnectorService(repo, states, google, shopify, zerolog.Nop()), states
}

func googleStateFor(t *testing.T, svc *ConnectorService, states *fakeStateRepo, shop string) string {
	t.Helper()
	_, err := svc.GoogleAuthURL(context.Background(), shop)
	require.NoError(t, err)
	require.Len(t, states.sessions, 1)
	for state := range states.sessions {
		return state
	}
	return ""
}

func TestCompleteGoogleCreatesConnector(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{
		exchanged: &domain.OAuthToken{
			AccessToken:  "ya29.initial",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	svc, states := newConnectorServiceForTest(repo, google)
	state := googleStateFor(t, svc, states, testShop)

	connector, err := svc.CompleteGoogle(context.Background(), state, "auth-code")

	require.NoError(t, err)
	assert.Equal(t, testShop, connector.ShopDomain)
	assert.Equal(t, domain.ProviderGoogle, connector.Provider)
	assert.Equal(t, "ya29.initial", connector.AccessToken)
	assert.Equal(t, "refresh-1", connector.RefreshToken)
}

func TestCompleteGoogleUpdatesInPlaceAndKeepsRefreshToken(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{
		exchanged: &domain.OAuthToken{
			AccessToken:  "ya29.initial",
			RefreshToken: "refresh-1",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		},
	}
	svc, states := newConnectorServiceForTest(repo, google)

	state := googleStateFor(t, svc, states, testShop)
	_, err := svc.CompleteGoogle(context.Background(), state, "auth-code")
	require.NoError(t, err)

	// Re-consent: Google rotates the access token but omits the refresh
	// token this time.
	google.exchanged = &domain.OAuthToken{
		AccessToken: "ya29.rotated",
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
	state = googleStateFor(t, svc, states, testShop)
	connector, err := svc.CompleteGoogle(context.Background(), state, "auth-code-2")
	require.NoError(t, err)

	// Still exactly one record for the (shop, provider) pair.
	assert.Len(t, repo.records, 1)
	assert.Equal(t, "ya29.rotated", connector.AccessToken)
	assert.Equal(t, "refresh-1", connector.RefreshToken)
}

func TestCompleteGoogleRejectsUnknownState(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{exchanged: &domain.OAuthToken{AccessToken: "x"}}
	svc, _ := newConnectorServiceForTest(repo, google)

	_, err := svc.CompleteGoogle(context.Background(), "bogus-state", "auth-code")

	assert.ErrorIs(t, err, domain.ErrInvalidOAuthState)
	assert.Empty(t, repo.records)
}

func TestCompleteGoogleStateIsSingleUse(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{
		exchanged: &domain.OAuthToken{AccessToken: "ya29.initial", RefreshToken: "r", Expiry: time.Now().Add(time.Hour)},
	}
	svc, states := newConnectorServiceForTest(repo, google)
	state := googleStateFor(t, svc, states, testShop)

	_, err := svc.CompleteGoogle(context.Background(), state, "auth-code")
	require.NoError(t, err)

	_, err = svc.CompleteGoogle(context.Background(), state, "auth-code")
	assert.ErrorIs(t, err, domain.ErrInvalidOAuthState)
}

func TestCompleteShopifyRejectsShopMismatch(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	svc, states := newConnectorServiceForTest(repo, &fakeGoogleOAuth{})

	_, err := svc.ShopifyAuthURL(context.Background(), testShop)
	require.NoError(t, err)
	var state string
	for s := range states.sessions {
		state = s
	}

	_, err = svc.CompleteShopify(context.Background(), "other.myshopify.com", state, "code")

	assert.ErrorIs(t, err, domain.ErrInvalidOAuthState)
}

func TestFreshGoogleTokenReturnsStoredTokenWhileValid(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{}
	svc, _ := newConnectorServiceForTest(repo, google)

	connector := &domain.Connector{
		ShopDomain:   testShop,
		Provider:     domain.ProviderGoogle,
		AccessToken:  "ya29.valid",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	token, err := svc.FreshGoogleToken(context.Background(), connector)

	require.NoError(t, err)
	assert.Equal(t, "ya29.valid", token)
	assert.Zero(t, google.refreshCalls)
}

func TestFreshGoogleTokenRefreshesAndPersistsWhenExpired(t *testing.T) {
	log := &callLog{}
	repo := newFakeConnectorRepo(log)
	repo.put(&domain.Connector{
		ShopDomain:   testShop,
		Provider:     domain.ProviderGoogle,
		AccessToken:  "ya29.stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute),
	})
	google := &fakeGoogleOAuth{
		log: log,
		refreshed: &domain.OAuthToken{
			AccessToken: "ya29.fresh",
			Expiry:      time.Now().Add(time.Hour),
		},
	}
	svc, _ := newConnectorServiceForTest(repo, google)

	connector, err := repo.Get(context.Background(), testShop, domain.ProviderGoogle)
	require.NoError(t, err)

	token, err := svc.FreshGoogleToken(context.Background(), connector)

	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", token)
	assert.Equal(t, 1, google.refreshCalls)

	// The rotated token was persisted, not just returned.
	stored, err := repo.Get(context.Background(), testShop, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
}

func TestFreshGoogleTokenRefreshesWithinSkewWindow(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	google := &fakeGoogleOAuth{
		refreshed: &domain.OAuthToken{AccessToken: "ya29.fresh", Expiry: time.Now().Add(time.Hour)},
	}
	svc, _ := newConnectorServiceForTest(repo, google)

	// Not yet expired, but inside the refresh-ahead window.
	connector := &domain.Connector{
		ShopDomain:   testShop,
		Provider:     domain.ProviderGoogle,
		AccessToken:  "ya29.dying",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(time.Minute),
	}

	token, err := svc.FreshGoogleToken(context.Background(), connector)

	require.NoError(t, err)
	assert.Equal(t, "ya29.fresh", token)
}

func TestFreshGoogleTokenFailsWithoutRefreshToken(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	svc, _ := newConnectorServiceForTest(repo, &fakeGoogleOAuth{})

	connector := &domain.Connector{
		ShopDomain:  testShop,
		Provider:    domain.ProviderGoogle,
		AccessToken: "ya29.stale",
		ExpiresAt:   time.Now().Add(-time.Minute),
	}

	_, err := svc.FreshGoogleToken(context.Background(), connector)

	assert.Error(t, err)
}

func TestDisconnectDeletesConnector(t *testing.T) {
	repo := newFakeConnectorRepo(nil)
	repo.put(&domain.Connector{ShopDomain: testShop, Provider: domain.ProviderGoogle})
	svc, _ := newConnectorServiceForTest(repo, &fakeGoogleOAuth{})

	count, err := svc.Disconnect(context.Background(), testShop, domain.ProviderGoogle)

	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Empty(t, repo.records)
}
