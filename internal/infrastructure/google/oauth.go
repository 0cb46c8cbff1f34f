package google

import (
	"context"
	"fmt"

	"shopsheet-sync/internal/domain"
	"shopsheet-sync/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// Only the scopes the sync needs: Sheets and Drive for the spreadsheet,
// plus the connected account's email for display.
var oauthScopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/userinfo.email",
}

// OAuth implements the GoogleOAuth port on top of golang.org/x/oauth2.
type OAuth struct {
	config *oauth2.Config
	logger zerolog.Logger
}

// NewOAuth creates a new Google OAuth adapter
func NewOAuth(clientID, clientSecret, redirectURL string, logger zerolog.Logger) ports.GoogleOAuth {
	return &OAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       oauthScopes,
			Endpoint:     googleoauth.Endpoint,
		},
		logger: logger,
	}
}

// AuthURL builds the consent URL. access_type=offline is required for a
// refresh token; prompt=consent forces Google to issue one even on
// re-authorization.
func (o *OAuth) AuthURL(state string) string {
	return o.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange trades an authorization code for tokens
func (o *OAuth) Exchange(ctx context.Context, code string) (*domain.OAuthToken, error) {
	token, err := o.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return fromOAuth2Token(token), nil
}

// Refresh obtains a fresh access token from a refresh token
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*domain.OAuthToken, error) {
	source := o.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return fromOAuth2Token(token), nil
}

func fromOAuth2Token(token *oauth2.Token) *domain.OAuthToken {
	return &domain.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}
