package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Omillo-Charles/New-Testament-Backend/internal/domain"
	"github.com/Omillo-Charles/New-Testament-Backend/pkg/httpclient"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// GoogleConfig holds the Google OAuth client credentials.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleProvider performs the Google OAuth code exchange and profile fetch.
type GoogleProvider struct {
	oauthCfg    *oauth2.Config
	client      *httpclient.CircuitBreakerClient
	userInfoURL string
	logger      *slog.Logger
}

// NewGoogleProvider creates a Google OAuth provider. The userinfo fetch goes
// through the circuit-breaker client so a Google outage fails fast instead of
// piling up requests.
func NewGoogleProvider(cfg GoogleConfig, client *httpclient.CircuitBreakerClient, logger *slog.Logger) *GoogleProvider {
	return &GoogleProvider{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		client:      client,
		userInfoURL: defaultUserInfoURL,
		logger:      logger,
	}
}

// AuthCodeURL returns the Google consent page URL carrying the given
// anti-forgery state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for an access token.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

// googleUserInfo mirrors the OpenID Connect userinfo response.
type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// FetchIdentity retrieves the verified profile for the given token.
func (p *GoogleProvider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*domain.ExternalIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, string(body))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	if info.Sub == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo response missing subject or email")
	}

	firstName := info.GivenName
	if firstName == "" {
		firstName = info.Name
	}

	return &domain.ExternalIdentity{
		Provider:      domain.ProviderGoogle,
		ExternalID:    info.Sub,
		Email:         info.Email,
		FirstName:     firstName,
		LastName:      info.FamilyName,
		Avatar:        info.Picture,
		EmailVerified: info.EmailVerified,
	}, nil
}
