package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/model"
)

// StateCookie carries the OAuth state between redirect and callback.
const StateCookie = "oauth_state"

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether federated login is configured.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GoogleProvider runs the authorization-code flow against Google.
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

// NewGoogleProvider creates a provider for cfg.
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

// AuthCodeURL returns the consent page URL for state.
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Identity exchanges code for a token and fetches the user's profile.
func (p *GoogleProvider) Identity(ctx context.Context, code string) (model.ExternalIdentity, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("%w: exchanging code: %w", apperr.ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return model.ExternalIdentity{}, err
	}
	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.ExternalIdentity{}, fmt.Errorf("%w: userinfo returned %d", apperr.ErrUnauthorized, resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return model.ExternalIdentity{}, fmt.Errorf("decoding userinfo: %w", err)
	}
	if info.ID == "" || info.Email == "" {
		return model.ExternalIdentity{}, fmt.Errorf("%w: userinfo missing id or email", apperr.ErrUnauthorized)
	}

	return model.ExternalIdentity{
		ExternalID:  info.ID,
		Email:       info.Email,
		DisplayName: info.Name,
	}, nil
}
