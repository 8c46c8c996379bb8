package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

	userInfoBodyReadLimit int64 = 1024
)

// GoogleClient exchanges authorization codes and resolves the Google profile.
type GoogleClient struct {
	oauth       oauth2.Config
	httpClient  *http.Client
	userInfoURL string
}

// GoogleOption configures optional client behavior.
type GoogleOption func(*GoogleClient)

// WithGoogleHTTPClient overrides the HTTP client used for the token exchange
// and the userinfo lookup.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(g *GoogleClient) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGoogleURLs overrides the provider endpoints, used by tests.
func WithGoogleURLs(tokenURL, userInfoURL string) GoogleOption {
	return func(g *GoogleClient) {
		if tokenURL != "" {
			g.oauth.Endpoint.TokenURL = tokenURL
		}
		if userInfoURL != "" {
			g.userInfoURL = userInfoURL
		}
	}
}

// NewGoogleClient builds the Google OAuth client from configuration.
func NewGoogleClient(cfg config.GoogleConfig, opts ...GoogleOption) (*GoogleClient, error) {
	if !cfg.Configured() {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google oauth is not configured")
	}

	g := &GoogleClient{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: googleTokenURL,
			},
		},
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		userInfoURL: googleUserInfoURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// AuthCodeURL returns the consent page URL for the given state.
func (g *GoogleClient) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ResolveCode exchanges an authorization code and fetches the user profile.
func (g *GoogleClient) ResolveCode(ctx context.Context, code string) (*Identity, error) {
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "authorization code is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "google token exchange failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build userinfo request")
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute userinfo request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, userInfoBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "userinfo request failed")
	}

	var info struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode userinfo response")
	}
	if info.ID == "" || info.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "google account did not supply an id or email")
	}

	return &Identity{
		Subject:       info.ID,
		Email:         strings.ToLower(strings.TrimSpace(info.Email)),
		EmailVerified: info.VerifiedEmail,
		Name:          strings.TrimSpace(info.Name),
	}, nil
}
