package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/retoro-app/retoro-backend/pkg/config"
	pkgerrors "github.com/retoro-app/retoro-backend/pkg/errors"
)

const (
	defaultAppleJWKSURL = "https://appleid.apple.com/auth/keys"
	defaultAppleIssuer  = "https://appleid.apple.com"

	jwksRefreshInterval       = 15 * time.Minute
	jwksBodyReadLimit   int64 = 1024
)

// Identity is the provider-agnostic result of verifying an OAuth credential.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// AppleVerifier validates Apple identity tokens against Apple's published
// signing keys. Keys are cached and refetched when an unknown kid shows up,
// at most once per refresh interval.
type AppleVerifier struct {
	httpClient *http.Client
	jwksURL    string
	issuer     string
	bundleID   string

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	lastFetched time.Time
}

// AppleOption configures optional verifier behavior.
type AppleOption func(*AppleVerifier)

// WithAppleHTTPClient overrides the default HTTP client.
func WithAppleHTTPClient(client *http.Client) AppleOption {
	return func(v *AppleVerifier) {
		if client != nil {
			v.httpClient = client
		}
	}
}

// NewAppleVerifier builds a verifier for the configured bundle ID.
func NewAppleVerifier(cfg config.AppleConfig, opts ...AppleOption) *AppleVerifier {
	v := &AppleVerifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		jwksURL:    cfg.JWKSURL,
		issuer:     cfg.Issuer,
		bundleID:   cfg.BundleID,
		keys:       map[string]*rsa.PublicKey{},
	}
	if v.jwksURL == "" {
		v.jwksURL = defaultAppleJWKSURL
	}
	if v.issuer == "" {
		v.issuer = defaultAppleIssuer
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

type appleClaims struct {
	Email         string `json:"email"`
	EmailVerified any    `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verify checks the identity token signature and claims and returns the
// normalized identity. Apple does not include a name claim; the client app
// passes the name separately on first sign-in.
func (v *AppleVerifier) Verify(ctx context.Context, identityToken string) (*Identity, error) {
	if strings.TrimSpace(identityToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity token is required")
	}

	claims := &appleClaims{}
	token, err := jwt.ParseWithClaims(identityToken, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token missing kid header")
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.bundleID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid Apple identity token")
	}
	if !token.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid Apple identity token")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Apple identity token missing subject")
	}

	return &Identity{
		Subject:       sub,
		Email:         strings.ToLower(strings.TrimSpace(claims.Email)),
		EmailVerified: truthyClaim(claims.EmailVerified),
	}, nil
}

// truthyClaim handles Apple sending email_verified as either a JSON bool or
// the string "true".
func truthyClaim(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(t, "true")
	default:
		return false
	}
}

func (v *AppleVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	if time.Since(v.lastFetched) < jwksRefreshInterval && len(v.keys) > 0 {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}

	if err := v.refreshLocked(ctx); err != nil {
		return nil, err
	}
	if key, ok := v.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("unknown signing key %q", kid)
}

func (v *AppleVerifier) refreshLocked(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("build jwks request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, jwksBodyReadLimit))
		return fmt.Errorf("jwks status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(payload.Keys))
	for _, k := range payload.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaKeyFromJWK(k.N, k.E)
		if err != nil {
			return fmt.Errorf("parse jwk %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	v.keys = keys
	v.lastFetched = time.Now()
	return nil
}

func rsaKeyFromJWK(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	exp := 0
	for _, b := range eb {
		exp = exp<<8 | int(b)
	}
	if exp <= 0 {
		return nil, fmt.Errorf("invalid exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: exp,
	}, nil
}
