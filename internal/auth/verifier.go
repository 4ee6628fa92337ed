// Package auth issues and checks bearer tokens for the merchant API.
// Only the client credentials grant is supported.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/oauth"
)

// Predefined errors.
var (
	ErrInvalidClient    = errors.New("invalid client credentials")
	ErrUnsupportedGrant = errors.New("unsupported grant type")
)

// DefaultTokenTTL is the access token lifetime.
const DefaultTokenTTL = time.Hour

type (
	// Verifier checks the merchant client credentials.
	Verifier struct {
		clientID     string
		clientSecret string
	}
)

// NewVerifier creates a verifier accepting a single client.
func NewVerifier(clientID, clientSecret string) *Verifier {
	return &Verifier{clientID: clientID, clientSecret: clientSecret}
}

// ValidateUser is not supported.
func (v *Verifier) ValidateUser(_, _, _ string, _ *http.Request) error {
	return ErrUnsupportedGrant
}

// ValidateClient validates client id and secret.
func (v *Verifier) ValidateClient(clientID, clientSecret, _ string, _ *http.Request) error {
	if v.clientID == "" || v.clientSecret == "" {
		return ErrInvalidClient
	}
	idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(v.clientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(clientSecret), []byte(v.clientSecret)) == 1
	if !idOK || !secretOK {
		return ErrInvalidClient
	}
	return nil
}

// ValidateCode is not supported.
func (v *Verifier) ValidateCode(_, _, _, _ string, _ *http.Request) (string, error) {
	return "", ErrUnsupportedGrant
}

// AddClaims adds the requested scope to the token.
func (v *Verifier) AddClaims(_ oauth.TokenType, _, _, scope string, _ *http.Request) (map[string]string, error) {
	if scope == "" {
		return nil, nil
	}
	return map[string]string{"scope": scope}, nil
}

// AddProperties adds nothing to the token response.
func (v *Verifier) AddProperties(_ oauth.TokenType, _, _, _ string, _ *http.Request) (map[string]string, error) {
	return nil, nil
}

// ValidateTokenID accepts every token id, tokens are stateless.
func (v *Verifier) ValidateTokenID(_ oauth.TokenType, _, _, _ string) error {
	return nil
}

// StoreTokenID does not store anything, tokens are stateless.
func (v *Verifier) StoreTokenID(_ oauth.TokenType, _, _, _ string) error {
	return nil
}

// NewOAuth2Server creates a bearer token server.
func NewOAuth2Server(signingKey string, ttl time.Duration, v oauth.CredentialsVerifier) *oauth.BearerServer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return oauth.NewBearerServer(signingKey, ttl, v, nil)
}

// MakeHTTPHandler returns the token endpoint handler.
func MakeHTTPHandler(s *oauth.BearerServer) http.Handler {
	r := chi.NewRouter()
	r.Post("/token", s.ClientCredentials)
	return r
}

// Middleware returns a middleware rejecting requests without a valid bearer token.
func Middleware(signingKey string) func(http.Handler) http.Handler {
	return oauth.Authorize(signingKey, nil)
}
