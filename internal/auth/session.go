package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoCookieHeader  = errors.New("missing cookie header")
	ErrNoSessionCookie = errors.New("missing session cookie")
	ErrInvalidToken    = errors.New("invalid session token")
	ErrEmptyIdentity   = errors.New("session token has no subject")
)

// sessionCookieNames are the accepted cookie names, first match wins.
var sessionCookieNames = []string{"__session", "session_token"}

// Identity is the verified identity attached to a connection for its lifetime.
type Identity struct {
	UserID string
	Role   string
	Claims jwt.MapClaims
}

// Authenticator verifies session cookies against the shared session secret.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Authenticate extracts and verifies the session cookie of a handshake
// request. It runs once per connection, before any handler is registered.
func (a *Authenticator) Authenticate(r *http.Request) (Identity, error) {
	if r.Header.Get("Cookie") == "" {
		return Identity{}, ErrNoCookieHeader
	}

	var raw string
	for _, name := range sessionCookieNames {
		if cookie, err := r.Cookie(name); err == nil && cookie.Value != "" {
			raw = cookie.Value
			break
		}
	}
	if raw == "" {
		return Identity{}, ErrNoSessionCookie
	}

	return a.Verify(raw)
}

// Verify decodes a session token and returns the identity it carries.
func (a *Authenticator) Verify(raw string) (Identity, error) {
	token, err := jwt.ParseWithClaims(raw, jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID := stringClaim(claims, "sub")
	if userID == "" {
		userID = stringClaim(claims, "user_id")
	}
	if userID == "" {
		return Identity{}, ErrEmptyIdentity
	}

	return Identity{
		UserID: userID,
		Role:   stringClaim(claims, "role"),
		Claims: claims,
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}
