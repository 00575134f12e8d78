// Package auth holds the session machinery: the signed token codec, the
// cookie that carries it, password hashing, the per-request user resolver and
// the route gate.
//
// SESSION FLOW:
//  1. POST /login or /register succeeds → TokenService.Issue(userID)
//  2. The token is written to the "auth-token" HttpOnly cookie (SessionCookie)
//  3. Each request passes through Authenticate: cookie → Verify → user lookup
//  4. Handlers read the resolved user with UserFromContext
//  5. POST /logout overwrites the cookie with MaxAge -1
//
// Nothing is stored server-side. A session ends when the cookie is deleted or
// the token's exp claim passes.
//
// TOKEN STRUCTURE (HS256 JWT):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Payload: {"iss":"cookbook","sub":"<userID>","iat":...,"exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, JWT_SECRET)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "cookbook"

// DefaultTokenTTL is used when no lifetime is configured.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrInvalidToken is the only error Verify returns. Malformed, tampered and
// expired tokens are indistinguishable to callers.
var ErrInvalidToken = errors.New("auth: invalid session token")

// TokenService issues and verifies session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithTTL sets the token lifetime.
func WithTTL(d time.Duration) TokenOption {
	return func(s *TokenService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now for both issuing and verifying. Tests use it to
// fast-forward past expiry.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// NewTokenService creates a TokenService. There is no default secret: an
// empty or short one is a startup error.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL reports how long issued tokens stay valid. The session cookie uses it
// as its Max-Age.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for userID, valid from now until now+TTL.
func (s *TokenService) Issue(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("auth: cannot issue token without a user id")
	}
	now := s.now()

	c := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Verify returns the user id embedded in token, or ErrInvalidToken.
//
// The parser pins the algorithm to HS256 so a token with "alg":"none" or an
// asymmetric algorithm is rejected before the key is used.
func (s *TokenService) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	var c jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(
		token,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
