package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "coinpredict"

// SessionClaims identify an admin session.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies short-lived admin tokens. The signing key is
// derived from the admin password, so rotating the password ends every session.
type Sessions struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewSessions returns nil when password is empty; a nil *Sessions rejects every token.
func NewSessions(password string, ttl time.Duration) *Sessions {
	if strings.TrimSpace(password) == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	mac := hmac.New(sha256.New, []byte(password))
	mac.Write([]byte("admin-session"))
	return &Sessions{key: mac.Sum(nil), ttl: ttl, now: time.Now}
}

func (s *Sessions) Sign(subject string) (token string, expiresAt time.Time, err error) {
	if s == nil {
		return "", time.Time{}, ErrNotConfigured
	}
	now := s.now().UTC()
	expiresAt = now.Add(s.ttl)
	claims := SessionClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (s *Sessions) Verify(token string) (SessionClaims, error) {
	if s == nil {
		return SessionClaims{}, ErrUnauthorized
	}
	parsed, err := jwt.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	}, jwt.WithIssuer(sessionIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return SessionClaims{}, ErrUnauthorized
	}
	c, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid || c.Role != "admin" {
		return SessionClaims{}, ErrUnauthorized
	}
	return *c, nil
}
