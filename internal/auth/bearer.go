package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	// ErrNotConfigured means the guarding secret is empty; the endpoint stays closed.
	ErrNotConfigured = errors.New("secret not configured")
	ErrUnauthorized  = errors.New("unauthorized")
)

// CheckSecret compares a presented secret in constant time.
func CheckSecret(presented, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// check validates an Authorization header value against secret and, when
// sessions is set, against admin session tokens.
func check(header, secret string, sessions *Sessions) error {
	if strings.TrimSpace(secret) == "" {
		return ErrNotConfigured
	}
	header = strings.TrimSpace(header)
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ErrUnauthorized
	}
	token := strings.TrimSpace(header[len(prefix):])
	if CheckSecret(token, secret) == nil {
		return nil
	}
	if sessions != nil {
		if _, err := sessions.Verify(token); err == nil {
			return nil
		}
	}
	return ErrUnauthorized
}

// RequireSecret aborts with 500 when secret is empty and 401 when the bearer
// token does not match. name labels the secret in the error message and logs.
func RequireSecret(name, secret string, logger *zap.Logger) gin.HandlerFunc {
	return require(name, secret, nil, logger)
}

// RequireAdmin is RequireSecret that also accepts tokens issued by sessions.
func RequireAdmin(password string, sessions *Sessions, logger *zap.Logger) gin.HandlerFunc {
	return require("admin password", password, sessions, logger)
}

func require(name, secret string, sessions *Sessions, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := check(c.GetHeader("Authorization"), secret, sessions)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, ErrNotConfigured):
			if logger != nil {
				logger.Error("endpoint disabled: secret not configured",
					zap.String("secret", name),
					zap.String("path", c.FullPath()),
				)
			}
			abort(c, http.StatusInternalServerError, name+" not configured")
		default:
			if logger != nil {
				logger.Warn("unauthorized request",
					zap.String("secret", name),
					zap.String("path", c.FullPath()),
					zap.String("client_ip", c.ClientIP()),
				)
			}
			abort(c, http.StatusUnauthorized, "unauthorized")
		}
	}
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": status, "message": message})
}
