// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the authenticated-session provider: it verifies an
// HS256 bearer token carrying the caller's name and mobile and exposes it to
// handlers as a *services.Session. Requests without a token are anonymous.
// Token issuance lives with the login flow, outside this service.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/go-order-backend/internal/observability"
	"github.com/tbourn/go-order-backend/internal/services"
)

const ctxKeySession = "session"

// SessionClaims is the token payload.
type SessionClaims struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	jwt.RegisteredClaims
}

// SessionOptions configures Session.
type SessionOptions struct {
	// Secret is the HMAC key. Empty disables verification entirely.
	Secret []byte
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// Tracker, when set, records each verified mobile and feeds the
	// order_sessions_distinct gauge.
	Tracker *services.SessionTracker
	// Now overrides the clock used for exp/nbf checks.
	Now func() time.Time
}

var errNoMobile = errors.New("session token has no mobile claim")

// Session returns a middleware that verifies "Authorization: Bearer <jwt>".
//
//   - No Authorization header: anonymous, continue.
//   - Valid token: *services.Session stored in the context (see SessionFrom).
//   - Invalid, expired or non-HS256 token: 401 with the error envelope.
func Session(opts SessionOptions) gin.HandlerFunc {
	if len(opts.Secret) == 0 {
		return func(c *gin.Context) { c.Next() }
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}
	parser := jwt.NewParser(parserOpts...)
	keyFn := func(*jwt.Token) (any, error) { return opts.Secret, nil }

	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok {
			token, ok = strings.CutPrefix(raw, "bearer ")
		}
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(c, "malformed Authorization header")
			return
		}

		var claims SessionClaims
		if _, err := parser.ParseWithClaims(strings.TrimSpace(token), &claims, keyFn); err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("session token rejected")
			unauthorized(c, "invalid session token")
			return
		}
		if strings.TrimSpace(claims.Mobile) == "" {
			LoggerFrom(c).Debug().Err(errNoMobile).Msg("session token rejected")
			unauthorized(c, "invalid session token")
			return
		}

		sess := &services.Session{Name: strings.TrimSpace(claims.Name), Mobile: strings.TrimSpace(claims.Mobile)}
		c.Set(ctxKeySession, sess)
		if opts.Tracker != nil {
			observability.SessionsDistinct.Set(float64(opts.Tracker.Observe(sess.Mobile)))
		}
		c.Next()
	}
}

// SessionFrom returns the verified session, or nil for anonymous callers.
func SessionFrom(c *gin.Context) *services.Session {
	v, ok := c.Get(ctxKeySession)
	if !ok {
		return nil
	}
	s, _ := v.(*services.Session)
	return s
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="orders"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": GetRequestID(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
