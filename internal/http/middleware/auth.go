// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Tokens are issued by the
// upstream identity system and signed with HS256; this service only verifies
// them. The numeric user id is stored in the Gin context under "userID".
//
// Token sources, in order:
//   - Authorization: Bearer <token>
//   - ?token=<token> (browsers cannot set headers on websocket handshakes)
//
// When no secret is configured the middleware runs in development mode and
// trusts the X-User-ID header instead.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxKeyUserID = "userID"
	headerUserID = "X-User-ID"
)

// Identity is the caller as described by a verified token.
type Identity struct {
	UserID   uint64
	Username string
	Email    string
}

// ProvisionFunc mirrors a verified identity into the local user table.
// Errors are logged and do not fail the request.
type ProvisionFunc func(ctx context.Context, id Identity) error

// AuthOptions configures Authenticate.
type AuthOptions struct {
	// Secret is the HS256 key. Empty enables the X-User-ID development mode.
	Secret string
	// Provision, when set, is called for tokens that carry a username.
	Provision ProvisionFunc
}

var errBadUserClaim = errors.New("token has no usable user_id")

// Authenticate resolves the caller and aborts with 401 when it cannot.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	secret := []byte(opts.Secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(c *gin.Context) {
		if len(secret) == 0 {
			uid, err := strconv.ParseUint(strings.TrimSpace(c.GetHeader(headerUserID)), 10, 64)
			if err != nil || uid == 0 {
				unauthorized(c, "missing or invalid X-User-ID")
				return
			}
			setUser(c, uid)
			c.Next()
			return
		}

		raw := bearerToken(c)
		if raw == "" {
			unauthorized(c, "missing token")
			return
		}
		claims := jwt.MapClaims{}
		tok, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil })
		if err != nil || !tok.Valid {
			unauthorized(c, "invalid token")
			return
		}
		id, err := identityFromClaims(claims)
		if err != nil {
			unauthorized(c, err.Error())
			return
		}

		if opts.Provision != nil && id.Username != "" {
			if err := opts.Provision(c.Request.Context(), id); err != nil {
				lg := LoggerFrom(c)
				lg.Warn().Err(err).Uint64("user_id", id.UserID).Msg("user provisioning failed")
			}
		}
		setUser(c, id.UserID)
		c.Next()
	}
}

// setUser records the caller and adds user_id to the request-scoped logger.
func setUser(c *gin.Context, uid uint64) {
	c.Set(ctxKeyUserID, uid)
	setLogger(c, LoggerFrom(c).With().Uint64("user_id", uid).Logger())
}

// UserID returns the authenticated user id.
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint64)
	return uid, ok && uid != 0
}

// userKey renders the authenticated user id for logs and bucket keys, or ""
// when the request is anonymous.
func userKey(c *gin.Context) string {
	if uid, ok := UserID(c); ok {
		return strconv.FormatUint(uid, 10)
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}

// identityFromClaims reads user_id (number or decimal string, falling back to
// sub) plus optional username and email claims.
func identityFromClaims(claims jwt.MapClaims) (Identity, error) {
	var id Identity
	raw, ok := claims["user_id"]
	if !ok {
		raw = claims["sub"]
	}
	switch v := raw.(type) {
	case float64:
		if v <= 0 || v != float64(uint64(v)) {
			return id, errBadUserClaim
		}
		id.UserID = uint64(v)
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil || n == 0 {
			return id, errBadUserClaim
		}
		id.UserID = n
	default:
		return id, errBadUserClaim
	}
	id.Username, _ = claims["username"].(string)
	id.Email, _ = claims["email"].(string)
	return id, nil
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": RequestIDFrom(c),
		"code":       "unauthorized",
		"message":    msg,
	})
}
