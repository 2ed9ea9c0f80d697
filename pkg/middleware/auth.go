package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/sessions"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey      = "claims"
	AccessTokenKey = "access_token"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

type firstOf []Verifier

// FirstOf returns a Verifier that accepts a token when any of vs accepts it,
// trying them in order. Nil verifiers are skipped.
func FirstOf(vs ...Verifier) Verifier {
	out := firstOf{}
	for _, v := range vs {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

func (f firstOf) Verify(ctx context.Context, raw string) (Token, error) {
	var errs []error
	for _, v := range f {
		tok, err := v.Verify(ctx, raw)
		if err == nil {
			return tok, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, errors.New("no token verifier configured")
	}
	return nil, errors.Join(errs...)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// Tokens revoked at sign-out are rejected.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		token, ok := strings.CutPrefix(auth, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		ctx := c.Request.Context()
		revoked, err := sessions.IsAccessTokenBlacklisted(ctx, token)
		if err != nil {
			logger.FromContext(ctx).Warnf("blacklist lookup failed: %v", err)
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		verified, err := ver.Verify(ctx, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// Claims returns the verified claims map, or nil when the request is unauthenticated.
func Claims(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	cm, _ := v.(map[string]interface{})
	return cm
}

// ClaimString returns a string claim, or "" when absent.
func ClaimString(c *gin.Context, name string) string {
	s, _ := Claims(c)[name].(string)
	return s
}
