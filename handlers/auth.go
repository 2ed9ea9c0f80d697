package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/contractdesk/contractdesk/backend/go-services/internal/config"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/models"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/sessions"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/tokens"
	"github.com/contractdesk/contractdesk/backend/go-services/internal/users"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/logger"
	"github.com/contractdesk/contractdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// IdentityProvider performs the upstream sign-in grants and returns the
// verified ID token claims. *oidc.Keycloak implements it.
type IdentityProvider interface {
	PasswordLogin(ctx context.Context, username, password string) (map[string]interface{}, error)
	CodeLogin(ctx context.Context, code, redirectURI string) (map[string]interface{}, error)
}

// LoginRequest used for password-mode login (dev/testing)
type LoginRequest struct {
	Mode        string `json:"mode" binding:"required"` // "password" | "auth_code"
	Username    string `json:"username"`
	Password    string `json:"password"`
	Code        string `json:"code"`         // authorization code
	RedirectURI string `json:"redirect_uri"` // redirect uri used in auth code flow
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler holds dependencies
type AuthHandler struct {
	cfg         *config.Config
	idp         IdentityProvider
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
}

func NewAuthHandler(cfg *config.Config, idp IdentityProvider, u *users.Service, s *sessions.Service) *AuthHandler {
	return &AuthHandler{cfg: cfg, idp: idp, usersSvc: u, sessionsSvc: s}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", h.Logout)
}

// RegisterMe mounts GET /me on an authenticated group.
func (h *AuthHandler) RegisterMe(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

func (h *AuthHandler) accessTTL() time.Duration {
	if h.cfg.JWT.AccessTokenTTL > 0 {
		return h.cfg.JWT.AccessTokenTTL
	}
	return defaultAccessTTL
}

func (h *AuthHandler) refreshTTL() time.Duration {
	if h.cfg.JWT.RefreshTokenTTL > 0 {
		return h.cfg.JWT.RefreshTokenTTL
	}
	return defaultRefreshTTL
}

// Login signs the user in with Keycloak (password grant or authorization-code
// exchange), records the user with its role and issues our own token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if h.idp == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "identity provider not configured"})
		return
	}
	ctx := c.Request.Context()
	log := logger.FromContext(ctx)

	var claims map[string]interface{}
	var err error
	switch req.Mode {
	case "password":
		claims, err = h.idp.PasswordLogin(ctx, req.Username, req.Password)
	case "auth_code":
		if req.Code == "" || req.RedirectURI == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and redirect_uri required for auth_code mode"})
			return
		}
		log.Debugf("Login(auth_code): code length=%d redirect_uri=%s", len(req.Code), req.RedirectURI)
		claims, err = h.idp.CodeLogin(ctx, req.Code, req.RedirectURI)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported mode"})
		return
	}
	if err != nil {
		log.Warnf("login (%s) failed: %v", req.Mode, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": err.Error()})
		return
	}

	if _, err := h.usersSvc.UpsertFromClaims(ctx, claims); err != nil {
		log.Errorf("user upsert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed", "details": err.Error()})
		return
	}
	u, err := h.usersSvc.EnsureRole(ctx, claims)
	if err != nil {
		log.Errorf("ensure role: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user upsert failed", "details": err.Error()})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed", "details": "id token has no subject"})
		return
	}

	rft, err := h.sessionsSvc.CreateSession(ctx, u.Sub, h.refreshTTL())
	if err != nil {
		log.Errorf("failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session", "details": err.Error()})
		return
	}
	h.issue(c, u, rft)
}

func (h *AuthHandler) issue(c *gin.Context, u *models.User, refresh string) {
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.accessTTL())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create access token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"user":         u,
		"expiresIn":    int(h.accessTTL().Seconds()),
	})
}

// Refresh rotates the refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	next, sess, err := h.sessionsSvc.Rotate(ctx, req.RefreshToken, h.refreshTTL())
	if err != nil {
		logger.FromContext(ctx).Errorf("refresh rotate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
		return
	}
	if sess == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	u, err := h.usersSvc.GetBySub(ctx, sess.Sub)
	if err != nil || u == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
		return
	}
	h.issue(c, u, next)
}

// Logout invalidates the refresh token and blacklists the presented access
// token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	if at := bearerToken(c); at != "" {
		if ttl := tokens.Remaining(at); ttl > 0 {
			if err := sessions.BlacklistAccessToken(ctx, at, ttl); err != nil {
				logger.FromContext(ctx).Errorf("blacklist access token: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to blacklist access token"})
				return
			}
		}
	}
	if err := h.sessionsSvc.DeleteRefresh(ctx, req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the current user, creating the local record and role on first use.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.Claims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	u, err := h.usersSvc.EnsureRole(c.Request.Context(), claims)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed", "details": err.Error()})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "role": u.Role, "isAdmin": u.IsAdmin()})
}

func bearerToken(c *gin.Context) string {
	if v, ok := c.Get(middleware.AccessTokenKey); ok {
		if s, _ := v.(string); s != "" {
			return s
		}
	}
	tok, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return strings.TrimSpace(tok)
}
