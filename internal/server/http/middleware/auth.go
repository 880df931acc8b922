package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/paperdesk/internal/domain/errors"
	"github.com/polkiloo/paperdesk/internal/domain/model"
	pkgAuth "github.com/polkiloo/paperdesk/internal/pkg/auth"
)

const (
	// UserIDContextKey is a gin context key for authenticated profile identifier.
	UserIDContextKey = "userID"
	// ClaimsContextKey holds the verified session claims.
	ClaimsContextKey = "claims"
	// CapabilitiesContextKey holds resolved capabilities once a role check ran.
	CapabilitiesContextKey = "capabilities"
	// AuthCookieName is the session cookie.
	AuthCookieName = "paperdesk_token"
)

// Authorizer verifies sessions and resolves privileges.
type Authorizer interface {
	Authorize(ctx context.Context, token string) (pkgAuth.Claims, error)
	Capabilities(ctx context.Context, profileID uuid.UUID) (model.Capabilities, error)
}

// AuthRequired ensures user is authenticated before accessing handler.
func AuthRequired(auth Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := auth.Authorize(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Set(UserIDContextKey, claims.UserID)
		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// AdminRequired lets only admins through. It must run after AuthRequired.
func AdminRequired(auth Authorizer) gin.HandlerFunc {
	return requireCapability(auth, func(caps model.Capabilities) bool { return caps.Admin })
}

// WriterRequired lets only writers through. It must run after AuthRequired.
func WriterRequired(auth Authorizer) gin.HandlerFunc {
	return requireCapability(auth, func(caps model.Capabilities) bool { return caps.Writer })
}

func requireCapability(auth Authorizer, allowed func(model.Capabilities) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := c.Get(UserIDContextKey)
		profileID, _ := id.(uuid.UUID)
		if !ok || profileID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		caps, err := auth.Capabilities(c.Request.Context(), profileID)
		if err != nil {
			if errors.Is(err, domainErrors.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
				return
			}
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !allowed(caps) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(CapabilitiesContextKey, caps)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(AuthCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, token, maxAge, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
}

// ClearAuthCookie expires the session cookie.
func ClearAuthCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
}
