package middleware

import (
	"strings"

	"github.com/collabhub/backend/internal/auth"
	"github.com/collabhub/backend/internal/constants"
	apperrors "github.com/collabhub/backend/internal/errors"
	"github.com/gin-gonic/gin"
)

// AuthContext is the authenticated identity attached to a request. It
// is produced once by RequireAuth from the verified token claims and
// passed to core operations as a value, never mutated downstream.
type AuthContext struct {
	UserID   uint64
	Email    string
	Username string
}

// RequireAuth verifies the Bearer access token and stores the typed
// AuthContext in the gin context.
func RequireAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			apperrors.Unauthorized(c, "", "")
			c.Abort()
			return
		}

		claims, err := issuer.Verify(token)
		if err != nil {
			apperrors.Unauthorized(c, apperrors.ErrCodeInvalidToken, "Invalid or expired access token")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAuth, AuthContext{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Username: claims.Username,
		})
		c.Next()
	}
}

// OptionalAuth populates the AuthContext when a valid token is present
// but lets unauthenticated requests through. Used on routes that serve
// public projects.
func OptionalAuth(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if ok && token != "" {
			if claims, err := issuer.Verify(token); err == nil {
				c.Set(constants.ContextKeyAuth, AuthContext{
					UserID:   claims.UserID,
					Email:    claims.Email,
					Username: claims.Username,
				})
			}
		}
		c.Next()
	}
}

// GetAuth retrieves the authenticated context for the request.
func GetAuth(c *gin.Context) (AuthContext, bool) {
	value, exists := c.Get(constants.ContextKeyAuth)
	if !exists {
		return AuthContext{}, false
	}

	authCtx, ok := value.(AuthContext)
	return authCtx, ok
}

// CurrentUserID returns the authenticated user's ID, or 0 for
// unauthenticated requests.
func CurrentUserID(c *gin.Context) uint64 {
	authCtx, ok := GetAuth(c)
	if !ok {
		return 0
	}
	return authCtx.UserID
}
