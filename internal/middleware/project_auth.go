package middleware

import (
	"strconv"

	"github.com/collabhub/backend/internal/access"
	"github.com/collabhub/backend/internal/constants"
	apperrors "github.com/collabhub/backend/internal/errors"
	"github.com/gin-gonic/gin"
)

// RequireProjectAccess resolves the caller's relationship to the
// project in the :id parameter and stores it in the gin context. A
// caller with no access gets 404 rather than 403 so the existence of
// private projects is not leaked.
func RequireProjectAccess(resolver *access.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apperrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		acc, err := resolver.Resolve(projectID, CurrentUserID(c))
		if err != nil {
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}

		if !acc.HasAccess {
			apperrors.NotFound(c, "Project not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyAccess, acc)
		c.Next()
	}
}

// RequirePermission checks the resolved role against the permission
// matrix for one action. Must run after RequireProjectAccess.
func RequirePermission(action access.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(constants.ContextKeyAccess)
		if !exists {
			apperrors.Forbidden(c, "Project access required")
			c.Abort()
			return
		}

		acc, ok := value.(access.Access)
		if !ok || !access.HasPermission(acc.Role, action) {
			apperrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Next()
	}
}
