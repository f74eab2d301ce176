package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"rentora-api-io/api/internal/auth"
	"rentora-api-io/api/pkg/models"
	"rentora-api-io/api/pkg/util"
)

// AdminOnly middleware restricts access to platform admin users only
func AdminOnly() gin.HandlerFunc {
	return requireRole(models.RoleAdmin, "admin access required")
}

// OwnerOnly middleware restricts access to property owner users only
func OwnerOnly() gin.HandlerFunc {
	return requireRole(models.RolePropertyOwner, "property owner access required")
}

func requireRole(role models.UserRole, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.ClaimsFrom(c)
		if err != nil {
			util.HandleError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}

		if claims.Role != role {
			util.HandleError(c, http.StatusForbidden, errors.New("insufficient permissions: "+message))
			c.Abort()
			return
		}

		c.Next()
	}
}
