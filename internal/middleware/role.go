package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"certhub/internal/domain/user"
	"certhub/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of roles.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		have, _ := role.(string)
		for _, r := range roles {
			if have == string(r) {
				c.Next()
				return
			}
		}

		response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(user.RoleAdmin)
}
