package middleware

import (
	"net/http"
	"slices"

	"safaristay/internal/domain"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireRole lets the request through when the token's role is one of roles.
// It must run after JWTAuth.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := domain.UserRole(c.GetString(CtxRole))
		if role == "" {
			response.CustomError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			return
		}
		if !slices.Contains(roles, role) {
			response.CustomError(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			return
		}
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
