package middleware

import (
	"net/http"
	"strings"

	"safaristay/internal/pkg/jwt"
	"safaristay/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// JWTAuth rejects requests without a valid bearer token.
func JWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, code, msg := bearerToken(c)
		if code != "" {
			response.CustomError(c, http.StatusUnauthorized, code, msg)
			return
		}

		claims, err := tokens.ValidateToken(raw)
		if err != nil {
			response.CustomError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuth sets the caller when a valid token is present and lets
// anonymous requests through.
func OptionalJWTAuth(tokens *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, code, _ := bearerToken(c); code == "" {
			if claims, err := tokens.ValidateToken(raw); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, message string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}

func setClaims(c *gin.Context, claims *jwt.Claims) {
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRole, claims.Role)
}
