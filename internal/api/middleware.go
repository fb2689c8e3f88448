// Package api - Authentication middleware
package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aethra/steward/internal/auth"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity on the context. Missing or invalid tokens get the 401 body the
// admin clients key their logout behavior on.
func AuthMiddleware(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			unauthenticated(c)
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			unauthenticated(c)
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireAdmin rejects callers whose token does not carry the admin role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get("role"); role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "This action is unauthorized.",
			})
			return
		}
		c.Next()
	}
}

func unauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": "Unauthenticated.",
	})
}
