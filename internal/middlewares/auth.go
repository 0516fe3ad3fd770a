package middlewares

import (
	"codejudge/internal/services"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	UserContextKey     = "userID"
	usernameContextKey = "username"
)

type TokenValidator interface {
	ValidateToken(tokenString string) (*services.Claims, error)
}

// AuthMiddleware enforces authentication. The access token is read from the
// access_token cookie or a Bearer Authorization header.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserContextKey, claims.UserID)
		c.Set(usernameContextKey, claims.Username)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the userID when a valid token is present and
// lets the request through either way.
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err == nil && claims != nil {
			c.Set(UserContextKey, claims.UserID)
		}

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie("access_token"); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
