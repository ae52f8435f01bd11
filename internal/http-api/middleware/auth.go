package middleware

import (
	"net/http"
	"strings"

	"reviewhub/internal/http-api/permission"
	"reviewhub/internal/http-api/service"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

func principalFromClaims(claims *service.Claims) permission.Principal {
	return permission.Principal{
		UserID:        claims.UserID,
		Username:      claims.Username,
		Role:          claims.Role,
		IsSuperuser:   claims.Superuser,
		Authenticated: true,
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	// Format: "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid bearer token and stores the resolved
// principal in the gin context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(principalKey, principalFromClaims(claims))
		c.Next()
	}
}

// OptionalAuthMiddleware resolves a principal when a valid token is
// present but lets anonymous requests through. Read-only endpoints are
// open; the write handlers check the principal themselves.
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := authService.ValidateToken(token); err == nil {
				c.Set(principalKey, principalFromClaims(claims))
			}
		}
		c.Next()
	}
}

// GetPrincipal returns the request principal; the zero value is the
// anonymous principal.
func GetPrincipal(c *gin.Context) permission.Principal {
	if v, exists := c.Get(principalKey); exists {
		if p, ok := v.(permission.Principal); ok {
			return p
		}
	}
	return permission.Principal{}
}

// RequireAuthenticated rejects anonymous principals. Used on mutation
// routes where reads stay open.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetPrincipal(c).Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects principals that fail the administration check.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if !p.Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if !permission.CanAdminister(p) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireWriteOrAdmin leaves read-only methods open and gates writes on
// the administration check.
func RequireWriteOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if permission.CanWriteOrAdmin(p, c.Request.Method) {
			c.Next()
			return
		}
		if !p.Authenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		} else {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
		}
		c.Abort()
	}
}
