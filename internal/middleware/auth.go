package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"claimintake/internal/auth"
	"claimintake/internal/domain"
)

const (
	ContextKeyClaimantID = "claimant_id"
	ContextKeyRole       = "role"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Auth returns Gin middleware that validates the bearer token and injects the
// caller's identity into the context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
			return
		}

		claims, err := verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		c.Set(ContextKeyClaimantID, claims.Subject)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole returns middleware that checks the caller's role against allowed roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	}
}

// GetClaimantID extracts the caller's subject from the Gin context.
func GetClaimantID(c *gin.Context) (string, error) {
	val, exists := c.Get(ContextKeyClaimantID)
	if !exists {
		return "", domain.ErrUnauthorized
	}
	id, _ := val.(string)
	if id == "" {
		return "", domain.ErrUnauthorized
	}
	return id, nil
}

// GetRole extracts the caller's role from the Gin context.
func GetRole(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	role, _ := val.(string)
	return role
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": msg},
	})
}
