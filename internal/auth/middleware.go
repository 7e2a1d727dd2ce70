package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "auth_claims"

// Middleware rejects requests without a valid bearer token and stores the
// claims on the gin context for handlers downstream.
func Middleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := issuer.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Actor returns the authenticated username, or "system" when the request
// carries no claims (unauthenticated deployments, workers).
func Actor(c *gin.Context) string {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*Claims); ok && claims.Username != "" {
			return claims.Username
		}
	}
	return "system"
}
