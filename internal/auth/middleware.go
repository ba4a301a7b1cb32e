package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireRole enforces bearer JWT access tokens signed with HS256 and limits
// the route group to the given roles.
func RequireRole(signingKey, issuer string, roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil || claims.Purpose != PurposeAccess {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if len(allowed) > 0 && !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Set("claims", claims)
		c.Next()
	}
}

// ClaimsFrom extracts the authenticated principal placed by RequireRole.
func ClaimsFrom(c *gin.Context) Claims {
	claimsAny, _ := c.Get("claims")
	claims, _ := claimsAny.(Claims)
	return claims
}
