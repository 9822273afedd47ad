package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
)

const HousekeepingKeyHeader = "X-Housekeeping-Key"

// HousekeepingAuth admits an external scheduler presenting the shared key,
// or an admin bearer token.
func HousekeepingAuth(jwtSecret, keyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader(HousekeepingKeyHeader); key != "" {
			if keyHash == "" || bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)) != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_housekeeping_key"})
				return
			}
			c.Set(ContextUserRole, access.RoleAdmin)
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization_header"})
			return
		}
		actor, code := parseBearer(authHeader, jwtSecret)
		if code != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
			return
		}
		if !actor.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin_only"})
			return
		}

		setActor(c, actor)
		c.Next()
	}
}
