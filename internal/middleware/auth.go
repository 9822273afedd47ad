package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/BruksfildServices01/barber-booking/internal/domain/access"
)

const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// AuthMiddleware rejects requests without a valid HMAC bearer token.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_authorization_header"})
			return
		}

		actor, code := parseBearer(authHeader, secret)
		if code != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
			return
		}

		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the actor when a valid token is present and
// lets anonymous requests through.
func OptionalAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if actor, code := parseBearer(authHeader, secret); code == "" {
				setActor(c, actor)
			}
		}
		c.Next()
	}
}

// ActorFrom returns the verified caller; anonymous requests get the zero Actor.
func ActorFrom(c *gin.Context) access.Actor {
	userID, _ := c.Get(ContextUserID)
	role, _ := c.Get(ContextUserRole)

	id, _ := userID.(string)
	r, _ := role.(access.Role)
	return access.Actor{UserID: id, Role: r}
}

func setActor(c *gin.Context, a access.Actor) {
	c.Set(ContextUserID, a.UserID)
	c.Set(ContextUserRole, a.Role)
}

func parseBearer(header, secret string) (access.Actor, string) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return access.Actor{}, "invalid_authorization_header"
	}

	token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return access.Actor{}, "invalid_token"
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return access.Actor{}, "invalid_token_claims"
	}

	userID := subject(claims["sub"])
	rawRole, _ := claims["role"].(string)
	role, ok := access.ParseRole(rawRole)
	if userID == "" || !ok {
		return access.Actor{}, "invalid_token_payload"
	}

	return access.Actor{UserID: userID, Role: role}, ""
}

// subject accepts string ids and the numeric ids issued by older tokens.
func subject(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s <= 0 {
			return ""
		}
		return strconv.FormatInt(int64(s), 10)
	}
	return ""
}
