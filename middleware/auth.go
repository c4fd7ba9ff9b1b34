package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/openstall/marketplace/models"
)

const PrincipalContextKey = "principal"

// Principal is the authenticated actor: an id and a role, as vouched for by
// the identity provider's token. Credential issuance itself happens
// elsewhere; this middleware only consumes bearer tokens.
type Principal struct {
	ID   string
	Role string
}

// ParseToken validates an HMAC-signed bearer token and extracts the actor.
func ParseToken(tokenStr string, secret []byte) (*Principal, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	id, _ := claims["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("token missing subject id")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = models.RoleUser
	}

	return &Principal{ID: id, Role: role}, nil
}

// AuthMiddleware requires a valid bearer token and stores the Principal in
// the gin context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		principal, err := ParseToken(strings.TrimPrefix(header, "Bearer "), key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}

		c.Set(PrincipalContextKey, principal)
		c.Next()
	}
}

// GetPrincipal returns the authenticated actor from the gin context.
func GetPrincipal(c *gin.Context) (*Principal, error) {
	if val, ok := c.Get(PrincipalContextKey); ok {
		if p, ok := val.(*Principal); ok {
			return p, nil
		}
	}
	return nil, errors.New("principal not found in context")
}

// RequireRoles aborts unless the actor holds one of the given roles.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := GetPrincipal(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Forbidden"})
	}
}
