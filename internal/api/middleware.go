package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/expotoworld/expotoworld/backend/catalog-admin-service/internal/logging"
)

// RoleAdmin is the role claim required for catalog deletions
const RoleAdmin = "Admin"

// AuthMiddleware enforces a valid HS256 JWT signed with secret
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}
		if secret == "" {
			logging.LogKV(logging.LevelError, "JWT_SECRET not set", nil)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server not configured"})
			c.Abort()
			return
		}
		token, err := jwt.Parse(tokenParts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			logging.LogKV(logging.LevelWarn, "token invalid", logging.Fields{
				"request_id": c.GetString("request_id"),
				"error":      err,
			})
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			c.Set("user_id", claims["user_id"])
			c.Set("email", claims["email"])
			if r, ok := claims["role"].(string); ok {
				c.Set("role", r)
			}
		}
		c.Next()
	}
}

// AdminMiddleware requires strict Admin role for write operations
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsAdmin returns true if current context has Admin role
func IsAdmin(c *gin.Context) bool {
	roleVal, exists := c.Get("role")
	if !exists {
		return false
	}
	role, _ := roleVal.(string)
	return role == RoleAdmin
}
