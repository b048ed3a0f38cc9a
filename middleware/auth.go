package middleware

import (
	"net/http"
	"strings"

	"editorial-submission-api/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	AdminID string `json:"admin_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the admin JWT and loads the account.
func AuthMiddleware(jwtSecret string, admins repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		// The account must still exist and be active.
		admin, err := admins.ByID(claims.AdminID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Admin account not found"})
			c.Abort()
			return
		}

		c.Set("adminID", admin.AdminID)
		c.Set("adminEmail", admin.Email)
		c.Set("adminName", admin.DisplayName)

		c.Next()
	}
}

// AdminID reads the authenticated admin id from the request context.
func AdminID(c *gin.Context) string {
	if v, ok := c.Get("adminID"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// AdminName reads the authenticated admin display name from the context.
func AdminName(c *gin.Context) string {
	if v, ok := c.Get("adminName"); ok {
		if name, ok := v.(string); ok {
			return name
		}
	}
	return ""
}
