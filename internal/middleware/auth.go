package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

type identity struct {
	userID   int
	username string
	role     string
}

func parseBearer(c *gin.Context) (identity, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return identity{}, fmt.Errorf("missing authorization header")
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return identity{}, fmt.Errorf("invalid authorization header")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return identity{}, fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return identity{}, fmt.Errorf("invalid user_id claim")
	}

	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)

	return identity{userID: int(userID), username: username, role: role}, nil
}

func setIdentity(c *gin.Context, id identity) {
	c.Set("user_id", id.userID)
	c.Set("username", id.username)
	c.Set("role", id.role)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseBearer(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth sets the viewer identity when a valid token is present but
// lets anonymous requests through. Public station pages use it so comment
// permission flags render for logged-in viewers.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := parseBearer(c); err == nil {
			setIdentity(c, id)
		}
		c.Next()
	}
}
