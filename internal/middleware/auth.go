package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// AuthContextKey holds the authenticated caller on the gin context
	AuthContextKey = "caller"
)

// Claims represents JWT claims issued to systems that report asset events
type Claims struct {
	Caller string `json:"caller"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator for the shared secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// GenerateToken generates a JWT token for a caller
func (a *Authenticator) GenerateToken(caller string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Caller: caller,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ParseToken validates a token string and returns its claims
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// JWTAuth middleware validates bearer tokens
func JWTAuth(auth *Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(AuthContextKey, claims.Caller)
		c.Next()
	}
}

// GetCaller retrieves the authenticated caller from the context
func GetCaller(c *gin.Context) (string, bool) {
	caller, exists := c.Get(AuthContextKey)
	if !exists {
		return "", false
	}

	callerStr, ok := caller.(string)
	return callerStr, ok
}
