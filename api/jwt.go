package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/virtudoc/virtudoc-engine/models"
)

// WSClaims are the claims carried by a websocket handshake token
type WSClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueWSToken signs a short-lived token for the websocket handshake
func IssueWSToken(secret, userID string, role models.Role, ttl time.Duration) (string, error) {
	claims := WSClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseWSToken validates a handshake token and returns the user and role
func ParseWSToken(secret, tokenString string) (string, models.Role, error) {
	token, err := jwt.ParseWithClaims(tokenString, &WSClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(*WSClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token claims")
	}
	role := models.Role(claims.Role)
	if !role.IsValid() {
		return "", "", fmt.Errorf("invalid role %q", claims.Role)
	}
	return claims.Subject, role, nil
}
