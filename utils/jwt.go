package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/avdeevm/blogapi/config"
)

// Token types carried in the typ claim. Protected routes only accept access
// tokens; the refresh endpoint only accepts refresh tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateAccessToken issues a short-lived access JWT for the user identity.
func GenerateAccessToken(userID uint, username string) (string, error) {
	ttl := time.Duration(config.Get().AccessTokenTTLMinutes) * time.Minute
	return generateToken(userID, username, TokenTypeAccess, ttl)
}

// GenerateRefreshToken issues a longer-lived refresh JWT.
func GenerateRefreshToken(userID uint, username string) (string, error) {
	ttl := time.Duration(config.Get().RefreshTokenTTLHours) * time.Hour
	return generateToken(userID, username, TokenTypeRefresh, ttl)
}

func generateToken(userID uint, username, tokenType string, duration time.Duration) (string, error) {
	cfg := config.Get()

	claims := Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT signature and expiry and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
