package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"

	"lark/internal/support"
)

const tokenValidity = 24 * time.Hour

var (
	jwtKeyOnce sync.Once
	jwtKey     []byte
)

func signingKey() []byte {
	jwtKeyOnce.Do(func() {
		secret := support.GetEnv("JWT_SECRET", "")
		if secret == "" {
			log.Warn("JWT_SECRET not set, using an insecure development key")
			secret = "lark-dev-secret"
		}
		jwtKey = []byte(secret)
	})
	return jwtKey
}

func GenerateJWT(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(tokenValidity).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey())
}

func ValidateJWT(tokenString string) (map[string]interface{}, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return signingKey(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
