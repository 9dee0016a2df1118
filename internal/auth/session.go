// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpireHours controls session token lifetime; TOKEN_EXPIRE_TIME
	// overrides it (hours).
	tokenExpireHours = 24 * 7
)

// Init generates the EdDSA signing key pair for session tokens. Tokens do
// not survive a restart; players simply rejoin.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key: %w", err)
	}
	if v := os.Getenv("TOKEN_EXPIRE_TIME"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			tokenExpireHours = hours
		}
	}
	return nil
}

// CreateJWT mints a signed session token for the given player id.
func CreateJWT(playerID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": playerID.String(),
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(tokenExpireHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}
	return signed, nil
}

// AuthenticateJWT validates the token signature and expiry and returns the
// player id it was minted for.
func AuthenticateJWT(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid subject claim: %w", err)
	}
	return id, nil
}
