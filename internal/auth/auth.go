package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// IssueSessionToken signs a JWT granting access to one table session.
func IssueSessionToken(secret, sessionToken string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"session": sessionToken,
		"exp":     time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateSessionToken parses a session JWT and returns the session token it
// grants access to.
func ValidateSessionToken(secret, tokenString string) (string, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid session token claims")
	}
	session, ok := claims["session"].(string)
	if !ok || session == "" {
		return "", fmt.Errorf("session claim missing")
	}
	return session, nil
}

// HashAdminKey hashes an operator key for storage in ADMIN_KEY_HASH.
func HashAdminKey(plainKey string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plainKey), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash key: %w", err)
	}
	return string(hashed), nil
}

// VerifyAdminKey checks an operator key against the configured hash.
func VerifyAdminKey(hashedKey, plainKey string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(plainKey)) == nil
}
