package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// ResetTokenBytes is the amount of randomness in a password reset token (256 bits).
const ResetTokenBytes = 32

func GenerateRandomToken(size int) (string, error) {
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// NewResetToken returns a URL-safe reset token and the digest that gets stored.
func NewResetToken() (token string, digest string, err error) {
	token, err = GenerateRandomToken(ResetTokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, HashToken(token), nil
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
