package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Access tokens are 32 random bytes rendered as 64 lowercase hex characters.
const (
	tokenByteLength = 32
	TokenHexLength  = tokenByteLength * 2
)

// GenerateToken produces a new opaque access token.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// IsWellFormedToken checks fixed length and hex charset. Anything else fails
// fast before touching storage.
func IsWellFormedToken(token string) bool {
	if len(token) != TokenHexLength {
		return false
	}
	for _, c := range token {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
