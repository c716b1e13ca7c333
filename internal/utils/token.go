package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// PasswordResetTokenBytes yields a 64 character hex token
const PasswordResetTokenBytes = 32

// GenerateToken returns a random hex string of 2*n characters
func GenerateToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return hex.EncodeToString(bytes), nil
}
