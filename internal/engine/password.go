package engine

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// Passwords are stored as hex(sha256(salt || password)) with a random
// per-user salt.

const (
	saltBytes      = 16
	minPasswordLen = 6
)

var commonPasswords = map[string]bool{
	"password": true,
	"123456":   true,
	"admin":    true,
	"user":     true,
}

func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if commonPasswords[strings.ToLower(password)] {
		return fmt.Errorf("password is too common")
	}
	return nil
}

func newSalt() (string, error) {
	buf := make([]byte, saltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}

func verifyPassword(salt, hash, password string) bool {
	computed := hashPassword(salt, password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
