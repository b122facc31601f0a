// Package idgen generates short hash-based issue IDs.
package idgen

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// base36Alphabet is the character set for base36 encoding (0-9, a-z).
const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// DefaultIDLength is the number of base36 characters after the prefix.
const DefaultIDLength = 4

// EncodeBase36 converts a byte slice to a base36 string of specified length.
func EncodeBase36(data []byte, length int) string {
	num := new(big.Int).SetBytes(data)

	base := big.NewInt(36)
	zero := big.NewInt(0)
	mod := new(big.Int)

	// Build the string in reverse
	chars := make([]byte, 0, length)
	for num.Cmp(zero) > 0 {
		num.DivMod(num, base, mod)
		chars = append(chars, base36Alphabet[mod.Int64()])
	}
	for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
		chars[i], chars[j] = chars[j], chars[i]
	}

	str := string(chars)
	if len(str) < length {
		str = strings.Repeat("0", length-len(str)) + str
	}
	// Keep least significant digits when too long
	if len(str) > length {
		str = str[len(str)-length:]
	}
	return str
}

// GenerateIssueID creates a hash-based ID like "tm-x7k2" from the issue's
// content. The nonce handles collisions: callers retry with nonce+1 when the
// store reports a duplicate key.
func GenerateIssueID(prefix, title, reporter string, timestamp time.Time, nonce int) string {
	content := fmt.Sprintf("%s|%s|%d|%d", title, reporter, timestamp.UnixNano(), nonce)
	hash := sha256.Sum256([]byte(content))
	// 3 bytes = 24 bits, comfortably fills 4 base36 chars
	return fmt.Sprintf("%s-%s", prefix, EncodeBase36(hash[:3], DefaultIDLength))
}
