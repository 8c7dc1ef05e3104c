package secrets

import (
	"crypto/rand"
	"fmt"
)

// secretAlphabet mixes letter cases and digits; 62 symbols.
const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecret returns a random secret of the given length drawn from
// upper/lower-case letters and digits using crypto/rand. Rejection sampling
// keeps the distribution uniform across the alphabet.
func GenerateSecret(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", length)
	}

	// Largest multiple of len(alphabet) below 256; bytes at or above it
	// are discarded to avoid modulo bias.
	const limit = byte(256 - 256%len(secretAlphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, secretAlphabet[int(b)%len(secretAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
