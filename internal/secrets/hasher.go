// Package secrets implements the memory-hard hashing primitives behind
// both password and client-secret verification.
//
// Hash strings are self-describing PHC format:
//
//	$argon2id$v=19$m=65536,t=3,p=2$<base64 salt>$<base64 digest>
//
// Legacy bcrypt hashes ($2a$/$2b$/$2y$ prefix) verify transparently so a
// directory can be migrated entry by entry.
package secrets

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptySecret is returned when a nil/empty secret is hashed or verified.
// It is the only error these operations produce; a malformed hash string is
// a verification failure, not an error.
var ErrEmptySecret = errors.New("secret must not be empty")

// Params holds Argon2id cost parameters.
type Params struct {
	MemoryKB    uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams are sized for tens of milliseconds and ~64MB transient
// memory per verification on current server hardware.
var DefaultParams = Params{
	MemoryKB:    64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes and verifies secrets. Stateless and safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher with the given parameters. Zero-valued fields
// fall back to DefaultParams.
func NewHasher(params Params) *Hasher {
	if params.MemoryKB == 0 {
		params.MemoryKB = DefaultParams.MemoryKB
	}
	if params.Iterations == 0 {
		params.Iterations = DefaultParams.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = DefaultParams.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultParams.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = DefaultParams.KeyLength
	}
	return &Hasher{params: params}
}

// Hash derives a PHC-format hash string from the secret. A fresh random
// salt is drawn per call, so hashing the same secret twice yields two
// different strings.
func (h *Hasher) Hash(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, h.params.Iterations, h.params.MemoryKB, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKB, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether the secret matches the encoded hash. The encoded
// string carries its own parameters, so hashes created under different cost
// settings still verify. A malformed hash returns (false, nil); only an
// empty secret is an error.
func (h *Hasher) Verify(secret, encoded string) (bool, error) {
	if secret == "" {
		return false, ErrEmptySecret
	}

	if strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(secret)) == nil, nil
	}

	params, salt, key, ok := decodeArgon2id(encoded)
	if !ok {
		return false, nil
	}

	derived := argon2.IDKey([]byte(secret), salt, params.Iterations, params.MemoryKB, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(derived, key) == 1, nil
}

// decodeArgon2id parses a PHC argon2id string. Returns ok=false on any
// structural violation.
func decodeArgon2id(encoded string) (Params, []byte, []byte, bool) {
	var params Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, false
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKB, &params.Iterations, &params.Parallelism); err != nil {
		return params, nil, nil, false
	}
	if params.MemoryKB == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return params, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, false
	}

	return params, salt, key, true
}

// dummySecret feeds DummyVerify. The value is irrelevant; it only has to
// be non-empty and never match.
const dummySecret = "warden-dummy-comparison-secret"

// DummyVerify burns the same hashing cost as a real verification without
// revealing anything. The Basic authenticator and the OAuth flow call it on
// unknown identifiers so the absent-entry path is not measurably faster
// than the wrong-secret path.
func (h *Hasher) DummyVerify() {
	salt := make([]byte, h.params.SaltLength)
	argon2.IDKey([]byte(dummySecret), salt, h.params.Iterations, h.params.MemoryKB, h.params.Parallelism, h.params.KeyLength)
}
