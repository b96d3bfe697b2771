// Package cryptox holds the cryptographic primitives used by the service:
// decoding of the document encryption key, streaming AES-CBC with PKCS#7
// padding, and argon2id password hashing.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cmcs/internal/shared"
	"golang.org/x/crypto/argon2"
)

// KeySize is the required length of the document encryption key (AES-256).
const KeySize = 32

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Limits on parameters read back from a stored hash. argon2.IDKey panics
// on zero threads and allocates m KiB, so both are bounded.
const (
	maxArgonTime   = 16
	maxArgonMemory = 1024 * 1024
	minArgonKeyLen = 16
	maxArgonKeyLen = 64
	minArgonSalt   = 8
)

var (
	ErrInvalidKeyLength    = errors.New("cryptox: key must decode to 32 bytes")
	ErrInvalidPasswordHash = errors.New("cryptox: malformed password hash")
)

// DecodeKey decodes a base64 (standard alphabet) encoded key and checks that
// it is exactly KeySize bytes long.
func DecodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, fmt.Errorf("%w: key is empty", ErrInvalidKeyLength)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKeyLength, err)
	}
	if len(key) != KeySize {
		shared.WipeByteArray(key)
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeyLength, len(key))
	}
	return key, nil
}

// GenerateKey returns a new random key encoded with base64, suitable for the
// crypto_key configuration value.
func GenerateKey() (string, error) {
	key, err := shared.RandBytes(KeySize)
	if err != nil {
		return "", err
	}
	defer shared.WipeByteArray(key)
	return base64.StdEncoding.EncodeToString(key), nil
}

func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword derives an argon2id hash of password with a random salt and
// returns it in the form
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// where salt and hash are unpadded base64.
func HashPassword(password string) (string, error) {
	salt, err := shared.RandBytes(argonSaltLen)
	if err != nil {
		return "", err
	}
	hash := deriveKey([]byte(password), salt)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword reports whether password matches an encoded hash produced
// by HashPassword. The comparison is constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrInvalidPasswordHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidPasswordHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, ErrInvalidPasswordHash
	}
	if threads == 0 || time == 0 || time > maxArgonTime ||
		memory < 8*uint32(threads) || memory > maxArgonMemory {
		return false, ErrInvalidPasswordHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) < minArgonSalt {
		return false, ErrInvalidPasswordHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(want) < minArgonKeyLen || len(want) > maxArgonKeyLen {
		return false, ErrInvalidPasswordHash
	}

	got := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
