package obfuscate

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize      = 32     // Raw key size in bytes, before hex encoding
	DefaultIters = 210000 // PBKDF2 iterations for DeriveKey
	saltPrefix   = "quickdb-peer:"
)

var (
	ErrEmptyKey   = errors.New("obfuscation key is empty")
	ErrInvalidKey = errors.New("obfuscation key is not hex")
)

// Transform XORs data against the bytes of key, repeating key as needed.
// Applying it twice with the same key returns the original data.
// The input slice is not modified.
func Transform(data []byte, key string) []byte {
	out := make([]byte, len(data))
	if len(key) == 0 {
		copy(out, data)
		return out
	}
	k := []byte(key)
	for i, b := range data {
		out[i] = b ^ k[i%len(k)]
	}
	return out
}

// GenerateKey returns a fresh random key as a hex string
func GenerateKey() (string, error) {
	b, err := GenerateRandom(KeySize)
	if err != nil {
		return "", err
	}
	defer ClearBytes(b)
	return hex.EncodeToString(b), nil
}

// DeriveKey derives a hex key from a passphrase. The instance name salts
// the derivation so one passphrase yields different keys per instance.
func DeriveKey(passphrase []byte, instance string) string {
	salt := sha256.Sum256([]byte(saltPrefix + instance))
	key := pbkdf2.Key(passphrase, salt[:], DefaultIters, KeySize, sha256.New)
	defer ClearBytes(key)
	return hex.EncodeToString(key)
}

// ValidateKey checks that a caller-supplied key is usable
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return nil
}

// ClearBytes zeroes a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}
