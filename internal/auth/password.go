// Package auth hashes and verifies account passwords.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	DefaultIterations = 600000
	DefaultSaltLength = 16

	// legacyIterations applies to "pbkdf2:sha256" credentials written without an explicit count.
	legacyIterations = 260000
	saltChars        = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var errMalformedCredential = errors.New("malformed credential")

// Hasher produces salted PBKDF2-HMAC-SHA256 credentials encoded as
// "pbkdf2:sha256:<iterations>$<salt>$<hex digest>".
type Hasher struct {
	Iterations int
	SaltLength int
}

// NewHasher returns a Hasher, falling back to the defaults for non-positive values.
func NewHasher(iterations, saltLength int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	if saltLength <= 0 {
		saltLength = DefaultSaltLength
	}
	return &Hasher{Iterations: iterations, SaltLength: saltLength}
}

// Hash derives a credential for plaintext with a fresh random salt.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt, err := randomSalt(h.SaltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(plaintext), []byte(salt), h.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.Iterations, salt, hex.EncodeToString(digest)), nil
}

// Verify reports whether plaintext matches credential. Malformed or
// unsupported credentials never match.
func (h *Hasher) Verify(plaintext, credential string) bool {
	if isBcrypt(credential) {
		return bcrypt.CompareHashAndPassword([]byte(credential), []byte(plaintext)) == nil
	}

	method, salt, want, err := splitCredential(credential)
	if err != nil {
		return false
	}
	newHash, size, iterations, err := parseMethod(method)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(want)
	if err != nil || len(expected) != size {
		return false
	}

	got := pbkdf2.Key([]byte(plaintext), []byte(salt), iterations, size, newHash)
	return subtle.ConstantTimeCompare(got, expected) == 1
}

// NeedsRehash reports whether credential was produced with weaker settings than h.
func (h *Hasher) NeedsRehash(credential string) bool {
	if isBcrypt(credential) {
		return true
	}
	method, _, _, err := splitCredential(credential)
	if err != nil {
		return true
	}
	_, _, iterations, err := parseMethod(method)
	return err != nil || iterations < h.Iterations
}

func isBcrypt(credential string) bool {
	return strings.HasPrefix(credential, "$2a$") ||
		strings.HasPrefix(credential, "$2b$") ||
		strings.HasPrefix(credential, "$2y$")
}

func splitCredential(credential string) (method, salt, digest string, err error) {
	parts := strings.SplitN(credential, "$", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", errMalformedCredential
	}
	return parts[0], parts[1], parts[2], nil
}

// parseMethod understands "pbkdf2:<hash>[:<iterations>]".
func parseMethod(method string) (func() hash.Hash, int, int, error) {
	fields := strings.Split(method, ":")
	if len(fields) < 2 || len(fields) > 3 || fields[0] != "pbkdf2" {
		return nil, 0, 0, fmt.Errorf("unsupported method %q", method)
	}

	var newHash func() hash.Hash
	var size int
	switch fields[1] {
	case "sha256":
		newHash, size = sha256.New, sha256.Size
	case "sha512":
		newHash, size = sha512.New, sha512.Size
	default:
		return nil, 0, 0, fmt.Errorf("unsupported digest %q", fields[1])
	}

	iterations := legacyIterations
	if len(fields) == 3 {
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 1 {
			return nil, 0, 0, errMalformedCredential
		}
		iterations = n
	}
	return newHash, size, iterations, nil
}

func randomSalt(length int) (string, error) {
	max := big.NewInt(int64(len(saltChars)))
	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[n.Int64()])
	}
	return b.String(), nil
}
