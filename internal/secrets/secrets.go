// Package secrets provides the one-way hashing and random-generation
// primitives shared by the verification and refresh-token flows.
//
// Digests produced here protect single-use secrets at rest. Passwords
// never pass through this package; they use the adaptive hasher in
// package password.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

const linkTokenSize = 32

// Hash returns the SHA-256 digest of b. Deterministic and one-way;
// validation must compare digests via Equal, never raw secrets.
func Hash(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// HashString hashes the UTF-8 bytes of s.
func HashString(s string) [32]byte {
	return sha256.Sum256([]byte(s))
}

// Equal reports whether two digests match, in constant time.
func Equal(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// EncodeDigest renders a digest for storage inside an account document.
func EncodeDigest(d [32]byte) string {
	return hex.EncodeToString(d[:])
}

// DecodeDigest parses a stored digest. The zero digest is rejected so a
// corrupted record can never match a real secret.
func DecodeDigest(s string) ([32]byte, error) {
	var d [32]byte

	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, err
	}
	if len(raw) != len(d) {
		return d, errors.New("invalid digest size")
	}

	copy(d[:], raw)
	if subtle.ConstantTimeCompare(d[:], make([]byte, len(d))) == 1 {
		return d, errors.New("zero digest")
	}
	return d, nil
}

// NewLinkToken returns a high-entropy (256-bit) single-use secret,
// base64url encoded without padding for use in a URL query parameter.
func NewLinkToken() (string, error) {
	var raw [linkTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewOTP returns a numeric one-time passcode of the given length, each
// digit drawn uniformly from crypto/rand.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// IsNumeric reports whether s consists solely of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
