package authcore

import (
	"errors"
	"time"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/store"
)

// VerificationPolicy generates and normalizes single-use verification
// secrets. The two variants (link token, numeric OTP) share identical
// lifecycle semantics: only the digest is persisted, the raw value is
// returned exactly once for transport, and a record is consumed on the
// first successful match.
type VerificationPolicy interface {
	// Kind tags persisted records so a secret issued under one policy
	// never validates under another.
	Kind() string

	// TTL is the validity window for newly issued secrets.
	TTL() time.Duration

	// Issue returns the raw secret and its digest.
	Issue() (raw string, digest [32]byte, err error)

	// Normalize shape-checks a presented secret and returns its digest.
	Normalize(presented string) ([32]byte, error)
}

var errSecretShape = errors.New("malformed verification secret")

func newVerificationPolicy(cfg VerificationConfig) (VerificationPolicy, error) {
	switch cfg.Kind {
	case VerificationLink:
		return linkPolicy{ttl: cfg.LinkTTL}, nil
	case VerificationOTP:
		return otpPolicy{ttl: cfg.OTPTTL, digits: cfg.OTPDigits}, nil
	default:
		return nil, errors.New("unsupported verification kind")
	}
}

type linkPolicy struct {
	ttl time.Duration
}

func (linkPolicy) Kind() string { return store.KindLinkToken }

func (p linkPolicy) TTL() time.Duration { return p.ttl }

func (linkPolicy) Issue() (string, [32]byte, error) {
	raw, err := secrets.NewLinkToken()
	if err != nil {
		return "", [32]byte{}, err
	}
	return raw, secrets.HashString(raw), nil
}

func (linkPolicy) Normalize(presented string) ([32]byte, error) {
	// 32 random bytes base64url-encode to 43 characters.
	if len(presented) < 40 || len(presented) > 64 {
		return [32]byte{}, errSecretShape
	}
	return secrets.HashString(presented), nil
}

type otpPolicy struct {
	ttl    time.Duration
	digits int
}

func (otpPolicy) Kind() string { return store.KindOTP }

func (p otpPolicy) TTL() time.Duration { return p.ttl }

func (p otpPolicy) Issue() (string, [32]byte, error) {
	raw, err := secrets.NewOTP(p.digits)
	if err != nil {
		return "", [32]byte{}, err
	}
	return raw, secrets.HashString(raw), nil
}

func (p otpPolicy) Normalize(presented string) ([32]byte, error) {
	if len(presented) != p.digits || !secrets.IsNumeric(presented) {
		return [32]byte{}, errSecretShape
	}
	return secrets.HashString(presented), nil
}
