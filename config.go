package authcore

import (
	"bytes"
	"errors"
	"time"
)

// Config is the explicit configuration passed to Build. The core never
// reads the environment or any other ambient source; cmd/authd shows
// how to derive a Config from the environment at the edge.
type Config struct {
	JWT          JWTConfig
	Password     PasswordConfig
	Verification VerificationConfig
	Account      AccountConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the session token issuer. Access and refresh
// tokens are signed with distinct keys so compromise of one does not
// forge the other.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	SigningMethod string // "hs256" (default) or "ed25519"

	AccessKey  []byte
	RefreshKey []byte

	// Ed25519 verify keys; ignored for hs256.
	AccessPublicKey  []byte
	RefreshPublicKey []byte

	Issuer string
	Leeway time.Duration

	// MaxFutureIAT bounds how far in the future a token's issued-at
	// claim may lie before parsing rejects it. Zero means 10 minutes.
	MaxFutureIAT time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory         uint32 // KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationKind selects the shape of the single-use verification
// secret. Both kinds share the same semantics; they differ only in
// entropy source, transport, and lifetime.
type VerificationKind int

const (
	// VerificationLink issues a high-entropy token carried in a URL
	// query parameter.
	VerificationLink VerificationKind = iota
	// VerificationOTP issues a short numeric passcode carried in the
	// message body.
	VerificationOTP
)

// VerificationConfig configures the verification-secret issuer.
type VerificationConfig struct {
	Kind VerificationKind

	// LinkTTL bounds link-token validity. Defaults to 30 minutes.
	LinkTTL time.Duration
	// OTPTTL bounds passcode validity. Defaults to 10 minutes.
	OTPTTL time.Duration

	OTPDigits int

	// MaxAttempts caps mismatched validations before the pending record
	// is invalidated. The OTP space is only 10^6; an unlimited budget
	// would be brute-forceable within the TTL.
	MaxAttempts int

	// VerifyBaseURL is the link target embedded in verification mail,
	// e.g. "https://app.example.com/verified-success". Required for
	// VerificationLink.
	VerifyBaseURL string
}

/*
====================================
ACCOUNT / STORE CONFIG
====================================
*/

// AccountConfig configures account persistence.
type AccountConfig struct {
	// KeyPrefix namespaces the document-store keys.
	KeyPrefix string

	// UnverifiedTTL bounds how long an account that never verifies
	// occupies its email address. Zero disables expiry.
	UnverifiedTTL time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig configures the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking flows when the sink
	// cannot keep up. Dropped counts are visible via AuditDropped.
	DropIfFull bool
}

// MetricsConfig enables the in-process flow counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns a Config with production-shaped defaults.
// Signing keys must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    30 * 24 * time.Hour,
			SigningMethod: "hs256",
			Issuer:        "authcore",
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Verification: VerificationConfig{
			Kind:        VerificationOTP,
			LinkTTL:     30 * time.Minute,
			OTPTTL:      10 * time.Minute,
			OTPDigits:   6,
			MaxAttempts: 5,
		},
		Account: AccountConfig{
			KeyPrefix:     "acct",
			UnverifiedTTL: 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 || cfg.JWT.RefreshTTL <= 0 {
		return errors.New("jwt TTLs must be positive")
	}
	if cfg.JWT.AccessTTL >= cfg.JWT.RefreshTTL {
		return errors.New("access TTL must be shorter than refresh TTL")
	}
	if len(cfg.JWT.AccessKey) == 0 || len(cfg.JWT.RefreshKey) == 0 {
		return errors.New("access and refresh signing keys are required")
	}
	if bytes.Equal(cfg.JWT.AccessKey, cfg.JWT.RefreshKey) {
		return errors.New("access and refresh signing keys must differ")
	}

	switch cfg.Verification.Kind {
	case VerificationLink:
		if cfg.Verification.LinkTTL <= 0 {
			return errors.New("verification link TTL must be positive")
		}
		if cfg.Verification.VerifyBaseURL == "" {
			return errors.New("verification link kind requires VerifyBaseURL")
		}
	case VerificationOTP:
		if cfg.Verification.OTPTTL <= 0 {
			return errors.New("verification otp TTL must be positive")
		}
		if cfg.Verification.OTPDigits < 6 || cfg.Verification.OTPDigits > 10 {
			return errors.New("verification otp digits must be 6..10")
		}
	default:
		return errors.New("unsupported verification kind")
	}
	if cfg.Verification.MaxAttempts <= 0 {
		return errors.New("verification max attempts must be positive")
	}

	if cfg.Account.UnverifiedTTL < 0 {
		return errors.New("unverified TTL must not be negative")
	}

	return nil
}
