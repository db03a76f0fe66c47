package store

import (
	"strings"
	"time"
)

// Verification secret kinds persisted inside a pending record.
const (
	KindLinkToken = "link"
	KindOTP       = "otp"
)

// RefreshTokenRecord is one active refresh token for an account. Only
// the SHA-256 digest of the token is stored.
type RefreshTokenRecord struct {
	TokenHash  string    `json:"token_hash"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	DeviceInfo string    `json:"device_info,omitempty"`
}

// Expired reports whether the record's expiry has passed at now.
func (r RefreshTokenRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}

// PendingVerification is the single outstanding verification challenge
// for an account. The raw secret is never persisted; SecretHash holds
// its hex-encoded SHA-256 digest.
type PendingVerification struct {
	SecretHash string    `json:"secret_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
	Kind       string    `json:"kind"`
	Attempts   int       `json:"attempts"`
}

// Expired reports whether the challenge's expiry has passed at now.
func (p PendingVerification) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// Account is the persisted aggregate: identity, credentials,
// verification state, and the active refresh-token set. It is the unit
// of persistence; every mutation is written back as one document.
type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	Verified     bool   `json:"verified"`

	Pending       *PendingVerification `json:"pending_verification,omitempty"`
	RefreshTokens []RefreshTokenRecord `json:"refresh_tokens,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Version is maintained by the store on every successful write and
	// backs its optimistic-concurrency check.
	Version uint64 `json:"version"`
}

// NormalizeEmail lower-cases and trims an email address. Uniqueness and
// all lookups operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindRefresh returns the active record matching the given token-hash,
// or nil. Expired records never match.
func (a *Account) FindRefresh(tokenHash string, now time.Time) *RefreshTokenRecord {
	for i := range a.RefreshTokens {
		r := &a.RefreshTokens[i]
		if r.TokenHash == tokenHash && !r.Expired(now) {
			return r
		}
	}
	return nil
}

// RemoveRefresh deletes the record with the given token-hash and
// reports whether one was present.
func (a *Account) RemoveRefresh(tokenHash string) bool {
	for i := range a.RefreshTokens {
		if a.RefreshTokens[i].TokenHash == tokenHash {
			a.RefreshTokens = append(a.RefreshTokens[:i], a.RefreshTokens[i+1:]...)
			return true
		}
	}
	return false
}

// AddRefresh appends a record, replacing any existing record with the
// same token-hash so hashes stay unique within the active set.
func (a *Account) AddRefresh(record RefreshTokenRecord) {
	a.RemoveRefresh(record.TokenHash)
	a.RefreshTokens = append(a.RefreshTokens, record)
}

// PruneExpiredRefresh drops expired records. Invoked opportunistically
// before login and rotation writes; there is no background sweep.
func (a *Account) PruneExpiredRefresh(now time.Time) {
	kept := a.RefreshTokens[:0]
	for _, r := range a.RefreshTokens {
		if !r.Expired(now) {
			kept = append(kept, r)
		}
	}
	a.RefreshTokens = kept
	if len(a.RefreshTokens) == 0 {
		a.RefreshTokens = nil
	}
}

// ClearRefresh drops every refresh-token record. Used for the
// revoke-all response to refresh-token reuse.
func (a *Account) ClearRefresh() {
	a.RefreshTokens = nil
}
