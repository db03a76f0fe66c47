package authcore

import "errors"

var (
	// ErrValidation is returned when a request is missing required fields
	// or carries malformed input.
	ErrValidation = errors.New("invalid request")
	// ErrInvalidCredentials is returned for an unknown email and for a
	// wrong password alike, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateAccount is returned when the email is already registered.
	ErrDuplicateAccount = errors.New("email already in use")
	// ErrNotVerified is returned by Login when the account has not
	// completed email verification, regardless of password correctness.
	ErrNotVerified = errors.New("account not verified")
	// ErrInvalidOrExpiredSecret is returned when a verification secret
	// does not match or its record has expired.
	ErrInvalidOrExpiredSecret = errors.New("invalid or expired verification secret")
	// ErrVerificationAttempts is returned once the pending verification
	// record's attempt budget is exhausted.
	ErrVerificationAttempts = errors.New("verification attempts exceeded")
	// ErrInvalidRefreshToken is returned when a refresh token fails
	// signature or expiry checks, or references a missing account.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrReuseDetected is returned when a rotated-away refresh token is
	// presented again. Every session for the account has been revoked.
	ErrReuseDetected = errors.New("refresh token reuse detected")
	// ErrUnauthorized is returned for missing, invalid, or expired
	// access tokens at the request boundary.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport is returned when outbound mail delivery fails.
	// Details stay in the audit trail; the caller gets this generic error.
	ErrTransport = errors.New("message delivery failed")
	// ErrConflict is returned when an atomic account update keeps losing
	// the optimistic-concurrency race after bounded retries.
	ErrConflict = errors.New("concurrent account update conflict")
	// ErrStoreUnavailable is returned when the document store cannot be
	// reached.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrAccountNotFound is returned by lookups that miss.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEngineNotReady is returned when the engine is used before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)
