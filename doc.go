// Package authcore implements the account and session-token lifecycle
// for email-and-password authentication: signup with mandatory email
// verification, login, rotating refresh tokens with reuse detection,
// and revocation.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (SignupResult, TokenPair, AccountInfo,
// MetricsSnapshot). Persistence lives in the store package behind the
// [store.Store] interface; outbound mail behind [mailer.Sender]; token
// signing in the jwt package; password hashing in the password package.
//
// # Secret handling
//
// Raw secrets are short-lived by construction. Verification tokens and
// passcodes exist only in the outbound message; refresh tokens only in
// the pair returned to the caller. The store sees SHA-256 digests for
// single-use secrets and Argon2id hashes for passwords, nothing else.
package authcore
