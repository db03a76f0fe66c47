package authcore

import (
	"errors"

	"github.com/ethrane/authcore/jwt"
	"github.com/ethrane/authcore/mailer"
	"github.com/ethrane/authcore/password"
	"github.com/ethrane/authcore/store"
)

// Engine owns the credential and session-token lifecycle: signup,
// verification, login, token rotation, and revocation. Instances are
// configured through Build and immutable afterwards; all methods are
// safe for concurrent use.
//
// Correctness under concurrent requests for the same account rests on
// the store's atomic Update: every mutation of an account document is a
// single optimistic read-modify-write.
type Engine struct {
	config       Config
	accounts     store.Store
	mail         mailer.Sender
	policy       VerificationPolicy
	passwordHash *password.Hasher
	jwtManager   *jwt.Manager
	audit        *auditDispatcher
	metrics      *Metrics
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// VerifyAccessToken checks an access token's signature and expiry and
// returns the authenticated account id. This is the hook for the
// request-authorization boundary.
func (e *Engine) VerifyAccessToken(tokenStr string) (string, error) {
	if e == nil || e.jwtManager == nil {
		return "", ErrEngineNotReady
	}
	accountID, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return "", ErrUnauthorized
	}
	return accountID, nil
}

// MetricsSnapshot deep-copies the engine's flow counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were shed under
// back-pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) ready() error {
	if e == nil || e.accounts == nil || e.mail == nil || e.policy == nil ||
		e.passwordHash == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}
	return nil
}

// mapStoreErr translates store sentinels into the engine's error
// taxonomy. Unknown errors are treated as availability failures so no
// backend detail reaches callers.
func (e *Engine) mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return ErrStoreUnavailable
	}
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
