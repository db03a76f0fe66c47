package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/store"
)

// errAbortUpdate makes the update closure abandon the write while the
// real outcome travels out of band. Mismatched attempts must NOT use
// it: their counter increment has to commit.
var errAbortUpdate = errors.New("abort account update")

// VerifyEmail validates a presented verification secret and, on the
// first match, marks the account verified and consumes the pending
// record. Every failure mode maps to ErrInvalidOrExpiredSecret except
// an exhausted attempt budget, which maps to ErrVerificationAttempts.
//
// A mismatch still costs one attempt: the counter is persisted even
// though the verification fails, so the budget cannot be reset by
// re-reading the account.
func (e *Engine) VerifyEmail(ctx context.Context, email, secret string) error {
	if err := e.ready(); err != nil {
		return err
	}

	email = store.NormalizeEmail(email)
	if email == "" {
		return ErrValidation
	}

	digest, err := e.policy.Normalize(secret)
	if err != nil {
		e.metricInc(MetricVerificationFailure)
		return ErrInvalidOrExpiredSecret
	}

	account, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			e.metricInc(MetricVerificationFailure)
			return ErrInvalidOrExpiredSecret
		}
		return e.mapStoreErr(err)
	}

	maxAttempts := e.config.Verification.MaxAttempts
	now := time.Now()

	var outcome error
	_, err = e.accounts.Update(ctx, account.ID, func(a *store.Account) error {
		outcome = nil

		pending := a.Pending
		if a.Verified || pending == nil || pending.Kind != e.policy.Kind() {
			outcome = ErrInvalidOrExpiredSecret
			return errAbortUpdate
		}
		if pending.Expired(now) {
			outcome = ErrInvalidOrExpiredSecret
			return errAbortUpdate
		}
		if pending.Attempts >= maxAttempts {
			outcome = ErrVerificationAttempts
			return errAbortUpdate
		}

		stored, decodeErr := secrets.DecodeDigest(pending.SecretHash)
		if decodeErr != nil {
			outcome = ErrInvalidOrExpiredSecret
			return errAbortUpdate
		}

		if !secrets.Equal(stored, digest) {
			pending.Attempts++
			if pending.Attempts >= maxAttempts {
				a.Pending = nil
				outcome = ErrVerificationAttempts
			} else {
				outcome = ErrInvalidOrExpiredSecret
			}
			return nil
		}

		a.Verified = true
		a.Pending = nil
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errAbortUpdate):
	case errors.Is(err, store.ErrNotFound):
		e.metricInc(MetricVerificationFailure)
		return ErrInvalidOrExpiredSecret
	default:
		return e.mapStoreErr(err)
	}

	if outcome != nil {
		if errors.Is(outcome, ErrVerificationAttempts) {
			e.metricInc(MetricVerificationAttemptsExceeded)
		} else {
			e.metricInc(MetricVerificationFailure)
		}
		e.emitAudit(ctx, auditEventVerificationConfirm, false, account.ID, outcome, nil)
		return outcome
	}

	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, account.ID, nil, nil)
	return nil
}
