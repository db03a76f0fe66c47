package authcore

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/mailer"
	"github.com/ethrane/authcore/store"
)

// Signup registers a new account and dispatches its verification
// message. The account starts unverified and cannot log in until
// VerifyEmail succeeds.
//
// A repeated signup against an email that is still unverified is
// treated as a retry: the name and password are updated, a fresh
// verification secret replaces the pending one, and the original
// account id is returned with PendingReplaced set. A signup against a
// verified account fails with ErrDuplicateAccount.
//
// When the account is persisted but the verification message cannot be
// delivered, the result carries the account id alongside ErrTransport;
// the caller may surface the failure and let the user retry signup.
func (e *Engine) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	if err := e.ready(); err != nil {
		return SignupResult{}, err
	}
	if err := validateSignup(req); err != nil {
		return SignupResult{}, err
	}

	email := store.NormalizeEmail(req.Email)

	passwordHash, err := e.passwordHash.Hash(req.Password)
	if err != nil {
		return SignupResult{}, err
	}

	raw, digest, err := e.policy.Issue()
	if err != nil {
		return SignupResult{}, err
	}

	now := time.Now()
	account := &store.Account{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: passwordHash,
		Pending: &store.PendingVerification{
			SecretHash: secrets.EncodeDigest(digest),
			ExpiresAt:  now.Add(e.policy.TTL()),
			Kind:       e.policy.Kind(),
		},
		CreatedAt: now,
	}

	result := SignupResult{AccountID: account.ID}

	err = e.accounts.Create(ctx, account)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicateEmail):
		result, err = e.retrySignup(ctx, email, req.Name, passwordHash, digest)
		if err != nil {
			e.metricInc(MetricSignupFailure)
			if errors.Is(err, ErrDuplicateAccount) {
				e.metricInc(MetricSignupDuplicate)
			}
			e.emitAudit(ctx, auditEventSignup, false, "", err, nil)
			return SignupResult{}, err
		}
	default:
		e.metricInc(MetricSignupFailure)
		return SignupResult{}, e.mapStoreErr(err)
	}

	e.metricInc(MetricSignupSuccess)
	e.emitAudit(ctx, auditEventSignup, true, result.AccountID, nil, func() map[string]string {
		return map[string]string{"verification_kind": e.policy.Kind()}
	})

	if err := e.sendVerification(ctx, result.AccountID, email, req.Name, raw); err != nil {
		return result, err
	}
	return result, nil
}

// retrySignup handles a duplicate email. Verified accounts are
// conflicts; unverified ones absorb the new credentials and get a fresh
// pending record.
func (e *Engine) retrySignup(
	ctx context.Context,
	email, name, passwordHash string,
	digest [32]byte,
) (SignupResult, error) {
	existing, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The claiming account expired between Create and here.
			return SignupResult{}, ErrConflict
		}
		return SignupResult{}, e.mapStoreErr(err)
	}
	if existing.Verified {
		return SignupResult{}, ErrDuplicateAccount
	}

	updated, err := e.accounts.Update(ctx, existing.ID, func(a *store.Account) error {
		if a.Verified {
			return ErrDuplicateAccount
		}
		a.Name = name
		a.PasswordHash = passwordHash
		a.Pending = &store.PendingVerification{
			SecretHash: secrets.EncodeDigest(digest),
			ExpiresAt:  time.Now().Add(e.policy.TTL()),
			Kind:       e.policy.Kind(),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateAccount) {
			return SignupResult{}, ErrDuplicateAccount
		}
		return SignupResult{}, e.mapStoreErr(err)
	}

	return SignupResult{AccountID: updated.ID, PendingReplaced: true}, nil
}

// sendVerification delivers the raw secret over the configured
// transport. This is the only place the raw value leaves the engine.
func (e *Engine) sendVerification(ctx context.Context, accountID, email, name, raw string) error {
	var msg mailer.Message
	if e.config.Verification.Kind == VerificationLink {
		msg = mailer.VerificationLinkMessage(email, name, e.config.Verification.VerifyBaseURL, raw)
	} else {
		msg = mailer.VerificationOTPMessage(email, name, raw)
	}

	if err := e.mail.Send(ctx, msg); err != nil {
		e.metricInc(MetricMailFailure)
		e.emitAudit(ctx, auditEventMailFailure, false, accountID, err, nil)
		return ErrTransport
	}

	e.metricInc(MetricMailSent)
	return nil
}

func validateSignup(req SignupRequest) error {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return ErrValidation
	}
	if len(req.Password) < 8 {
		return ErrValidation
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrValidation
	}
	return nil
}
