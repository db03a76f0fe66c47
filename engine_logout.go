package authcore

import (
	"context"
	"errors"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/store"
)

// Logout revokes the session behind one refresh token. It is
// idempotent: an unknown, expired, or already-revoked token is a
// successful no-op. Other sessions for the account are untouched.
func (e *Engine) Logout(ctx context.Context, refreshToken string) error {
	if err := e.ready(); err != nil {
		return err
	}

	accountID, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		// Nothing addressable to revoke.
		return nil
	}

	presentedHash := secrets.EncodeDigest(secrets.HashString(refreshToken))

	var removed bool
	_, err = e.accounts.Update(ctx, accountID, func(a *store.Account) error {
		removed = a.RemoveRefresh(presentedHash)
		if !removed {
			return errAbortUpdate
		}
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errAbortUpdate), errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return e.mapStoreErr(err)
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, accountID, nil, nil)
	return nil
}

// LogoutAll revokes every session for the account. Idempotent; an
// account with no active sessions is a successful no-op.
func (e *Engine) LogoutAll(ctx context.Context, accountID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if accountID == "" {
		return ErrValidation
	}

	_, err := e.accounts.Update(ctx, accountID, func(a *store.Account) error {
		if len(a.RefreshTokens) == 0 {
			return errAbortUpdate
		}
		a.ClearRefresh()
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, errAbortUpdate), errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return e.mapStoreErr(err)
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, accountID, nil, nil)
	return nil
}
