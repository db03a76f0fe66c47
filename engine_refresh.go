package authcore

import (
	"context"
	"errors"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/store"
)

// Refresh rotates a refresh token: the presented token is consumed and
// a brand-new pair is returned. Each refresh token is therefore good
// for exactly one rotation.
//
// A token that verifies cryptographically but is absent from the
// account's active set has already been rotated away. That is treated
// as theft evidence: every session for the account is revoked and
// ErrReuseDetected is returned.
//
// Rotation is atomic. When two requests race with the same token, one
// wins the pair and the other observes reuse.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}

	accountID, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, e.refreshFailure(ctx, "", ErrInvalidRefreshToken)
	}

	presentedHash := secrets.EncodeDigest(secrets.HashString(refreshToken))

	pair, record, err := e.mintTokens(accountID, "", deviceInfoFromContext(ctx))
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, err
	}

	var reuse bool
	_, err = e.accounts.Update(ctx, accountID, func(a *store.Account) error {
		reuse = false
		a.PruneExpiredRefresh(record.CreatedAt)

		current := a.FindRefresh(presentedHash, record.CreatedAt)
		if current == nil {
			reuse = true
			a.ClearRefresh()
			return nil
		}

		// Carry the session's device descriptor across the rotation.
		if record.DeviceInfo == "" {
			record.DeviceInfo = current.DeviceInfo
		}
		a.RemoveRefresh(presentedHash)
		a.AddRefresh(record)
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, e.refreshFailure(ctx, accountID, ErrInvalidRefreshToken)
		}
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, e.mapStoreErr(err)
	}

	if reuse {
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, auditEventRefreshReuse, false, accountID, ErrReuseDetected, nil)
		return TokenPair{}, ErrReuseDetected
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, accountID, nil, nil)
	return pair, nil
}

func (e *Engine) refreshFailure(ctx context.Context, accountID string, cause error) error {
	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, cause, nil)
	return cause
}
