package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/ethrane/authcore/internal/secrets"
	"github.com/ethrane/authcore/store"
)

// Login authenticates a verified account and returns a fresh token
// pair. The refresh token's digest joins the account's active set; the
// raw token exists only in the returned pair.
//
// An unverified account fails with ErrNotVerified regardless of
// password correctness. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, req LoginRequest) (TokenPair, error) {
	if err := e.ready(); err != nil {
		return TokenPair{}, err
	}
	if req.Email == "" || req.Password == "" {
		return TokenPair{}, ErrValidation
	}

	email := store.NormalizeEmail(req.Email)

	account, err := e.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, e.loginFailure(ctx, "", ErrInvalidCredentials)
		}
		return TokenPair{}, e.mapStoreErr(err)
	}

	if !account.Verified {
		return TokenPair{}, e.loginFailure(ctx, account.ID, ErrNotVerified)
	}

	match, err := e.passwordHash.Verify(req.Password, account.PasswordHash)
	if err != nil || !match {
		return TokenPair{}, e.loginFailure(ctx, account.ID, ErrInvalidCredentials)
	}

	var upgradedHash string
	if e.config.Password.UpgradeOnLogin {
		if needs, err := e.passwordHash.NeedsUpgrade(account.PasswordHash); err == nil && needs {
			if rehashed, err := e.passwordHash.Hash(req.Password); err == nil {
				upgradedHash = rehashed
			}
		}
	}

	pair, record, err := e.mintTokens(account.ID, req.DeviceInfo, deviceInfoFromContext(ctx))
	if err != nil {
		return TokenPair{}, err
	}

	_, err = e.accounts.Update(ctx, account.ID, func(a *store.Account) error {
		a.PruneExpiredRefresh(record.CreatedAt)
		a.AddRefresh(record)
		if upgradedHash != "" {
			a.PasswordHash = upgradedHash
		}
		return nil
	})
	if err != nil {
		return TokenPair{}, e.mapStoreErr(err)
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, nil, func() map[string]string {
		if record.DeviceInfo == "" {
			return nil
		}
		return map[string]string{"device": record.DeviceInfo}
	})
	return pair, nil
}

// mintTokens issues an access/refresh pair plus the refresh record to
// persist. The record stores only the token's digest.
func (e *Engine) mintTokens(accountID string, deviceInfo, fallbackDevice string) (TokenPair, store.RefreshTokenRecord, error) {
	accessToken, err := e.jwtManager.CreateAccess(accountID)
	if err != nil {
		return TokenPair{}, store.RefreshTokenRecord{}, err
	}
	refreshToken, expiresAt, err := e.jwtManager.CreateRefresh(accountID)
	if err != nil {
		return TokenPair{}, store.RefreshTokenRecord{}, err
	}

	if deviceInfo == "" {
		deviceInfo = fallbackDevice
	}

	record := store.RefreshTokenRecord{
		TokenHash:  secrets.EncodeDigest(secrets.HashString(refreshToken)),
		CreatedAt:  time.Now(),
		ExpiresAt:  expiresAt,
		DeviceInfo: deviceInfo,
	}

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	return pair, record, nil
}

func (e *Engine) loginFailure(ctx context.Context, accountID string, cause error) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, accountID, cause, nil)
	return cause
}
