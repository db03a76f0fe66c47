package authcore

import (
	"context"
	"time"
)

// AccountInfo is the public view of an account. Credentials, pending
// verification material, and token digests never leave the engine.
type AccountInfo struct {
	ID             string
	Name           string
	Email          string
	Verified       bool
	CreatedAt      time.Time
	ActiveSessions int
}

// Account returns the public profile for an account id, typically the
// id recovered from a verified access token.
func (e *Engine) Account(ctx context.Context, accountID string) (AccountInfo, error) {
	if err := e.ready(); err != nil {
		return AccountInfo{}, err
	}
	if accountID == "" {
		return AccountInfo{}, ErrValidation
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return AccountInfo{}, e.mapStoreErr(err)
	}

	now := time.Now()
	active := 0
	for _, r := range account.RefreshTokens {
		if !r.Expired(now) {
			active++
		}
	}

	return AccountInfo{
		ID:             account.ID,
		Name:           account.Name,
		Email:          account.Email,
		Verified:       account.Verified,
		CreatedAt:      account.CreatedAt,
		ActiveSessions: active,
	}, nil
}
