package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestRefreshRotatesPair(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	pair, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("rotation must issue a new refresh token")
	}
	if rotated.AccessToken == "" {
		t.Fatal("expected new access token")
	}

	// Still exactly one session: the old record was replaced.
	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 1 {
		t.Fatalf("expected 1 active session after rotation, got %d", info.ActiveSessions)
	}

	// The rotated-in token is usable.
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); err != nil {
		t.Fatalf("Refresh of rotated token failed: %v", err)
	}
}

func TestRefreshReuseRevokesAllSessions(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	// Two independent sessions.
	first, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	second, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// Replaying the consumed token is theft evidence: everything dies.
	if _, err := engine.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected, got %v", err)
	}

	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 0 {
		t.Fatalf("expected 0 active sessions after reuse, got %d", info.ActiveSessions)
	}

	// The second session's token was caught in the revocation.
	if _, err := engine.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected for revoked sibling, got %v", err)
	}

	if engine.MetricsSnapshot().Counters[MetricRefreshReuseDetected] != 2 {
		t.Fatalf("expected 2 reuse detections, got %d", engine.MetricsSnapshot().Counters[MetricRefreshReuseDetected])
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, &captureSender{}, testConfig())
	ctx := context.Background()

	if _, err := engine.Refresh(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken, got %v", err)
	}
	if _, err := engine.Refresh(ctx, ""); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for empty token, got %v", err)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	signupVerified(t, engine, sender, "alice@example.com", "correct-horse")
	pair, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for access token, got %v", err)
	}
}

func TestRefreshCarriesDeviceInfo(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	pair, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse", DeviceInfo: "phone/2"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	account, err := engine.accounts.FindByID(ctx, accountID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if account.RefreshTokens[0].DeviceInfo != "phone/2" {
		t.Fatalf("device info lost on rotation: %q", account.RefreshTokens[0].DeviceInfo)
	}
}
