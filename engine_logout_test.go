package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestLogoutRevokesSingleSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	first, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	second, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := engine.Logout(ctx, first.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 1 {
		t.Fatalf("expected 1 remaining session, got %d", info.ActiveSessions)
	}

	// The other session keeps working.
	if _, err := engine.Refresh(ctx, second.RefreshToken); err != nil {
		t.Fatalf("surviving session broken: %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
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

	for i := 0; i < 3; i++ {
		if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
			t.Fatalf("Logout %d failed: %v", i+1, err)
		}
	}

	// Garbage tokens are a no-op, not an error.
	if err := engine.Logout(ctx, "not-a-jwt"); err != nil {
		t.Fatalf("Logout of garbage token failed: %v", err)
	}

	// The revoked token cannot rotate; that is reuse of a dead token.
	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected after logout, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
	}

	if err := engine.LogoutAll(ctx, accountID); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 0 {
		t.Fatalf("expected 0 sessions, got %d", info.ActiveSessions)
	}

	// Repeat and unknown-account calls are no-ops.
	if err := engine.LogoutAll(ctx, accountID); err != nil {
		t.Fatalf("repeat LogoutAll failed: %v", err)
	}
	if err := engine.LogoutAll(ctx, "missing-account"); err != nil {
		t.Fatalf("LogoutAll of unknown account failed: %v", err)
	}
	if err := engine.LogoutAll(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty id, got %v", err)
	}
}
