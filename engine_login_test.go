package authcore

import (
	"context"
	"errors"
	"testing"
)

func TestLoginSuccess(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	pair, err := engine.Login(ctx, LoginRequest{Email: "Alice@Example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("access and refresh tokens must differ")
	}

	got, err := engine.VerifyAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken failed: %v", err)
	}
	if got != accountID {
		t.Fatalf("token subject %q, want %q", got, accountID)
	}

	// The stored refresh record is a digest, not the raw token.
	account, err := engine.accounts.FindByID(ctx, accountID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if len(account.RefreshTokens) != 1 {
		t.Fatalf("expected 1 refresh record, got %d", len(account.RefreshTokens))
	}
	if account.RefreshTokens[0].TokenHash == pair.RefreshToken {
		t.Fatal("raw refresh token persisted")
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	if _, err := engine.Signup(ctx, SignupRequest{Name: "Alice", Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	// Correct and wrong password both surface the verification gate.
	if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"}); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified, got %v", err)
	}
	if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "totally-wrong"}); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("expected ErrNotVerified regardless of password, got %v", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := engine.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "correct-horse"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
	if _, err := engine.Login(ctx, LoginRequest{Email: "", Password: ""}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoginAccumulatesSessions(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	for i := 0; i < 3; i++ {
		if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse", DeviceInfo: "device"}); err != nil {
			t.Fatalf("Login %d failed: %v", i+1, err)
		}
	}

	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 3 {
		t.Fatalf("expected 3 active sessions, got %d", info.ActiveSessions)
	}
}

func TestLoginRecordsDeviceInfo(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())

	accountID := signupVerified(t, engine, sender, "alice@example.com", "correct-horse")

	ctx := WithDeviceInfo(context.Background(), "cli/1.0")
	if _, err := engine.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "correct-horse"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	account, err := engine.accounts.FindByID(ctx, accountID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if account.RefreshTokens[0].DeviceInfo != "cli/1.0" {
		t.Fatalf("device info %q, want cli/1.0", account.RefreshTokens[0].DeviceInfo)
	}
}
