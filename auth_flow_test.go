package authcore

import (
	"context"
	"errors"
	"testing"
)

// TestFullAuthenticationLifecycle walks one account through the whole
// journey: signup, failed pre-verification login, verification, login,
// rotation, reuse detection, recovery via fresh login, and logout.
func TestFullAuthenticationLifecycle(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	sender := &captureSender{}
	engine := newTestEngine(t, rdb, sender, testConfig())
	ctx := context.Background()

	const email = "pat@example.com"
	const pass = "Pw!23456"

	result, err := engine.Signup(ctx, SignupRequest{Name: "Pat", Email: email, Password: pass})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	if _, err := engine.Login(ctx, LoginRequest{Email: email, Password: pass}); !errors.Is(err, ErrNotVerified) {
		t.Fatalf("pre-verification login: expected ErrNotVerified, got %v", err)
	}

	otp := extractOTP(t, sender.last(t))
	if err := engine.VerifyEmail(ctx, email, otp); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	pair, err := engine.Login(ctx, LoginRequest{Email: email, Password: pass})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	rotated, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected, got %v", err)
	}

	// The revocation took the rotated token with it.
	if _, err := engine.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrReuseDetected) {
		t.Fatalf("expected ErrReuseDetected for revoked token, got %v", err)
	}

	// A fresh login recovers the account.
	pair, err = engine.Login(ctx, LoginRequest{Email: email, Password: pass})
	if err != nil {
		t.Fatalf("recovery Login failed: %v", err)
	}
	if err := engine.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	info, err := engine.Account(ctx, result.AccountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 0 {
		t.Fatalf("expected 0 sessions at end of lifecycle, got %d", info.ActiveSessions)
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricSignupSuccess] != 1 {
		t.Fatalf("signup counter = %d", snap.Counters[MetricSignupSuccess])
	}
	if snap.Counters[MetricVerificationSuccess] != 1 {
		t.Fatalf("verification counter = %d", snap.Counters[MetricVerificationSuccess])
	}
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login counter = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRefreshReuseDetected] != 2 {
		t.Fatalf("reuse counter = %d", snap.Counters[MetricRefreshReuseDetected])
	}
}

// TestConcurrentRotationSingleWinner races two rotations of the same
// token. Exactly one must win; the loser observes reuse and the final
// active set holds one record.
func TestConcurrentRotationSingleWinner(t *testing.T) {
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

	type outcome struct {
		pair TokenPair
		err  error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			p, err := engine.Refresh(ctx, pair.RefreshToken)
			results <- outcome{pair: p, err: err}
		}()
	}

	var wins, reuses int
	for i := 0; i < 2; i++ {
		res := <-results
		switch {
		case res.err == nil:
			wins++
		case errors.Is(res.err, ErrReuseDetected):
			reuses++
		default:
			t.Fatalf("unexpected rotation error: %v", res.err)
		}
	}

	if wins != 1 || reuses != 1 {
		t.Fatalf("expected 1 winner and 1 reuse, got wins=%d reuses=%d", wins, reuses)
	}

	// The reuse response revoked everything, the winner's pair included.
	info, err := engine.Account(ctx, accountID)
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if info.ActiveSessions != 0 {
		t.Fatalf("expected 0 active sessions after reuse revocation, got %d", info.ActiveSessions)
	}
}
