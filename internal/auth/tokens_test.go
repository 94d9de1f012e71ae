package auth

import (
	"testing"
	"time"

	"github.com/komiwalnut/haroval/internal/config"
)

func testTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(config.AuthConfig{
		JWTSecret:       "signing-secret",
		JWTIssuer:       "haroval",
		JWTAudience:     "haroval-users",
		EncryptionKey:   make([]byte, 32),
		AccessTokenTTL:  7 * 24 * time.Hour,
		RefreshTokenTTL: 30 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	return s
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	s := testTokenService(t)
	now := time.Unix(1700000000, 0).UTC()

	envelope, err := s.IssueAccess(now, "42", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	identity, err := s.RedeemAccess(envelope, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if identity.UserID != "42" || identity.Username != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	s := testTokenService(t)
	now := time.Unix(1700000000, 0).UTC()

	envelope, err := s.IssueRefresh(now, "42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	identity, err := s.RedeemRefresh(envelope, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if identity.UserID != "42" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.Username != "" {
		t.Fatalf("refresh identity must not carry a username, got %q", identity.Username)
	}
}

func TestTokenService_KindConfusion(t *testing.T) {
	s := testTokenService(t)
	now := time.Unix(1700000000, 0).UTC()

	refresh, err := s.IssueRefresh(now, "u1")
	if err != nil {
		t.Fatalf("issue refresh: %v", err)
	}
	if _, err := s.RedeemAccess(refresh, now); err != ErrInvalidToken {
		t.Fatalf("refresh envelope redeemed as access: expected ErrInvalidToken, got %v", err)
	}

	access, err := s.IssueAccess(now, "u1", "alice")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := s.RedeemRefresh(access, now); err != ErrInvalidToken {
		t.Fatalf("access envelope redeemed as refresh: expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenService_AccessExpiry(t *testing.T) {
	s := testTokenService(t)
	now := time.Unix(1700000000, 0).UTC()

	envelope, err := s.IssueAccess(now, "42", "alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := s.RedeemAccess(envelope, now.Add(8*24*time.Hour)); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after simulated expiry, got %v", err)
	}
}

func TestTokenService_GarbageEnvelope(t *testing.T) {
	s := testTokenService(t)
	now := time.Now()

	for _, in := range []string{"", "garbage", "a:b:c", "deadbeef:deadbeef:deadbeef"} {
		if _, err := s.RedeemAccess(in, now); err != ErrInvalidToken {
			t.Fatalf("RedeemAccess(%q): expected ErrInvalidToken, got %v", in, err)
		}
	}
}

func TestNewTokenService_RequiresSecrets(t *testing.T) {
	if _, err := NewTokenService(config.AuthConfig{EncryptionKey: make([]byte, 32)}); err == nil {
		t.Fatalf("expected error for missing JWT secret")
	}
	if _, err := NewTokenService(config.AuthConfig{JWTSecret: "s"}); err == nil {
		t.Fatalf("expected error for missing encryption key")
	}
}
