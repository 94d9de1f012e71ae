package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testCodec() *tokenCodec {
	return newTokenCodec([]byte("signing-secret"), "haroval", "haroval-users")
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testCodec()
	now := time.Unix(1700000000, 0).UTC()

	token, err := c.sign(now, TokenKindAccess, "user-1", "alice", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := c.verify(token, TokenKindAccess, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestCodec_RejectsExpired(t *testing.T) {
	c := testCodec()
	now := time.Unix(1700000000, 0).UTC()

	token, err := c.sign(now, TokenKindAccess, "user-1", "alice", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Valid signature, but 8 simulated days have passed.
	if _, err := c.verify(token, TokenKindAccess, now.Add(8*24*time.Hour)); err != ErrVerify {
		t.Fatalf("expected ErrVerify for expired token, got %v", err)
	}
}

func TestCodec_RejectsWrongKind(t *testing.T) {
	c := testCodec()
	now := time.Unix(1700000000, 0).UTC()

	refresh, err := c.sign(now, TokenKindRefresh, "user-1", "", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.verify(refresh, TokenKindAccess, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify for refresh-as-access, got %v", err)
	}

	access, err := c.sign(now, TokenKindAccess, "user-1", "alice", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.verify(access, TokenKindRefresh, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify for access-as-refresh, got %v", err)
	}
}

func TestCodec_RejectsWrongSecret(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	token, err := testCodec().sign(now, TokenKindAccess, "user-1", "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	other := newTokenCodec([]byte("different-secret"), "haroval", "haroval-users")
	if _, err := other.verify(token, TokenKindAccess, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify under wrong secret, got %v", err)
	}
}

func TestCodec_RejectsWrongIssuerAudience(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	foreign := newTokenCodec([]byte("signing-secret"), "someone-else", "their-users")
	token, err := foreign.sign(now, TokenKindAccess, "user-1", "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	// Same secret, different issuer/audience.
	if _, err := testCodec().verify(token, TokenKindAccess, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify for foreign issuer, got %v", err)
	}
}

func TestCodec_RejectsNonHS256(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "haroval",
			Audience:  jwt.ClaimStrings{"haroval-users"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:    "user-1",
		Username:  "alice",
		TokenKind: TokenKindAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("signing-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := testCodec().verify(token, TokenKindAccess, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify for HS384 token, got %v", err)
	}
}

func TestCodec_RejectsMissingUserID(t *testing.T) {
	c := testCodec()
	now := time.Unix(1700000000, 0).UTC()

	token, err := c.sign(now, TokenKindAccess, "", "alice", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := c.verify(token, TokenKindAccess, now); err != ErrVerify {
		t.Fatalf("expected ErrVerify for empty user_id, got %v", err)
	}
}
