package auth

import (
	"errors"
	"time"

	"github.com/komiwalnut/haroval/internal/config"
)

// ErrInvalidToken is the uniform redeem failure. Decryption failure and
// verification failure collapse into it; callers treat "no valid
// identity" the same regardless of cause.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what a redeemed token proves about the caller.
// Refresh tokens carry no username, so Username is empty for them.
type Identity struct {
	UserID   string
	Username string
}

// TokenPair is one freshly issued access + refresh envelope pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService issues and redeems encrypted signed tokens: sign with
// HMAC-SHA256, then encrypt the whole compact token with AES-256-GCM.
// The plain signed form never leaves this package.
type TokenService struct {
	codec  *tokenCodec
	cipher *tokenCipher

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	c, err := newTokenCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return &TokenService{
		codec:      newTokenCodec([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience),
		cipher:     c,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccess mints an encrypted access envelope valid for the access TTL.
func (s *TokenService) IssueAccess(now time.Time, userID, username string) (string, error) {
	signed, err := s.codec.sign(now, TokenKindAccess, userID, username, s.accessTTL)
	if err != nil {
		return "", err
	}
	return s.cipher.seal(signed)
}

// IssueRefresh mints an encrypted refresh envelope valid for the refresh TTL.
func (s *TokenService) IssueRefresh(now time.Time, userID string) (string, error) {
	signed, err := s.codec.sign(now, TokenKindRefresh, userID, "", s.refreshTTL)
	if err != nil {
		return "", err
	}
	return s.cipher.seal(signed)
}

// IssuePair mints a matched access + refresh envelope pair.
func (s *TokenService) IssuePair(now time.Time, userID, username string) (TokenPair, error) {
	access, err := s.IssueAccess(now, userID, username)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefresh(now, userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RedeemAccess decrypts and verifies an access envelope.
func (s *TokenService) RedeemAccess(envelope string, now time.Time) (Identity, error) {
	claims, err := s.redeem(envelope, TokenKindAccess, now)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// RedeemRefresh decrypts and verifies a refresh envelope. The returned
// identity carries only the user id.
func (s *TokenService) RedeemRefresh(envelope string, now time.Time) (Identity, error) {
	claims, err := s.redeem(envelope, TokenKindRefresh, now)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: claims.UserID}, nil
}

func (s *TokenService) redeem(envelope string, kind TokenKind, now time.Time) (Claims, error) {
	signed, err := s.cipher.open(envelope)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	claims, err := s.codec.verify(signed, kind, now)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
