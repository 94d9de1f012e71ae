package auth

import "github.com/golang-jwt/jwt/v5"

type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims are the only supported JWT claims shape for this service.
// Access tokens carry the username so protected handlers can respond
// without a user lookup. Refresh tokens deliberately omit it: the
// username is mutable and must be re-fetched when the token is redeemed.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string    `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	TokenKind TokenKind `json:"token_type"`
}
