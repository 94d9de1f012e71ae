package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrVerify is the only error verify ever returns. Expired, bad
// signature, wrong issuer, wrong audience, and kind mismatch all fold
// into it; the caller must not be able to tell them apart.
var ErrVerify = errors.New("token verification failed")

// tokenCodec signs and verifies claims as compact HS256 JWTs. It knows
// nothing about encryption; TokenService composes it with tokenCipher.
type tokenCodec struct {
	secret   []byte
	issuer   string
	audience string
}

func newTokenCodec(secret []byte, issuer, audience string) *tokenCodec {
	return &tokenCodec{secret: secret, issuer: issuer, audience: audience}
}

func (c *tokenCodec) sign(now time.Time, kind TokenKind, userID, username string, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		Username:  username,
		TokenKind: kind,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.secret)
}

func (c *tokenCodec) verify(tokenString string, expected TokenKind, now time.Time) (Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		// expiry is validated below with the injected clock
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, ErrVerify
	}

	validator := jwt.NewValidator(
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30*time.Second), // clock skew tolerance
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
	)
	if err := validator.Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, ErrVerify
	}

	if claims.TokenKind != expected {
		return Claims{}, ErrVerify
	}
	if claims.UserID == "" {
		return Claims{}, ErrVerify
	}
	// Username is required only inside access tokens.
	if expected == TokenKindAccess && claims.Username == "" {
		return Claims{}, ErrVerify
	}

	return claims, nil
}
