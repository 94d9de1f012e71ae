package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrDecrypt is the only error open ever returns. Format errors, bad
// hex, and tag failures are deliberately indistinguishable so a caller
// holding a tampered envelope learns nothing about which check failed.
var ErrDecrypt = errors.New("token decryption failed")

// envelopeNonceSize is 16 bytes rather than GCM's 12-byte default; the
// envelope format fixes it and the key is random, so the larger nonce
// is safe and kept for wire stability.
const envelopeNonceSize = 16

const envelopeSegments = 3

// tokenCipher seals opaque strings with AES-256-GCM. The envelope is
// three colon-joined hex segments: nonce:tag:ciphertext. This is the
// single wire format; every issue and redeem path uses it.
type tokenCipher struct {
	aead cipher.AEAD
}

func newTokenCipher(key []byte) (*tokenCipher, error) {
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCMWithNonceSize(block, envelopeNonceSize)
	if err != nil {
		return nil, err
	}
	return &tokenCipher{aead: aead}, nil
}

// seal encrypts plaintext under a fresh random nonce. Nonces are never
// reused for a given key; reuse would break GCM confidentiality.
func (c *tokenCipher) seal(plaintext string) (string, error) {
	nonce := make([]byte, envelopeNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)

	// Seal appends the tag to the ciphertext; the envelope keeps them
	// as separate segments.
	tagAt := len(sealed) - c.aead.Overhead()
	ciphertext, tag := sealed[:tagAt], sealed[tagAt:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// open decrypts an envelope produced by seal. The input is URL-unescaped
// first because cookie handling escapes the colon separators.
func (c *tokenCipher) open(envelope string) (string, error) {
	decoded, err := url.QueryUnescape(envelope)
	if err != nil {
		return "", ErrDecrypt
	}

	parts := strings.Split(decoded, ":")
	if len(parts) != envelopeSegments {
		return "", ErrDecrypt
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != envelopeNonceSize {
		return "", ErrDecrypt
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != c.aead.Overhead() {
		return "", ErrDecrypt
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrDecrypt
	}

	plaintext, err := c.aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
