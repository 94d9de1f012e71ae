package auth

import (
	"net/url"
	"strings"
	"testing"
)

func testCipher(t *testing.T) *tokenCipher {
	t.Helper()
	c, err := newTokenCipher(make([]byte, 32))
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	return c
}

func TestCipher_RoundTrip(t *testing.T) {
	c := testCipher(t)

	envelope, err := c.seal("hello.compact.token")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if got := strings.Count(envelope, ":"); got != 2 {
		t.Fatalf("expected 3 colon-joined segments, got %d separators", got)
	}

	plaintext, err := c.open(envelope)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if plaintext != "hello.compact.token" {
		t.Fatalf("unexpected plaintext: %q", plaintext)
	}
}

func TestCipher_FreshNoncePerSeal(t *testing.T) {
	c := testCipher(t)

	a, err := c.seal("same input")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := c.seal("same input")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if a == b {
		t.Fatalf("two seals of the same plaintext must differ")
	}
}

func TestCipher_OpenAcceptsURLEncodedInput(t *testing.T) {
	c := testCipher(t)

	envelope, err := c.seal("payload")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	plaintext, err := c.open(url.QueryEscape(envelope))
	if err != nil {
		t.Fatalf("open escaped: %v", err)
	}
	if plaintext != "payload" {
		t.Fatalf("unexpected plaintext: %q", plaintext)
	}
}

func TestCipher_TamperDetection(t *testing.T) {
	c := testCipher(t)

	envelope, err := c.seal("payload under test")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	parts := strings.Split(envelope, ":")

	// Flip one hex digit in each segment in turn.
	for i, name := range []string{"nonce", "tag", "ciphertext"} {
		tampered := make([]string, len(parts))
		copy(tampered, parts)
		seg := []byte(tampered[i])
		if seg[0] == '0' {
			seg[0] = '1'
		} else {
			seg[0] = '0'
		}
		tampered[i] = string(seg)

		if _, err := c.open(strings.Join(tampered, ":")); err != ErrDecrypt {
			t.Fatalf("tampered %s segment: expected ErrDecrypt, got %v", name, err)
		}
	}
}

func TestCipher_MalformedEnvelopes(t *testing.T) {
	c := testCipher(t)

	cases := []string{
		"",
		"onlyonesegment",
		"two:segments",
		"a:b:c:d",
		"zz:zz:zz",      // bad hex
		"%zz",           // bad url escape
		"00:00:00",      // wrong nonce/tag sizes
	}
	for _, in := range cases {
		if _, err := c.open(in); err != ErrDecrypt {
			t.Fatalf("open(%q): expected ErrDecrypt, got %v", in, err)
		}
	}
}

func TestCipher_WrongKeyFails(t *testing.T) {
	a := testCipher(t)
	other := make([]byte, 32)
	other[0] = 1
	b, err := newTokenCipher(other)
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}

	envelope, err := a.seal("secret")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if _, err := b.open(envelope); err != ErrDecrypt {
		t.Fatalf("expected ErrDecrypt under the wrong key, got %v", err)
	}
}

func TestNewTokenCipher_RejectsBadKeySizes(t *testing.T) {
	for _, n := range []int{0, 16, 24, 31, 33} {
		if _, err := newTokenCipher(make([]byte, n)); err == nil {
			t.Fatalf("expected error for %d-byte key", n)
		}
	}
}
