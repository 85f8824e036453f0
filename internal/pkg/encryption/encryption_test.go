package encryption

import (
	"strings"
	"testing"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	k := []byte(strings.Repeat("k", 32))

	ct, err := encrypt("EAAG-some-access-token", k)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if ct == "EAAG-some-access-token" {
		t.Fatalf("ciphertext equals plaintext")
	}

	plain, err := decrypt(ct, k)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if plain != "EAAG-some-access-token" {
		t.Fatalf("round trip mismatch: %q", plain)
	}
}

func TestEncrypt_RejectsShortKey(t *testing.T) {
	if _, err := encrypt("x", []byte("short")); err != ErrInvalidKey {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestDecrypt_RejectsGarbage(t *testing.T) {
	k := []byte(strings.Repeat("k", 32))
	if _, err := decrypt("not-base64!!", k); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := decrypt("YWJj", k); err == nil {
		t.Fatalf("expected error for too-short ciphertext")
	}
}

func TestTokenHelpers_PassThroughWithoutKey(t *testing.T) {
	// No TOKEN_ENCRYPTION_KEY in the test environment.
	ct, err := EncryptToken("token")
	if err != nil || ct != "token" {
		t.Fatalf("expected pass-through, got %q err=%v", ct, err)
	}
	plain, err := DecryptToken("token")
	if err != nil || plain != "token" {
		t.Fatalf("expected pass-through, got %q err=%v", plain, err)
	}
}
