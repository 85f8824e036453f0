package signedrequest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"
)

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("app-secret")
	signed := Sign([]byte(`{"user_id":"123","algorithm":"HMAC-SHA256","issued_at":1700000000}`), secret)

	payload, err := Parse(signed, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.UserID != "123" {
		t.Fatalf("expected user_id 123, got %q", payload.UserID)
	}
	if payload.Algorithm != "HMAC-SHA256" {
		t.Fatalf("unexpected algorithm %q", payload.Algorithm)
	}
	if payload.IssuedAt != 1700000000 {
		t.Fatalf("unexpected issued_at %d", payload.IssuedAt)
	}
}

func TestParse_KnownPayload(t *testing.T) {
	t.Parallel()

	// base64url of {"user_id":"123"}
	encodedPayload := "eyJ1c2VyX2lkIjoiMTIzIn0"
	secret := []byte("known-secret")

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(encodedPayload))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	payload, err := Parse(sig+"."+encodedPayload, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.UserID != "123" {
		t.Fatalf("expected user_id 123, got %q", payload.UserID)
	}
}

func TestParse_FlippedSignatureByte(t *testing.T) {
	t.Parallel()

	secret := []byte("app-secret")
	signed := Sign([]byte(`{"user_id":"123"}`), secret)

	// Flip one byte of the decoded signature and re-encode it.
	dot := 0
	for i := range signed {
		if signed[i] == '.' {
			dot = i
			break
		}
	}
	sig, err := base64.RawURLEncoding.DecodeString(signed[:dot])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sig[0] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(sig) + signed[dot:]

	if _, err := Parse(tampered, secret); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	signed := Sign([]byte(`{"user_id":"42"}`), []byte("secret-one"))

	if _, err := Parse(signed, []byte("secret-two")); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestParse_MalformedStructure(t *testing.T) {
	t.Parallel()

	secret := []byte("app-secret")
	cases := []string{
		"",
		"justonepart",
		"one.two.three",
		"!!!.eyJ1c2VyX2lkIjoiMTIzIn0",
		"c2ln.!!!",
	}

	for _, in := range cases {
		if _, err := Parse(in, secret); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("Parse(%q): expected ErrMalformedPayload, got %v", in, err)
		}
	}
}

func TestParse_InvalidJSONPayload(t *testing.T) {
	t.Parallel()

	secret := []byte("app-secret")
	signed := Sign([]byte("not json at all"), secret)

	if _, err := Parse(signed, secret); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestParse_PaddedSegments(t *testing.T) {
	t.Parallel()

	secret := []byte("app-secret")
	signed := Sign([]byte(`{"user_id":"123"}`), secret)

	// Some SDKs re-pad base64url segments before forwarding them.
	if _, err := Parse(signed+"==", secret); err != nil {
		t.Fatalf("expected padded payload to verify, got %v", err)
	}
}

func TestParse_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := Parse("a.b", nil); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
