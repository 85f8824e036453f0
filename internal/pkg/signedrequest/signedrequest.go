package signedrequest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedPayload is returned when the signed request is not a
	// two-part dot separated string of valid base64url data.
	ErrMalformedPayload = errors.New("malformed signed request payload")
	// ErrSignatureMismatch is returned when the HMAC check fails. Callers
	// should treat this as a possible tampering attempt.
	ErrSignatureMismatch = errors.New("signed request signature mismatch")
)

// Payload is the decoded content of a Facebook signed_request. Only the
// fields the deauthorization flow needs are mapped; the rest of the JSON
// object is ignored.
type Payload struct {
	UserID    string `json:"user_id"`
	Algorithm string `json:"algorithm"`
	IssuedAt  int64  `json:"issued_at"`
}

// Parse verifies and decodes a signed request of the form
// "signature.payload" using the shared app secret. The signature is an
// HMAC-SHA256 over the raw base64url payload segment. Comparison is
// constant time so signature bytes cannot be probed through timing.
func Parse(signedRequest string, secret []byte) (*Payload, error) {
	if len(secret) == 0 {
		return nil, errors.New("signed request secret is empty")
	}

	parts := strings.Split(signedRequest, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected 2 dot separated parts, got %d", ErrMalformedPayload, len(parts))
	}

	sig, err := decodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid signature encoding", ErrMalformedPayload)
	}
	payloadSegment := strings.TrimRight(parts[1], "=")
	payloadRaw, err := decodeSegment(payloadSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payload encoding", ErrMalformedPayload)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payloadSegment))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return nil, ErrSignatureMismatch
	}

	var payload Payload
	if err := json.Unmarshal(payloadRaw, &payload); err != nil {
		return nil, fmt.Errorf("%w: payload is not valid JSON", ErrMalformedPayload)
	}

	return &payload, nil
}

// Sign produces a signed request for the given payload segment. It is the
// inverse of Parse and exists for tests and local tooling.
func Sign(payload []byte, secret []byte) string {
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)) + "." + encoded
}

// decodeSegment decodes base64url data with or without padding. Facebook
// sends unpadded segments but some SDKs re-pad them.
func decodeSegment(segment string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
}
