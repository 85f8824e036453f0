package social

import (
	"context"
	"errors"
	"testing"
)

func TestProviderError_IsCredentialExpired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  ProviderError
		want bool
	}{
		{"facebook oauth code", ProviderError{Code: 190, Message: "Error validating access token"}, true},
		{"expired substring", ProviderError{StatusCode: 400, Message: "The token is expired"}, true},
		{"invalid substring", ProviderError{StatusCode: 401, Message: "Invalid refresh token"}, true},
		{"rate limit", ProviderError{StatusCode: 429, Message: "Application request limit reached"}, false},
		{"server error", ProviderError{StatusCode: 500, Message: "internal error"}, false},
	}

	for _, tt := range tests {
		if got := tt.err.IsCredentialExpired(); got != tt.want {
			t.Fatalf("%s: IsCredentialExpired() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limit", &ProviderError{StatusCode: 429, Message: "slow down"}, true},
		{"server error", &ProviderError{StatusCode: 503, Message: "unavailable"}, true},
		{"expired credential", &ProviderError{StatusCode: 401, Message: "token expired"}, false},
		{"plain 400", &ProviderError{StatusCode: 400, Message: "bad request"}, false},
		{"missing credential", ErrMissingCredential, false},
		{"context canceled", context.Canceled, false},
		{"transport failure", errors.New("connection reset by peer"), true},
	}

	for _, tt := range tests {
		if got := IsRetryable(tt.err); got != tt.want {
			t.Fatalf("%s: IsRetryable(%v) = %v, want %v", tt.name, tt.err, got, tt.want)
		}
	}
}
