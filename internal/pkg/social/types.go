package social

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
)

var (
	// ErrNotFound means the integration does not exist or does not belong
	// to the calling user.
	ErrNotFound = errors.New("integration not found")
	// ErrMissingCredential means the integration holds no token usable for
	// the platform's refresh protocol.
	ErrMissingCredential = errors.New("integration has no usable credential")
	// ErrUnsupportedPlatform means no token client is registered for the
	// integration's platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// TokenSet is the result of a successful token endpoint call.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the relative validity in seconds, 0 when the provider
	// omitted it.
	ExpiresIn int
}

// ProviderError is a structured rejection from a platform's token endpoint.
type ProviderError struct {
	Platform   string
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s token endpoint rejected request: status=%d code=%d message=%s",
		e.Platform, e.StatusCode, e.Code, e.Message)
}

// IsCredentialExpired reports whether the rejection signals an expired or
// invalidated credential. Facebook uses error code 190 for OAuth token
// problems; the substring match covers the other platforms.
func (e *ProviderError) IsCredentialExpired() bool {
	if e.Code == 190 {
		return true
	}
	msg := strings.ToLower(e.Message)
	return strings.Contains(msg, "expired") || strings.Contains(msg, "invalid")
}

// CredentialExpiredError is the terminal refresh outcome: the user must run
// the full OAuth flow again. Mapped to HTTP 401 with expired=true.
type CredentialExpiredError struct {
	Platform string
	Message  string
}

func (e *CredentialExpiredError) Error() string {
	return fmt.Sprintf("%s credential expired, re-authorization required: %s", e.Platform, e.Message)
}

// RefreshError is any other provider-side refresh failure. Mapped to HTTP 500.
type RefreshError struct {
	Platform string
	Message  string
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s token refresh failed: %s", e.Platform, e.Message)
}

// IsRetryable classifies failures for the retry policy: rate limits, 5xx and
// transport errors retry; credential problems and other 4xx do not.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrMissingCredential) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if pe.IsCredentialExpired() {
			return false
		}
		return pe.StatusCode >= 500
	}
	// Transport-level failure (timeout, connection reset, DNS).
	return true
}

// TokenClient refreshes a stored credential against one platform's token
// endpoint. Clients are constructed explicitly and passed into the
// RefreshService; there is no shared module-level client state.
type TokenClient interface {
	Platform() string
	// Endpoint and Method describe the token endpoint for audit logging.
	Endpoint() string
	Method() string
	// DefaultTTL is the assumed token lifetime when the provider omits
	// expires_in.
	DefaultTTL() time.Duration
	Refresh(ctx context.Context, integration *models.Integration) (*TokenSet, error)
}
