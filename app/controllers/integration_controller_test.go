package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/retry"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/social"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

// refreshRepo serves one integration row on top of the inert stub.
type refreshRepo struct {
	stubIntegrationRepo
	row *models.Integration
}

func (r *refreshRepo) GetByID(userID, id uint) (*models.Integration, error) {
	if r.row != nil && r.row.UserID == userID && r.row.ID == id {
		cp := *r.row
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubTokenClient struct {
	platform string
	refresh  func(ctx context.Context, integration *models.Integration) (*social.TokenSet, error)
}

func (s *stubTokenClient) Platform() string          { return s.platform }
func (s *stubTokenClient) Endpoint() string          { return "https://example.test/token" }
func (s *stubTokenClient) Method() string            { return http.MethodPost }
func (s *stubTokenClient) DefaultTTL() time.Duration { return 60 * 24 * time.Hour }
func (s *stubTokenClient) Refresh(ctx context.Context, integration *models.Integration) (*social.TokenSet, error) {
	return s.refresh(ctx, integration)
}

func newRefreshTestApp(t *testing.T, repo *refreshRepo, clients ...social.TokenClient) *fiber.App {
	t.Helper()
	refreshService = social.NewRefreshService(repo, &stubLogRepo{}, clients...).
		WithRetryPolicy(retry.Policy{MaxRetries: 1, InitialDelay: time.Millisecond})
	t.Cleanup(func() { refreshService = nil })

	app := fiber.New()
	app.Post("/api/v1/integrations/:id/refresh", func(c *fiber.Ctx) error {
		c.Locals("USER_CONTEXT", usercontext.UserContext{UserID: 1, Username: "tester", IsLoggedIn: true})
		return HandleRefreshIntegration(c)
	})
	return app
}

func postRefresh(app *fiber.App, path string) (int, map[string]interface{}, error) {
	req := httptest.NewRequest("POST", path, nil)
	resp, err := app.Test(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := map[string]interface{}{}
	_ = json.Unmarshal(raw, &body)
	return resp.StatusCode, body, nil
}

func TestRefreshIntegration_UnknownIDIsNotFound(t *testing.T) {
	app := newRefreshTestApp(t, &refreshRepo{})

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unknown integration, got %d (%v)", status, body)
	}
}

func TestRefreshIntegration_InvalidIDIsBadRequest(t *testing.T) {
	app := newRefreshTestApp(t, &refreshRepo{})

	status, _, err := postRefresh(app, "/api/v1/integrations/abc/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", status)
	}
}

func TestRefreshIntegration_MissingCredentialIsBadRequest(t *testing.T) {
	repo := &refreshRepo{row: &models.Integration{ID: 5, UserID: 1, Platform: models.PlatformLinkedIn}}
	client := &stubTokenClient{
		platform: models.PlatformLinkedIn,
		refresh: func(context.Context, *models.Integration) (*social.TokenSet, error) {
			return nil, social.ErrMissingCredential
		},
	}
	app := newRefreshTestApp(t, repo, client)

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing credential, got %d (%v)", status, body)
	}
}

func TestRefreshIntegration_UnsupportedPlatformIsBadRequest(t *testing.T) {
	repo := &refreshRepo{row: &models.Integration{ID: 5, UserID: 1, Platform: "myspace", AccessToken: "x"}}
	app := newRefreshTestApp(t, repo)

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported platform, got %d (%v)", status, body)
	}
}

func TestRefreshIntegration_ExpiredCredentialIsUnauthorized(t *testing.T) {
	repo := &refreshRepo{row: &models.Integration{ID: 5, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "stale"}}
	client := &stubTokenClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*social.TokenSet, error) {
			return nil, &social.ProviderError{
				Platform:   models.PlatformFacebook,
				StatusCode: 400,
				Code:       190,
				Message:    "Error validating access token: Session has expired",
			}
		},
	}
	app := newRefreshTestApp(t, repo, client)

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for expired credential, got %d (%v)", status, body)
	}
	if body["expired"] != true {
		t.Fatalf("expected expired:true marker in body, got %v", body)
	}
	if body["error"] != "credential_expired" {
		t.Fatalf("expected credential_expired error code, got %v", body["error"])
	}
}

func TestRefreshIntegration_ProviderFailureIsInternalError(t *testing.T) {
	repo := &refreshRepo{row: &models.Integration{ID: 5, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "ok"}}
	client := &stubTokenClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*social.TokenSet, error) {
			return nil, &social.ProviderError{
				Platform:   models.PlatformFacebook,
				StatusCode: 400,
				Message:    "unknown upstream failure",
			}
		},
	}
	app := newRefreshTestApp(t, repo, client)

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 for provider failure, got %d (%v)", status, body)
	}
	if body["error"] != "refresh_failed" {
		t.Fatalf("expected refresh_failed error code, got %v", body["error"])
	}
	if body["expired"] != nil {
		t.Fatalf("transient failure must not carry expired marker, got %v", body)
	}
}

func TestRefreshIntegration_SuccessReturnsNewExpiry(t *testing.T) {
	repo := &refreshRepo{row: &models.Integration{ID: 5, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "stale"}}
	client := &stubTokenClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*social.TokenSet, error) {
			return &social.TokenSet{AccessToken: "fresh", ExpiresIn: 3600}, nil
		},
	}
	app := newRefreshTestApp(t, repo, client)

	status, body, err := postRefresh(app, "/api/v1/integrations/5/refresh")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%v)", status, body)
	}
	if body["platform"] != models.PlatformFacebook {
		t.Fatalf("expected platform in body, got %v", body)
	}
	if body["expires_at"] == nil || body["expires_at"] == "" {
		t.Fatalf("expected new expiry in body, got %v", body)
	}
	if body["refreshed_at"] == nil || body["refreshed_at"] == "" {
		t.Fatalf("expected refreshed_at stamp in body, got %v", body)
	}
}
