package controllers

import (
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/signedrequest"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/social"
)

type stubIntegrationRepo struct {
	rows    []models.Integration
	deleted []uint
}

func (s *stubIntegrationRepo) Upsert(i *models.Integration) error { return nil }

func (s *stubIntegrationRepo) GetByID(userID, id uint) (*models.Integration, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubIntegrationRepo) GetByUserAndPlatform(userID uint, platform string) (*models.Integration, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubIntegrationRepo) GetByPlatformAndExternalID(platform, externalAccountID string) ([]models.Integration, error) {
	var out []models.Integration
	for _, row := range s.rows {
		if row.Platform == platform && row.ExternalAccountID == externalAccountID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stubIntegrationRepo) ListByUser(userID uint) ([]models.Integration, error) { return nil, nil }

func (s *stubIntegrationRepo) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time, metadata models.MetadataMap) error {
	return nil
}

func (s *stubIntegrationRepo) UpdateMetadata(id uint, metadata models.MetadataMap) error { return nil }

func (s *stubIntegrationRepo) Delete(userID, id uint) error { return nil }

func (s *stubIntegrationRepo) DeleteByIDs(ids []uint) error {
	s.deleted = append(s.deleted, ids...)
	return nil
}

type stubLogRepo struct{}

func (s *stubLogRepo) Create(entry *models.ApiLog) error { return nil }

func newDeauthTestApp(t *testing.T, integrations *stubIntegrationRepo) *fiber.App {
	t.Helper()
	refreshService = social.NewRefreshService(integrations, &stubLogRepo{})
	t.Cleanup(func() { refreshService = nil })

	app := fiber.New()
	app.Post("/webhooks/facebook/deauthorize", HandleFacebookDeauthorize)
	return app
}

func postSignedRequest(app *fiber.App, body string) (int, string, error) {
	req := httptest.NewRequest("POST", "/webhooks/facebook/deauthorize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	payload, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(payload), nil
}

func TestFacebookDeauthorize_DeletesMatchingIntegration(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "webhook-secret")
	integrations := &stubIntegrationRepo{rows: []models.Integration{
		{ID: 9, UserID: 4, Platform: models.PlatformFacebook, ExternalAccountID: "fb-user-1"},
	}}
	app := newDeauthTestApp(t, integrations)

	signed := signedrequest.Sign([]byte(`{"user_id":"fb-user-1","algorithm":"HMAC-SHA256"}`), []byte("webhook-secret"))
	form := url.Values{"signed_request": {signed}}

	status, body, err := postSignedRequest(app, form.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, body)
	}
	if len(integrations.deleted) != 1 || integrations.deleted[0] != 9 {
		t.Fatalf("expected integration 9 deleted, got %v", integrations.deleted)
	}
}

func TestFacebookDeauthorize_UnknownAccountStillOK(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "webhook-secret")
	integrations := &stubIntegrationRepo{}
	app := newDeauthTestApp(t, integrations)

	signed := signedrequest.Sign([]byte(`{"user_id":"nobody"}`), []byte("webhook-secret"))
	form := url.Values{"signed_request": {signed}}

	status, _, err := postSignedRequest(app, form.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 for unmatched account, got %d", status)
	}
	if len(integrations.deleted) != 0 {
		t.Fatalf("expected no deletions, got %v", integrations.deleted)
	}
}

func TestFacebookDeauthorize_BadSignature(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "webhook-secret")
	app := newDeauthTestApp(t, &stubIntegrationRepo{})

	signed := signedrequest.Sign([]byte(`{"user_id":"fb-user-1"}`), []byte("wrong-secret"))
	form := url.Values{"signed_request": {signed}}

	status, _, err := postSignedRequest(app, form.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for forged signature, got %d", status)
	}
}

func TestFacebookDeauthorize_MissingParam(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "webhook-secret")
	app := newDeauthTestApp(t, &stubIntegrationRepo{})

	status, _, err := postSignedRequest(app, "")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for missing signed_request, got %d", status)
	}
}

func TestFacebookDeauthorize_MalformedPayload(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "webhook-secret")
	app := newDeauthTestApp(t, &stubIntegrationRepo{})

	form := url.Values{"signed_request": {"not-a-signed-request"}}
	status, _, err := postSignedRequest(app, form.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed payload, got %d", status)
	}
}

func TestFacebookDeauthorize_MissingSecret(t *testing.T) {
	t.Setenv("FACEBOOK_SECRET", "")
	app := newDeauthTestApp(t, &stubIntegrationRepo{})

	form := url.Values{"signed_request": {"sig.payload"}}
	status, _, err := postSignedRequest(app, form.Encode())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 when webhook secret missing, got %d", status)
	}
}
