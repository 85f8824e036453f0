package social

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/retry"
)

type fakeIntegrationRepo struct {
	rows map[uint]*models.Integration

	tokenUpdates    int
	metadataUpdates int
	lastAccess      string
	lastRefresh     string
	lastExpiresAt   *time.Time
	lastMetadata    models.MetadataMap
	deleted         []uint
}

func newFakeIntegrationRepo(rows ...*models.Integration) *fakeIntegrationRepo {
	m := make(map[uint]*models.Integration)
	for _, r := range rows {
		if r.Metadata == nil {
			r.Metadata = models.MetadataMap{}
		}
		m[r.ID] = r
	}
	return &fakeIntegrationRepo{rows: m}
}

func (f *fakeIntegrationRepo) Upsert(i *models.Integration) error {
	f.rows[i.ID] = i
	return nil
}

func (f *fakeIntegrationRepo) GetByID(userID, id uint) (*models.Integration, error) {
	row, ok := f.rows[id]
	if !ok || row.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *row
	return &cp, nil
}

func (f *fakeIntegrationRepo) GetByUserAndPlatform(userID uint, platform string) (*models.Integration, error) {
	for _, row := range f.rows {
		if row.UserID == userID && row.Platform == platform {
			cp := *row
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeIntegrationRepo) GetByPlatformAndExternalID(platform, externalAccountID string) ([]models.Integration, error) {
	var out []models.Integration
	for _, row := range f.rows {
		if row.Platform == platform && row.ExternalAccountID == externalAccountID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeIntegrationRepo) ListByUser(userID uint) ([]models.Integration, error) {
	var out []models.Integration
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeIntegrationRepo) UpdateTokens(id uint, accessToken, refreshToken string, expiresAt *time.Time, metadata models.MetadataMap) error {
	f.tokenUpdates++
	f.lastAccess = accessToken
	f.lastRefresh = refreshToken
	f.lastExpiresAt = expiresAt
	f.lastMetadata = metadata
	if row, ok := f.rows[id]; ok {
		row.AccessToken = accessToken
		row.RefreshToken = refreshToken
		row.ExpiresAt = expiresAt
		row.Metadata = metadata
	}
	return nil
}

func (f *fakeIntegrationRepo) UpdateMetadata(id uint, metadata models.MetadataMap) error {
	f.metadataUpdates++
	f.lastMetadata = metadata
	if row, ok := f.rows[id]; ok {
		row.Metadata = metadata
	}
	return nil
}

func (f *fakeIntegrationRepo) Delete(userID, id uint) error {
	delete(f.rows, id)
	return nil
}

func (f *fakeIntegrationRepo) DeleteByIDs(ids []uint) error {
	f.deleted = append(f.deleted, ids...)
	for _, id := range ids {
		delete(f.rows, id)
	}
	return nil
}

type fakeLogRepo struct {
	entries []models.ApiLog
}

func (f *fakeLogRepo) Create(entry *models.ApiLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type stubClient struct {
	platform string
	refresh  func(ctx context.Context, integration *models.Integration) (*TokenSet, error)
}

func (s *stubClient) Platform() string          { return s.platform }
func (s *stubClient) Endpoint() string          { return "https://example.test/token" }
func (s *stubClient) Method() string            { return http.MethodPost }
func (s *stubClient) DefaultTTL() time.Duration { return 60 * 24 * time.Hour }
func (s *stubClient) Refresh(ctx context.Context, integration *models.Integration) (*TokenSet, error) {
	return s.refresh(ctx, integration)
}

func fastPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 3, InitialDelay: time.Millisecond, ShouldRetry: IsRetryable}
}

func TestRefresh_NotFound(t *testing.T) {
	repo := newFakeIntegrationRepo()
	svc := NewRefreshService(repo, &fakeLogRepo{}).WithRetryPolicy(fastPolicy())

	if _, err := svc.Refresh(context.Background(), 1, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefresh_WrongOwnerIsNotFound(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{ID: 7, UserID: 2, Platform: models.PlatformFacebook})
	svc := NewRefreshService(repo, &fakeLogRepo{}).WithRetryPolicy(fastPolicy())

	if _, err := svc.Refresh(context.Background(), 1, 7); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign integration, got %v", err)
	}
}

func TestRefresh_MissingCredentialLeavesRecordUntouched(t *testing.T) {
	// LinkedIn-style refresh requires a refresh token.
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 5, UserID: 1, Platform: models.PlatformLinkedIn, AccessToken: "access-only",
	})
	logs := &fakeLogRepo{}
	svc := NewRefreshService(repo, logs, NewLinkedInClientFromEnv()).WithRetryPolicy(fastPolicy())

	_, err := svc.Refresh(context.Background(), 1, 5)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if repo.tokenUpdates != 0 || repo.metadataUpdates != 0 {
		t.Fatalf("integration record was modified: tokens=%d metadata=%d", repo.tokenUpdates, repo.metadataUpdates)
	}
	if len(logs.entries) != 0 {
		t.Fatalf("no outbound call was made, expected no audit rows, got %d", len(logs.entries))
	}
}

func TestRefresh_ExpiredSignalFlagsIntegration(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 3, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "stale",
	})
	logs := &fakeLogRepo{}
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			return nil, &ProviderError{
				Platform:   models.PlatformFacebook,
				StatusCode: 400,
				Code:       190,
				Message:    "Error validating access token: Session has expired",
			}
		},
	}
	svc := NewRefreshService(repo, logs, client).WithRetryPolicy(fastPolicy())

	_, err := svc.Refresh(context.Background(), 1, 3)
	var expired *CredentialExpiredError
	if !errors.As(err, &expired) {
		t.Fatalf("expected CredentialExpiredError, got %v", err)
	}
	if repo.lastMetadata[models.MetaExpired] != "true" {
		t.Fatalf("expected expired=true metadata, got %v", repo.lastMetadata)
	}
	if repo.lastMetadata[models.MetaExpiredAt] == "" {
		t.Fatalf("expected expired_at to be stamped")
	}
	if len(logs.entries) != 1 || logs.entries[0].Success {
		t.Fatalf("expected one failed audit row, got %+v", logs.entries)
	}

	// A later successful refresh clears the flag again.
	client.refresh = func(context.Context, *models.Integration) (*TokenSet, error) {
		return &TokenSet{AccessToken: "fresh", ExpiresIn: 3600}, nil
	}
	updated, err := svc.Refresh(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IsExpired() {
		t.Fatalf("expected expired flag cleared, metadata: %v", updated.Metadata)
	}
	if updated.Metadata[models.MetaTokenRefreshedAt] == "" {
		t.Fatalf("expected token_refreshed_at stamp")
	}
}

func TestRefresh_ExpiredSignalIsNotRetried(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 3, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "stale",
	})
	calls := 0
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			calls++
			return nil, &ProviderError{Platform: models.PlatformFacebook, StatusCode: 401, Message: "token expired"}
		},
	}
	svc := NewRefreshService(repo, &fakeLogRepo{}, client).WithRetryPolicy(fastPolicy())

	_, _ = svc.Refresh(context.Background(), 1, 3)
	if calls != 1 {
		t.Fatalf("expired credential must not be retried, got %d calls", calls)
	}
}

func TestRefresh_TransientFailureLeavesTokensUnchanged(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 3, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "current",
	})
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			return nil, &ProviderError{Platform: models.PlatformFacebook, StatusCode: 503, Message: "service unavailable"}
		},
	}
	svc := NewRefreshService(repo, &fakeLogRepo{}, client).WithRetryPolicy(fastPolicy())

	_, err := svc.Refresh(context.Background(), 1, 3)
	var refreshErr *RefreshError
	if !errors.As(err, &refreshErr) {
		t.Fatalf("expected RefreshError, got %v", err)
	}
	if repo.tokenUpdates != 0 || repo.metadataUpdates != 0 {
		t.Fatalf("transient failure must not modify the integration")
	}
}

func TestRefresh_RetriesServerErrors(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 3, UserID: 1, Platform: models.PlatformFacebook, AccessToken: "current",
	})
	calls := 0
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			calls++
			if calls < 3 {
				return nil, &ProviderError{Platform: models.PlatformFacebook, StatusCode: 500, Message: "boom"}
			}
			return &TokenSet{AccessToken: "fresh", ExpiresIn: 60}, nil
		},
	}
	svc := NewRefreshService(repo, &fakeLogRepo{}, client).WithRetryPolicy(fastPolicy())

	if _, err := svc.Refresh(context.Background(), 1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRefresh_SuccessDefaultsExpiryAndKeepsRefreshToken(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 4, UserID: 1, Platform: models.PlatformFacebook,
		AccessToken: "old", RefreshToken: "keep-me",
	})
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			// Provider omitted expires_in and refresh_token.
			return &TokenSet{AccessToken: "new-token"}, nil
		},
	}
	svc := NewRefreshService(repo, &fakeLogRepo{}, client).WithRetryPolicy(fastPolicy())

	before := time.Now().UTC()
	updated, err := svc.Refresh(context.Background(), 1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AccessToken != "new-token" {
		t.Fatalf("access token not updated: %q", updated.AccessToken)
	}
	if updated.RefreshToken != "keep-me" {
		t.Fatalf("prior refresh token must be retained, got %q", updated.RefreshToken)
	}
	if updated.ExpiresAt == nil {
		t.Fatalf("expected expiry to be set")
	}
	min := before.Add(client.DefaultTTL() - time.Minute)
	max := before.Add(client.DefaultTTL() + time.Minute)
	if updated.ExpiresAt.Before(min) || updated.ExpiresAt.After(max) {
		t.Fatalf("expiry %s not near default TTL window [%s, %s]", updated.ExpiresAt, min, max)
	}
}

func TestRefresh_UnsupportedPlatform(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{ID: 9, UserID: 1, Platform: "myspace", AccessToken: "x"})
	svc := NewRefreshService(repo, &fakeLogRepo{}).WithRetryPolicy(fastPolicy())

	if _, err := svc.Refresh(context.Background(), 1, 9); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestDeauthorize_DeletesMatchingIntegrations(t *testing.T) {
	repo := newFakeIntegrationRepo(
		&models.Integration{ID: 1, UserID: 1, Platform: models.PlatformFacebook, ExternalAccountID: "fb-123"},
		&models.Integration{ID: 2, UserID: 2, Platform: models.PlatformFacebook, ExternalAccountID: "fb-999"},
	)
	svc := NewRefreshService(repo, &fakeLogRepo{})

	if err := svc.Deauthorize(context.Background(), "fb-123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Fatalf("expected integration 1 deleted, got %v", repo.deleted)
	}
	if _, ok := repo.rows[2]; !ok {
		t.Fatalf("unrelated integration must survive")
	}
}

func TestDeauthorize_UnknownAccountIsSilentSuccess(t *testing.T) {
	repo := newFakeIntegrationRepo()
	svc := NewRefreshService(repo, &fakeLogRepo{})

	if err := svc.Deauthorize(context.Background(), "fb-unknown"); err != nil {
		t.Fatalf("expected silent success, got %v", err)
	}
}

func TestRefresh_AuditRowsCarryBodies(t *testing.T) {
	repo := newFakeIntegrationRepo(&models.Integration{
		ID: 3, UserID: 1, Platform: models.PlatformFacebook,
		AccessToken: "stale-secret", ExternalAccountID: "fb-123",
	})
	logs := &fakeLogRepo{}
	client := &stubClient{
		platform: models.PlatformFacebook,
		refresh: func(context.Context, *models.Integration) (*TokenSet, error) {
			return nil, &ProviderError{
				Platform:   models.PlatformFacebook,
				StatusCode: 400,
				Code:       190,
				Message:    "Session has expired",
			}
		},
	}
	svc := NewRefreshService(repo, logs, client).WithRetryPolicy(fastPolicy())

	_, _ = svc.Refresh(context.Background(), 1, 3)
	if len(logs.entries) != 1 {
		t.Fatalf("expected one audit row, got %d", len(logs.entries))
	}
	failed := logs.entries[0]
	if !strings.Contains(failed.ResponseBody, "Session has expired") {
		t.Fatalf("expected provider error body in audit row, got %q", failed.ResponseBody)
	}
	if failed.RequestBody == "" || strings.Contains(failed.RequestBody, "stale-secret") {
		t.Fatalf("request summary must be set and carry no token material, got %q", failed.RequestBody)
	}

	client.refresh = func(context.Context, *models.Integration) (*TokenSet, error) {
		return &TokenSet{AccessToken: "fresh-secret", ExpiresIn: 3600}, nil
	}
	if _, err := svc.Refresh(context.Background(), 1, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok := logs.entries[1]
	if !strings.Contains(ok.ResponseBody, "3600") {
		t.Fatalf("expected expiry summary in audit row, got %q", ok.ResponseBody)
	}
	if strings.Contains(ok.ResponseBody, "fresh-secret") || strings.Contains(ok.RequestBody, "fresh-secret") {
		t.Fatalf("audit row leaked token material: %+v", ok)
	}
}
