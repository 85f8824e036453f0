package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/retry"
)

// RefreshService renews stored platform credentials and records the outcome.
// Clients are injected so tests can point them at fake token endpoints.
type RefreshService struct {
	integrations repository.IntegrationRepository
	logs         repository.ApiLogRepository
	clients      map[string]TokenClient
	retry        retry.Policy
}

// NewRefreshService wires a refresh service with the given token clients.
func NewRefreshService(integrations repository.IntegrationRepository, logs repository.ApiLogRepository, clients ...TokenClient) *RefreshService {
	byPlatform := make(map[string]TokenClient, len(clients))
	for _, c := range clients {
		byPlatform[c.Platform()] = c
	}
	policy := retry.Default()
	policy.ShouldRetry = IsRetryable
	return &RefreshService{
		integrations: integrations,
		logs:         logs,
		clients:      byPlatform,
		retry:        policy,
	}
}

// WithRetryPolicy overrides the retry policy, mainly for tests.
func (s *RefreshService) WithRetryPolicy(p retry.Policy) *RefreshService {
	if p.ShouldRetry == nil {
		p.ShouldRetry = IsRetryable
	}
	s.retry = p
	return s
}

// Refresh renews the credential of one integration owned by userID and
// persists the result. Terminal credential expiry is reported as
// *CredentialExpiredError and flagged in the integration metadata; transient
// provider failures come back as *RefreshError and leave the row unchanged.
func (s *RefreshService) Refresh(ctx context.Context, userID, integrationID uint) (*models.Integration, error) {
	integration, err := s.integrations.GetByID(userID, integrationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	client, ok := s.clients[integration.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, integration.Platform)
	}

	start := time.Now()
	var tokens *TokenSet
	err = s.retry.Do(func() error {
		var callErr error
		tokens, callErr = client.Refresh(ctx, integration)
		return callErr
	})
	duration := time.Since(start)

	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			// No outbound call was made; the record stays untouched.
			return nil, ErrMissingCredential
		}

		var pe *ProviderError
		if errors.As(err, &pe) {
			body := fmt.Sprintf(`{"error":{"code":%d,"message":%q}}`, pe.Code, pe.Message)
			s.logAttempt(integration, client, pe.StatusCode, false, pe.Message, body, duration)

			if pe.IsCredentialExpired() {
				now := time.Now().UTC()
				md := cloneMetadata(integration.Metadata)
				md[models.MetaExpired] = "true"
				md[models.MetaExpiredAt] = now.Format(time.RFC3339)
				md[models.MetaLastRefreshError] = pe.Message
				if updErr := s.integrations.UpdateMetadata(integration.ID, md); updErr != nil {
					log.Errorf("[Social] failed to flag integration %d as expired: %v", integration.ID, updErr)
				}
				return nil, &CredentialExpiredError{Platform: integration.Platform, Message: pe.Message}
			}
			return nil, &RefreshError{Platform: integration.Platform, Message: pe.Message}
		}

		// Transport-level failure after retries, no response to record.
		s.logAttempt(integration, client, 0, false, err.Error(), "", duration)
		return nil, &RefreshError{Platform: integration.Platform, Message: err.Error()}
	}

	expiresIn := tokens.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = int(client.DefaultTTL().Seconds())
	}
	expiresAt := time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)

	refreshToken := tokens.RefreshToken
	if refreshToken == "" {
		refreshToken = integration.RefreshToken
	}

	md := cloneMetadata(integration.Metadata)
	delete(md, models.MetaExpired)
	delete(md, models.MetaExpiredAt)
	delete(md, models.MetaLastRefreshError)
	md[models.MetaTokenRefreshedAt] = time.Now().UTC().Format(time.RFC3339)

	if err := s.integrations.UpdateTokens(integration.ID, tokens.AccessToken, refreshToken, &expiresAt, md); err != nil {
		return nil, fmt.Errorf("persisting refreshed tokens failed: %w", err)
	}

	s.logAttempt(integration, client, 200, true, "", fmt.Sprintf(`{"expires_in":%d}`, expiresIn), duration)

	integration.AccessToken = tokens.AccessToken
	integration.RefreshToken = refreshToken
	integration.ExpiresAt = &expiresAt
	integration.Metadata = md
	return integration, nil
}

// Deauthorize removes all facebook integrations linked to the given
// provider-issued account id. A verified deauthorization webhook with no
// matching integration is a silent success; the upstream contract gives us
// no way to report it.
func (s *RefreshService) Deauthorize(ctx context.Context, externalAccountID string) error {
	matches, err := s.integrations.GetByPlatformAndExternalID(models.PlatformFacebook, externalAccountID)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		log.Warnf("[Social] deauthorization for unknown facebook account %s, nothing to remove", externalAccountID)
		return nil
	}

	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	if err := s.integrations.DeleteByIDs(ids); err != nil {
		return err
	}
	log.Infof("[Social] removed %d facebook integration(s) after deauthorization of account %s", len(ids), externalAccountID)
	return nil
}

// logAttempt appends an audit row. The request summary and provider error
// body are recorded without any token material. Log failures are swallowed;
// they must never abort the refresh.
func (s *RefreshService) logAttempt(integration *models.Integration, client TokenClient, status int, success bool, errMsg, responseBody string, duration time.Duration) {
	if s.logs == nil {
		return
	}
	entry := &models.ApiLog{
		UserID:        integration.UserID,
		IntegrationID: &integration.ID,
		Platform:      integration.Platform,
		Endpoint:      client.Endpoint(),
		Method:        client.Method(),
		RequestBody:   fmt.Sprintf("token refresh for %s account %s, credentials redacted", integration.Platform, integration.ExternalAccountID),
		ResponseBody:  responseBody,
		StatusCode:    status,
		Success:       success,
		ErrorMessage:  errMsg,
		DurationMs:    duration.Milliseconds(),
	}
	if err := s.logs.Create(entry); err != nil {
		log.Warnf("[Social] api log write failed for integration %d: %v", integration.ID, err)
	}
}

func cloneMetadata(md models.MetadataMap) models.MetadataMap {
	out := make(models.MetadataMap, len(md)+2)
	for k, v := range md {
		out[k] = v
	}
	return out
}
