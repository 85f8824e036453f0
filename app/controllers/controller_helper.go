package controllers

import (
	"sync"
	"time"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/social"
)

// Session keys shared between auth and oauth controllers
const (
	AUTH_KEY       = "authenticated"
	USER_ID        = "user_id"
	USER_NAME      = "username"
	USER_IS_ADMIN  = "isAdmin"
	FROM_PROTECTED = "from_protected"
)

var (
	refreshService   *social.RefreshService
	refreshServiceMu sync.Mutex
)

// getRefreshService lazily builds the token refresh service on top of the
// global repository factory and the env-configured platform clients. Tests
// assign refreshService directly to inject stubs.
func getRefreshService() *social.RefreshService {
	refreshServiceMu.Lock()
	defer refreshServiceMu.Unlock()

	if refreshService == nil {
		factory := repository.GetGlobalFactory()
		refreshService = social.NewRefreshService(
			factory.GetIntegrationRepository(),
			factory.GetApiLogRepository(),
			social.NewFacebookClientFromEnv(),
			social.NewInstagramClientFromEnv(),
			social.NewLinkedInClientFromEnv(),
		)
	}
	return refreshService
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
