package controllers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/session"
)

// HandleConnectProvider starts the OAuth flow for connecting a social account
func HandleConnectProvider(c *fiber.Ctx) error {
	if connectSessionUserID(c) == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required before connecting accounts"})
	}
	return gothfiber.BeginAuthHandler(c)
}

// HandleConnectCallback completes the provider flow and stores the connection
// with its tokens for the logged-in user.
func HandleConnectCallback(c *fiber.Ctx) error {
	userID := connectSessionUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Login required before connecting accounts"})
	}

	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString(fmt.Sprintf("OAuth failed: %v", err))
	}

	var exp *time.Time
	if !u.ExpiresAt.IsZero() {
		t := u.ExpiresAt
		exp = &t
	}

	integration := &models.Integration{
		UserID:            userID,
		Platform:          u.Provider,
		ExternalAccountID: u.UserID,
		AccountName:       firstNonEmpty(u.Name, u.NickName, u.Email),
		AccessToken:       u.AccessToken,
		RefreshToken:      u.RefreshToken,
		ExpiresAt:         exp,
		Metadata:          models.MetadataMap{},
	}

	repo := repository.GetGlobalFactory().GetIntegrationRepository()
	if err := repo.Upsert(integration); err != nil {
		log.Errorf("[OAuth] Failed to store %s connection for user %d: %v", u.Provider, userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store connection"})
	}

	log.Infof("[OAuth] User %d connected %s account %s", userID, u.Provider, u.UserID)
	return c.JSON(fiber.Map{
		"platform":            integration.Platform,
		"external_account_id": integration.ExternalAccountID,
		"account_name":        integration.AccountName,
		"expires_at":          formatTimePtr(integration.ExpiresAt),
	})
}

// HandleConnectLogout clears any in-flight provider session state
func HandleConnectLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Warnf("[OAuth] Logout failed: %v", err)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// connectSessionUserID reads the app session directly; the usercontext
// middleware is skipped on connect routes to stay out of Goth's way.
func connectSessionUserID(c *fiber.Ctx) uint {
	store := session.GetSessionStore()
	if store == nil {
		return 0
	}
	sess, err := store.Get(c)
	if err != nil {
		return 0
	}
	if id, ok := sess.Get(USER_ID).(uint); ok {
		return id
	}
	return 0
}
