package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/social"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

// HandleListIntegrations returns all connected accounts for the user.
// Tokens never appear in the response.
func HandleListIntegrations(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	repo := repository.GetGlobalFactory().GetIntegrationRepository()
	integrations, err := repo.ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load integrations"})
	}

	return c.JSON(fiber.Map{"integrations": integrations})
}

// HandleGetIntegration returns one connected account by id
func HandleGetIntegration(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid integration id"})
	}

	repo := repository.GetGlobalFactory().GetIntegrationRepository()
	integration, err := repo.GetByID(userCtx.UserID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Integration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load integration"})
	}

	return c.JSON(integration)
}

// HandleDisconnectIntegration removes a connected account and its tokens
func HandleDisconnectIntegration(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid integration id"})
	}

	repo := repository.GetGlobalFactory().GetIntegrationRepository()
	if _, err := repo.GetByID(userCtx.UserID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Integration not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load integration"})
	}
	if err := repo.Delete(userCtx.UserID, uint(id)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to disconnect integration"})
	}

	return c.JSON(fiber.Map{"message": "disconnected"})
}

// HandleRefreshIntegration renews the stored access token for one connected
// account. Terminal credential failures come back as 401 so clients know a
// reconnect is required rather than a retry.
func HandleRefreshIntegration(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid integration id"})
	}

	integration, err := getRefreshService().Refresh(c.Context(), userCtx.UserID, uint(id))
	if err != nil {
		var expired *social.CredentialExpiredError
		var refreshErr *social.RefreshError
		switch {
		case errors.Is(err, social.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Integration not found"})
		case errors.Is(err, social.ErrMissingCredential):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Integration has no credential to refresh"})
		case errors.Is(err, social.ErrUnsupportedPlatform):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Platform does not support refresh"})
		case errors.As(err, &expired):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "credential_expired",
				"message": "Credentials are no longer valid, reconnect the account",
				"expired": true,
			})
		case errors.As(err, &refreshErr):
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refresh_failed", "message": "Token refresh failed"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Token refresh failed"})
		}
	}

	return c.JSON(fiber.Map{
		"id":           integration.ID,
		"platform":     integration.Platform,
		"expires_at":   formatTimePtr(integration.ExpiresAt),
		"refreshed_at": integration.Metadata[models.MetaTokenRefreshedAt],
	})
}
