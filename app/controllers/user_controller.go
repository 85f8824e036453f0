package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

// HandleGetAccount returns account information for the authenticated user
func HandleGetAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	integrations, err := repository.GetGlobalFactory().GetIntegrationRepository().ListByUser(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load integrations"})
	}

	connected := make([]fiber.Map, 0, len(integrations))
	for _, integration := range integrations {
		connected = append(connected, fiber.Map{
			"id":           integration.ID,
			"platform":     integration.Platform,
			"account_name": integration.AccountName,
			"expires_at":   formatTimePtr(integration.ExpiresAt),
			"expired":      integration.IsExpired(),
		})
	}

	return c.JSON(fiber.Map{
		"id":                 account.ID,
		"username":           account.Name,
		"email":              account.Email,
		"status":             account.Status,
		"is_admin":           account.Role == models.ROLE_ADMIN,
		"created_at":         account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":      formatTimePtr(account.LastLoginAt),
		"api_key_created_at": formatTimePtr(account.APIKeyCreatedAt),
		"integrations":       connected,
	})
}
