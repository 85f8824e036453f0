package controllers

import (
	"errors"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/ai"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

var (
	aiClient   *ai.Client
	aiClientMu sync.Mutex
)

func getAIClient() *ai.Client {
	aiClientMu.Lock()
	defer aiClientMu.Unlock()

	if aiClient == nil {
		aiClient = ai.NewClientFromEnv()
	}
	return aiClient
}

type captionRequest struct {
	Platform string `json:"platform"`
	Topic    string `json:"topic"`
}

// HandleGenerateCaption produces an AI caption suggestion for a post
func HandleGenerateCaption(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req captionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Topic) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "topic is required"})
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	switch platform {
	case models.PlatformFacebook, models.PlatformInstagram, models.PlatformLinkedIn:
	case "":
		platform = models.PlatformFacebook
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown platform: " + platform})
	}

	caption, err := getAIClient().GenerateCaption(c.Context(), platform, req.Topic)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Caption generation is not configured"})
		}
		log.Errorf("[AI] Caption generation failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Caption generation failed"})
	}

	return c.JSON(fiber.Map{
		"platform": platform,
		"caption":  caption,
	})
}
