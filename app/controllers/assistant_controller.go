package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/models"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/ai"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/usercontext"
)

// assistantHistoryLimit caps how many stored turns are replayed as context.
const assistantHistoryLimit = 20

const assistantSystemPrompt = "You are a marketing assistant for a social " +
	"media management tool. Help the user plan content, improve copy, and " +
	"pick posting strategies. Keep answers short and practical."

type assistantRequest struct {
	Message string `json:"message"`
}

// HandleAssistantChat answers a chat message with prior conversation context
func HandleAssistantChat(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req assistantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "message is required"})
	}

	chatRepo := repository.GetGlobalFactory().GetChatRepository()
	history, err := chatRepo.ListByUser(userCtx.UserID, assistantHistoryLimit)
	if err != nil {
		log.Warnf("[AI] Failed to load chat history for user %d: %v", userCtx.UserID, err)
	}

	messages := make([]ai.Message, 0, len(history)+2)
	messages = append(messages, ai.Message{Role: ai.RoleSystem, Content: assistantSystemPrompt})
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == models.ChatRoleAssistant {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, ai.Message{Role: ai.RoleUser, Content: req.Message})

	reply, err := getAIClient().Complete(c.Context(), messages)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": "Assistant is not configured"})
		}
		log.Errorf("[AI] Assistant chat failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Assistant request failed"})
	}

	// Persist both turns so the conversation survives across requests
	if err := chatRepo.Create(&models.ChatMessage{UserID: userCtx.UserID, Role: models.ChatRoleUser, Content: req.Message}); err != nil {
		log.Warnf("[AI] Failed to store user message for user %d: %v", userCtx.UserID, err)
	}
	if err := chatRepo.Create(&models.ChatMessage{UserID: userCtx.UserID, Role: models.ChatRoleAssistant, Content: reply}); err != nil {
		log.Warnf("[AI] Failed to store assistant reply for user %d: %v", userCtx.UserID, err)
	}

	return c.JSON(fiber.Map{"reply": reply})
}

// HandleAssistantHistory returns the stored conversation, oldest first
func HandleAssistantHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	chatRepo := repository.GetGlobalFactory().GetChatRepository()
	history, err := chatRepo.ListByUser(userCtx.UserID, assistantHistoryLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load history"})
	}

	return c.JSON(fiber.Map{"messages": history})
}
