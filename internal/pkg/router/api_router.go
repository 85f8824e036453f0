package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/controllers"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes, authenticated by user API key
	v1 := api.Group("/v1", middleware.APIKeyAuthMiddleware())

	v1.Get("/account", controllers.HandleGetAccount)
	v1.Post("/account/apikey", controllers.HandleRotateAPIKey)

	v1.Get("/integrations", controllers.HandleListIntegrations)
	v1.Get("/integrations/:id", controllers.HandleGetIntegration)
	v1.Delete("/integrations/:id", controllers.HandleDisconnectIntegration)
	v1.Post("/integrations/:id/refresh", controllers.HandleRefreshIntegration)

	v1.Get("/posts", controllers.HandleListPosts)
	v1.Post("/posts", controllers.HandleCreatePost)
	v1.Get("/posts/:id", controllers.HandleGetPost)
	v1.Delete("/posts/:id", controllers.HandleDeletePost)
	v1.Post("/posts/:id/publish", controllers.HandlePublishPostNow)

	v1.Post("/media", controllers.HandleUploadMedia)

	v1.Post("/captions", controllers.HandleGenerateCaption)
	v1.Post("/assistant/chat", controllers.HandleAssistantChat)
	v1.Get("/assistant/history", controllers.HandleAssistantHistory)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
