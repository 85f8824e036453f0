package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/controllers"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/constants"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/oauth"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	h.registerPublicRoutes(app)
}

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	app.Get(constants.PublicRoute, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Account lifecycle
	app.Post("/register", controllers.HandleRegister)
	app.Post("/login", controllers.HandleLogin)
	app.Post("/logout", controllers.HandleLogout)

	// Social account connect flow (session authenticated)
	connect := app.Group(constants.ConnectRoute)
	connect.Get("/:provider", controllers.HandleConnectProvider)
	connect.Get("/:provider/callback", controllers.HandleConnectCallback)
	connect.Get("/logout", controllers.HandleConnectLogout)

	// Platform webhooks (signature authenticated)
	webhooks := app.Group(constants.WebhooksRoute)
	webhooks.Post("/facebook/deauthorize", controllers.HandleFacebookDeauthorize)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
