package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/faizanprofitpilot/ZapSocial-sub001/app/controllers"
	"github.com/faizanprofitpilot/ZapSocial-sub001/app/repository"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/cache"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/database"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/env"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/mediastore"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/publisher"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/router"
	"github.com/faizanprofitpilot/ZapSocial-sub001/internal/pkg/social"
)

func main() {
	app := NewApplication()

	// Stop the publisher cleanly on shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		if manager := publisher.GetManager(); manager != nil {
			manager.Stop()
		}
		_ = app.Shutdown()
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	setupMediaStore()
	setupPublisher()

	app := fiber.New(fiber.Config{
		BodyLimit: 33554432, // 32 MiB, posts carry media uploads
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// setupMediaStore wires S3 media storage when configured; uploads stay
// disabled otherwise.
func setupMediaStore() {
	cfg, err := mediastore.LoadConfig()
	if err != nil {
		fiberlog.Errorf("[App] Invalid media storage config: %v", err)
		return
	}
	if !cfg.IsEnabled() {
		fiberlog.Info("[App] Media storage disabled")
		return
	}
	store, err := mediastore.NewStore(context.Background(), cfg)
	if err != nil {
		fiberlog.Errorf("[App] Media storage unavailable: %v", err)
		return
	}
	controllers.SetMediaStore(store)
}

// setupPublisher starts the background queue that pushes due posts out to
// the connected platforms.
func setupPublisher() {
	factory := repository.GetGlobalFactory()
	processor := publisher.NewPostProcessor(
		factory.GetPostRepository(),
		factory.GetIntegrationRepository(),
		factory.GetApiLogRepository(),
		social.NewFacebookClientFromEnv(),
		social.NewLinkedInClientFromEnv(),
	)
	manager := publisher.SetupManager(factory.GetPostRepository(), processor)
	manager.Start()
}
