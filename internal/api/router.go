package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/creatoraide/configs"
	"github.com/maheshrc27/creatoraide/internal/api/handlers"
	"github.com/maheshrc27/creatoraide/internal/api/middleware"
	"github.com/maheshrc27/creatoraide/internal/queue"
	"github.com/maheshrc27/creatoraide/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Services struct {
	Auth      service.AuthService
	User      service.UserService
	ApiKeys   service.ApiKeyService
	Platforms service.PlatformService
	Scheduler service.SchedulerService
	Drafts    service.DraftService
	Media     service.MediaService
	// Queue is optional; without it due posts are published by the sweep only.
	Queue queue.Enqueuer
}

func NewApp(cfg config.Config, s Services) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: !cfg.IsProduction()}))
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(cfg, s.ApiKeys)

	auth := handlers.NewAuthHandler(cfg, s.Auth)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Post("/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(s.Platforms, cfg)
	app.Get("/auth/:platform", authMiddleware.AuthMiddleware(), platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	if cfg.RateLimitMax > 0 {
		api.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: time.Minute,
		}))
	}
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(s.User)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(s.ApiKeys)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	// social accounts api routes
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Delete("/accounts/:id", platform.DeleteSocialAccount)

	handlers.NewSchedulerHandler(s.Scheduler, s.Queue).Register(api.Group("/scheduler"))
	handlers.NewDraftHandler(s.Drafts).Register(api.Group("/drafts"))
	handlers.NewMediaHandler(s.Media).Register(api.Group("/media"))

	return app
}
