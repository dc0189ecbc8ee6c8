package server

import (
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"
)

// Options carries the pieces of the app that are built outside this package.
type Options struct {
	// Publisher receives purchase events; nil disables publishing.
	Publisher services.EventPublisher
	// AccessLog receives one line per request; nil disables the access log.
	AccessLog io.Writer
}

// New wires repositories, services and handlers into a Fiber app.
func New(cfg *config.Config, db *gorm.DB, opts Options) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	purchaseRepo := repositories.NewGORMPurchaseRepository(db)
	chatRepo := repositories.NewGORMChatRepository(db)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	productService := services.NewProductService(productRepo)
	purchaseService := services.NewPurchaseService(purchaseRepo, opts.Publisher)
	chatService := services.NewChatService(chatRepo)

	var auth handlers.Authenticator
	if cfg.AuthMode == config.AuthModeSession {
		auth = middleware.NewSessionAuth(cfg.SessionTTL, cfg.SessionCookieSecure)
	} else {
		auth = middleware.NewJWTAuth(authService)
	}

	app := fiber.New(fiber.Config{
		AppName:               "storefront",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			Format: "${time} | ${locals:requestid} | ${status} | ${latency} | ${method} ${path}\n",
			Output: opts.AccessLog,
		}))
	}
	app.Use(middleware.CORS(cfg))

	app.Get("/health", healthHandler(db))

	handlers.NewAuthHandler(authService, auth).RegisterRoutes(app)
	handlers.NewProductHandler(productService).RegisterRoutes(app, auth.Required())
	handlers.NewPurchaseHandler(purchaseService).RegisterRoutes(app, auth.Required())
	handlers.NewChatHandler(chatService).RegisterRoutes(app, auth.Required())

	return app
}

// errorHandler answers Fiber errors (404, 405, bad input) with their own
// status and hides everything else behind a generic 500.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"message": fe.Message,
		})
	}

	log.Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Interface("request_id", c.Locals(requestid.ConfigDefault.ContextKey)).
		Msg("Unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "An unexpected error occurred",
	})
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		body := fiber.Map{
			"status":   "healthy",
			"time":     time.Now().UTC().Format(time.RFC3339),
			"database": "connected",
		}
		if err := database.Ping(db); err != nil {
			log.Warn().Err(err).Msg("Health check failed to reach the database")
			status = fiber.StatusServiceUnavailable
			body["status"] = "unhealthy"
			body["database"] = "unreachable"
		}
		return c.Status(status).JSON(body)
	}
}
