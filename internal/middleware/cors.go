package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"storefront/internal/config"
)

// CORS builds the cross-origin policy. Session mode needs credentialed
// requests, which browsers only allow with explicit origins.
func CORS(cfg *config.Config) fiber.Handler {
	c := cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: strings.Join([]string{
			fiber.MethodGet,
			fiber.MethodPost,
			fiber.MethodPut,
			fiber.MethodDelete,
			fiber.MethodOptions,
		}, ","),
		AllowHeaders: "Content-Type,Authorization",
	}
	if cfg.AuthMode == config.AuthModeSession {
		c.AllowCredentials = true
		c.ExposeHeaders = fiber.HeaderSetCookie
	}
	return cors.New(c)
}
