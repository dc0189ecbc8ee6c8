package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/models"
)

// Authenticator is the auth mechanism the handlers run behind. Login may add
// fields to the login response (the JWT); session state travels in cookies.
type Authenticator interface {
	Required() fiber.Handler
	Optional() fiber.Handler
	Login(c *fiber.Ctx, user *models.User) (fiber.Map, error)
	Logout(c *fiber.Ctx) error
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func succeed(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// parseBody decodes and validates the request body into dst. It reports false
// after writing a 400 response.
func parseBody(c *fiber.Ctx, validate *validator.Validate, dst interface{}) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return false, fail(c, fiber.StatusBadRequest, "Missing required fields")
	}
	return true, nil
}
