package middleware

import "github.com/gofiber/fiber/v2"

const (
	localUserID   = "user_id"
	localUsername = "username"
)

// CurrentUserID returns the authenticated caller's id.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok && id != 0
}

// CurrentUsername returns the authenticated caller's username, or "".
func CurrentUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(localUsername).(string)
	return name
}

func setUser(c *fiber.Ctx, id uint, username string) {
	c.Locals(localUserID, id)
	c.Locals(localUsername, username)
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}
