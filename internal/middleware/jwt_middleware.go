package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"storefront/internal/models"
	"storefront/internal/services"
)

// JWTAuth authenticates requests with the bearer token issued at login.
type JWTAuth struct {
	authService *services.AuthService
}

// NewJWTAuth creates a new JWTAuth.
func NewJWTAuth(authService *services.AuthService) *JWTAuth {
	return &JWTAuth{authService: authService}
}

// Required rejects requests without a valid token.
func (a *JWTAuth) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return unauthorized(c, "Token is missing")
		}

		claims, err := a.authService.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, services.ErrTokenExpired) {
				return unauthorized(c, "Token has expired")
			}
			log.Debug().Err(err).Str("path", c.Path()).Msg("JWT validation failed")
			return unauthorized(c, "Invalid token")
		}

		setUser(c, claims.UserID, claims.Username)
		return c.Next()
	}
}

// Optional identifies the caller when a valid token is present and lets
// everyone else through anonymously.
func (a *JWTAuth) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c.Get(fiber.HeaderAuthorization)); tokenString != "" {
			if claims, err := a.authService.ValidateToken(tokenString); err == nil {
				setUser(c, claims.UserID, claims.Username)
			}
		}
		return c.Next()
	}
}

// Login issues a token for user; the handler returns it in the response body.
func (a *JWTAuth) Login(_ *fiber.Ctx, user *models.User) (fiber.Map, error) {
	token, err := a.authService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return fiber.Map{"token": token}, nil
}

// Logout is a no-op: tokens are stateless and expire on their own.
func (a *JWTAuth) Logout(_ *fiber.Ctx) error {
	return nil
}

// bearerToken accepts both "Bearer <token>" and a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
