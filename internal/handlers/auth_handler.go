package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"storefront/internal/middleware"
	"storefront/internal/services"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	auth        Authenticator
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, auth Authenticator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		auth:        auth,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/register", h.HandleRegister)
	router.Post("/login", h.HandleLogin)
	router.Get("/check_auth", h.auth.Optional(), h.HandleCheckAuth)
	router.Post("/logout", h.auth.Required(), h.HandleLogout)
}

// CredentialsRequest is the body of /register and /login.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req CredentialsRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.RegisterUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUsernameTaken):
			return fail(c, fiber.StatusBadRequest, "Username already exists")
		case errors.Is(err, services.ErrPasswordTooLong):
			return fail(c, fiber.StatusBadRequest, "Password is too long")
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Registration error")
		return fail(c, fiber.StatusInternalServerError, "Registration failed")
	}

	log.Info().Uint("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	return succeed(c, fiber.StatusCreated, "User registered successfully")
}

// HandleLogin checks credentials and starts an authenticated session, or
// issues a token, depending on the configured Authenticator.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req CredentialsRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Info().Str("username", req.Username).Msg("Failed login attempt")
			return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
		}
		log.Error().Err(err).Str("username", req.Username).Msg("Login error")
		return fail(c, fiber.StatusInternalServerError, "Login failed")
	}

	extra, err := h.auth.Login(c, user)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Login error")
		return fail(c, fiber.StatusInternalServerError, "Login failed")
	}

	resp := fiber.Map{
		"success": true,
		"message": "Logged in successfully",
		"user":    user.Username,
	}
	for k, v := range extra {
		resp[k] = v
	}
	return c.JSON(resp)
}

// HandleCheckAuth reports whether the caller is logged in.
func (h *AuthHandler) HandleCheckAuth(c *fiber.Ctx) error {
	if _, ok := middleware.CurrentUserID(c); ok {
		return c.JSON(fiber.Map{
			"success":       true,
			"authenticated": true,
			"username":      middleware.CurrentUsername(c),
		})
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"authenticated": false,
	})
}

// HandleLogout ends the caller's session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c); err != nil {
		return err
	}
	return succeed(c, fiber.StatusOK, "Logged out successfully")
}
