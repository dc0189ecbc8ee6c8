package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"storefront/internal/middleware"
	"storefront/internal/services"
)

// ChatHandler handles HTTP requests for the chat log.
type ChatHandler struct {
	service  *services.ChatService
	validate *validator.Validate
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the chat routes behind requireAuth.
func (h *ChatHandler) RegisterRoutes(router fiber.Router, requireAuth fiber.Handler) {
	router.Get("/chat_history", requireAuth, h.HandleHistory)
	router.Post("/save_chat", requireAuth, h.HandleSave)
}

// SaveChatRequest is the body of /save_chat.
type SaveChatRequest struct {
	Message string `json:"message" validate:"required"`
	Sender  string `json:"sender" validate:"required"`
}

// HandleHistory returns the caller's chat log, oldest first.
func (h *ChatHandler) HandleHistory(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	history, err := h.service.History(c.UserContext(), userID)
	if err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("Chat history error")
		return fail(c, fiber.StatusInternalServerError, "Failed to retrieve chat history")
	}
	return c.JSON(history)
}

// HandleSave appends a message to the caller's chat log.
func (h *ChatHandler) HandleSave(c *fiber.Ctx) error {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		return fail(c, fiber.StatusUnauthorized, "Authentication required")
	}

	var req SaveChatRequest
	if ok, err := parseBody(c, h.validate, &req); !ok {
		return err
	}

	if _, err := h.service.SaveMessage(c.UserContext(), userID, req.Message, req.Sender); err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			return fail(c, fiber.StatusBadRequest, "Missing required fields")
		case errors.Is(err, services.ErrInvalidSender):
			return fail(c, fiber.StatusBadRequest, "Invalid sender")
		}
		log.Error().Err(err).Uint("user_id", userID).Msg("Save chat error")
		return fail(c, fiber.StatusInternalServerError, "Failed to save chat message")
	}
	return succeed(c, fiber.StatusOK, "Chat message saved successfully")
}
