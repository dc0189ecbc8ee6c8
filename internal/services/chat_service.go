package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

var (
	// ErrEmptyMessage is returned when saving a message with no text.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrInvalidSender is returned for senders other than user and bot.
	ErrInvalidSender = errors.New("sender must be user or bot")
)

// ChatService keeps each user's chat log.
type ChatService struct {
	repo repositories.ChatRepository
}

// NewChatService creates a new ChatService.
func NewChatService(repo repositories.ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

// SaveMessage appends a message, stamped with the current time, to the user's log.
func (s *ChatService) SaveMessage(ctx context.Context, userID uint, message, sender string) (*models.ChatMessage, error) {
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if sender != models.SenderUser && sender != models.SenderBot {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidSender, sender)
	}

	msg := &models.ChatMessage{
		UserID:    userID,
		Message:   message,
		Sender:    sender,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the user's messages oldest first.
func (s *ChatService) History(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	return s.repo.ListByUser(ctx, userID)
}
