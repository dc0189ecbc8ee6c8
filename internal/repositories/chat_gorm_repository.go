package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models"
)

// ChatRepository defines the interface for chat log access.
type ChatRepository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByUser(ctx context.Context, userID uint) ([]models.ChatMessage, error)
}

// GORMChatRepository is a GORM implementation of ChatRepository.
type GORMChatRepository struct {
	db *gorm.DB
}

// NewGORMChatRepository creates a new instance of GORMChatRepository.
func NewGORMChatRepository(db *gorm.DB) *GORMChatRepository {
	return &GORMChatRepository{
		db: db,
	}
}

// Create appends a message to the chat log.
func (r *GORMChatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

// ListByUser returns a user's messages in the order they were written.
func (r *GORMChatRepository) ListByUser(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	messages := []models.ChatMessage{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: "timestamp"}},
			{Column: clause.Column{Name: "id"}},
		}}).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get chat history for user %d: %w", userID, err)
	}
	return messages, nil
}
