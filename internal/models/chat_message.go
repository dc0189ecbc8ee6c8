package models

import "time"

// Chat message senders.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage is one line of a user's chat log.
type ChatMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Message   string    `json:"message" gorm:"not null"`
	Sender    string    `json:"sender" gorm:"not null"`
	Timestamp time.Time `json:"timestamp" gorm:"not null"`

	User *User `json:"-" gorm:"foreignKey:UserID"`
}

// TableName keeps the table name used by existing databases.
func (ChatMessage) TableName() string {
	return "chat_history"
}
