package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSender is the sender information attached to a chat message.
type ChatSender struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Username  *string `json:"username,omitempty"`
}

// ChatMessage is a message in a course's class chat.
type ChatMessage struct {
	ID          uuid.UUID `json:"id" db:"id"`
	CourseID    uuid.UUID `json:"courseId" db:"course_id"`
	SenderID    uuid.UUID `json:"senderId" db:"sender_id"`
	MessageText string    `json:"messageText" db:"message_text"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	// Related entities
	Sender *ChatSender `json:"sender,omitempty"`
}
