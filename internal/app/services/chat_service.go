package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/models/dto/enums"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/events"
)

// chatHistoryLimit bounds the messages returned for a course.
const chatHistoryLimit = 500

// MaxChatMessageLength is the longest message accepted.
const MaxChatMessageLength = 4000

// ChatStore persists class chat messages.
type ChatStore interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	GetSender(ctx context.Context, senderID uuid.UUID) (*models.ChatSender, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID, limit uint64) ([]*models.ChatMessage, error)
}

// ChatService handles course chat messages.
type ChatService struct {
	chats   ChatStore
	changes changeNotifier
	logger  zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(chats ChatStore, publisher events.Publisher, logger zerolog.Logger) *ChatService {
	return &ChatService{
		chats:   chats,
		changes: newChangeNotifier(publisher, logger),
		logger:  logger,
	}
}

// ListMessages returns a course's messages, oldest first, with sender names.
func (s *ChatService) ListMessages(ctx context.Context, courseID uuid.UUID) ([]*models.ChatMessage, error) {
	return s.chats.ListByCourse(ctx, courseID, chatHistoryLimit)
}

// PostMessage stores a trimmed, non-empty message and publishes it with the
// sender's names attached.
func (s *ChatService) PostMessage(ctx context.Context, courseID, senderID uuid.UUID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message cannot be empty", apperrors.ErrValidationFailed)
	}
	if len(text) > MaxChatMessageLength {
		return nil, fmt.Errorf("%w: message is too long", apperrors.ErrValidationFailed)
	}

	message := &models.ChatMessage{
		CourseID:    courseID,
		SenderID:    senderID,
		MessageText: text,
	}
	if err := s.chats.Create(ctx, message); err != nil {
		return nil, err
	}

	sender, err := s.chats.GetSender(ctx, senderID)
	if err != nil {
		s.logger.Warn().Err(err).Str("senderID", senderID.String()).Msg("Failed to load chat sender")
	} else {
		message.Sender = sender
	}

	s.changes.notifyKey(ctx, enums.TableChats, enums.ChangeInsert, courseID.String(), message)
	return message, nil
}
