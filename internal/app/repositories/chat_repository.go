package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/dberrors"
	"github.com/yigit/collegeerp/internal/pkg/logger"
)

// ChatRepository handles database operations for course chat messages
type ChatRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{db: db, sb: psql}
}

// Create inserts a new chat message
func (r *ChatRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	sql, args, err := r.sb.Insert("chats").
		Columns("course_id", "sender_id", "message_text").
		Values(message.CourseID, message.SenderID, message.MessageText).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create chat query: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&message.ID, &message.CreatedAt); err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return apperrors.ErrCourseNotFound
		}
		logger.Error().Err(err).Str("courseID", message.CourseID.String()).Msg("Error creating chat message")
		return fmt.Errorf("error creating chat message: %w", err)
	}
	return nil
}

// GetSender returns the display fields of a message sender
func (r *ChatRepository) GetSender(ctx context.Context, senderID uuid.UUID) (*models.ChatSender, error) {
	var s models.ChatSender
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(first_name, ''), COALESCE(last_name, ''), username FROM profiles WHERE id = $1`, senderID).
		Scan(&s.FirstName, &s.LastName, &s.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving chat sender: %w", err)
	}
	return &s, nil
}

// ListByCourse returns the course's messages with sender names, oldest
// first. With a limit only the newest limit messages are returned. limit 0
// means no limit.
func (r *ChatRepository) ListByCourse(ctx context.Context, courseID uuid.UUID, limit uint64) ([]*models.ChatMessage, error) {
	sql, args, err := r.listByCourseQuery(courseID, limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build chat list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("courseID", courseID.String()).Msg("Error querying chat messages")
		return nil, fmt.Errorf("error listing chat messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	for rows.Next() {
		m := models.ChatMessage{Sender: &models.ChatSender{}}
		if err := rows.Scan(&m.ID, &m.CourseID, &m.SenderID, &m.MessageText, &m.CreatedAt,
			&m.Sender.FirstName, &m.Sender.LastName, &m.Sender.Username); err != nil {
			return nil, fmt.Errorf("error scanning chat message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if limit > 0 {
		reverseMessages(messages)
	}
	return messages, nil
}

// listByCourseQuery selects newest first when limited so the cap drops the
// oldest messages; ListByCourse restores chronological order.
func (r *ChatRepository) listByCourseQuery(courseID uuid.UUID, limit uint64) squirrel.SelectBuilder {
	q := r.sb.Select(
		"m.id", "m.course_id", "m.sender_id", "m.message_text", "m.created_at",
		"COALESCE(p.first_name, '')", "COALESCE(p.last_name, '')", "p.username",
	).
		From("chats m").
		LeftJoin("profiles p ON p.id = m.sender_id").
		Where(squirrel.Eq{"m.course_id": courseID})
	if limit == 0 {
		return q.OrderBy("m.created_at ASC", "m.id ASC")
	}
	return q.OrderBy("m.created_at DESC", "m.id DESC").Limit(limit)
}

func reverseMessages(messages []*models.ChatMessage) {
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
}
