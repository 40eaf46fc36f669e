package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"til-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

const messageColumns = `id, room_id, sender_id, content, message_type, metadata, is_read, is_deleted, created_at, updated_at`

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, senderID int, content string, msgType models.MessageType, metadata models.Metadata) (models.Message, error)
	ListMessages(ctx context.Context, roomID int) ([]models.RoomMessage, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	MarkRead(ctx context.Context, roomID, readerID int) (int64, error)
	SoftDelete(ctx context.Context, messageID, senderID int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage stores a message in a room.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, senderID int, content string, msgType models.MessageType, metadata models.Metadata) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, sender_id, content, message_type, metadata)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		roomID, senderID, content, msgType, metadata).StructScan(&msg)
	return msg, err
}

// ListMessages returns non-deleted messages ascending by creation time,
// joined with the sender's username.
func (r *MessageRepo) ListMessages(ctx context.Context, roomID int) ([]models.RoomMessage, error) {
	var msgs []models.RoomMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT m.id, m.room_id, m.sender_id, m.content, m.message_type, m.metadata,
                m.is_read, m.is_deleted, m.created_at, m.updated_at,
                p.username AS sender_username
         FROM messages m
         JOIN profiles p ON p.id = m.sender_id
         WHERE m.room_id=$1 AND m.is_deleted = FALSE
         ORDER BY m.created_at ASC`, roomID)
	if msgs == nil {
		msgs = []models.RoomMessage{}
	}
	return msgs, err
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkRead flips is_read on every message in the room the reader did not
// send. The is_read filter makes a second application a no-op.
func (r *MessageRepo) MarkRead(ctx context.Context, roomID, readerID int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_read = TRUE, updated_at = NOW()
         WHERE room_id=$1 AND sender_id<>$2 AND is_read = FALSE`, roomID, readerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SoftDelete marks a message deleted without removing the row, so list
// ordering stays stable for clients mid-fetch. Sender only.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID, senderID int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE messages SET is_deleted = TRUE, updated_at = NOW() WHERE id=$1 AND sender_id=$2`,
		messageID, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}
