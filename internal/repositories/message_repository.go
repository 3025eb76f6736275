package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts message and read-receipt persistence.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID, senderID int, text *string, fileID, replyToID *int) (models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	ListMessages(ctx context.Context, chatID, offset, limit int) ([]models.Message, error)
	LastMessage(ctx context.Context, chatID int) (models.Message, bool, error)
	DeleteMessage(ctx context.Context, messageID int) error
	CreateRead(ctx context.Context, messageID, userID int) (models.MessageRead, bool, error)
	ClearAttachments(ctx context.Context) error
	DeleteAllMessages(ctx context.Context) error
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, chat_id, sender_id, text, file_id, reply_to_id, created_at`

// CreateMessage persists a message.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID, senderID int, text *string, fileID, replyToID *int) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, text, file_id, reply_to_id)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		chatID, senderID, text, fileID, replyToID).StructScan(&msg)
	return msg, err
}

// GetMessage fetches a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListMessages returns a page of chat messages in creation order.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID, offset, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id=$1
         ORDER BY created_at ASC, id ASC OFFSET $2 LIMIT $3`,
		chatID, offset, limit)
	return msgs, err
}

// LastMessage returns the newest message of a chat, if any.
func (r *MessageRepo) LastMessage(ctx context.Context, chatID int) (models.Message, bool, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages WHERE chat_id=$1
         ORDER BY created_at DESC, id DESC LIMIT 1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, false, nil
	}
	if err != nil {
		return models.Message{}, false, err
	}
	return msg, true, nil
}

// DeleteMessage removes a message; reactions and read receipts cascade and
// reply references to it become null.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
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

// CreateRead inserts a read receipt. The second return is false when the
// receipt already existed; the unique constraint makes the insert race-safe.
func (r *MessageRepo) CreateRead(ctx context.Context, messageID, userID int) (models.MessageRead, bool, error) {
	var read models.MessageRead
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO message_reads (message_id, user_id) VALUES ($1, $2)
         ON CONFLICT (message_id, user_id) DO NOTHING
         RETURNING id, message_id, user_id, read_at`,
		messageID, userID).StructScan(&read)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageRead{}, false, nil
	}
	if err != nil {
		return models.MessageRead{}, false, err
	}
	return read, true, nil
}

// ClearAttachments nulls every message's file pointer, run before a bulk
// file wipe to keep the foreign keys happy.
func (r *MessageRepo) ClearAttachments(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET file_id=NULL`)
	return err
}

// DeleteAllMessages wipes every message.
func (r *MessageRepo) DeleteAllMessages(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages`)
	return err
}
