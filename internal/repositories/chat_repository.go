package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and membership persistence.
type ChatRepository interface {
	CreateChat(ctx context.Context, name *string, isGroup bool, creatorID int, memberIDs []int) (models.Chat, error)
	FindDirectChat(ctx context.Context, userID, otherID int) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
	IsMember(ctx context.Context, chatID, userID int) (bool, error)
	MemberIDs(ctx context.Context, chatID int) ([]int, error)
	Members(ctx context.Context, chatID int) ([]models.UserRef, error)
	AddMember(ctx context.Context, chatID, userID int) error
	RemoveMember(ctx context.Context, chatID, userID int) (remaining int, err error)
	UpdateChat(ctx context.Context, chatID int, name, avatarPath *string) (models.Chat, error)
	DeleteChat(ctx context.Context, chatID int) error
	DeleteAllChats(ctx context.Context) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const chatColumns = `id, name, avatar_path, is_group, created_at`

// CreateChat creates a chat and its memberships atomically. The creator is
// always included; for a group chat the creator's membership is flagged
// is_owner (recorded, not enforced as a privilege).
func (r *ChatRepo) CreateChat(ctx context.Context, name *string, isGroup bool, creatorID int, memberIDs []int) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var chat models.Chat
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO chats (name, is_group) VALUES ($1, $2) RETURNING `+chatColumns,
		name, isGroup).StructScan(&chat); err != nil {
		return models.Chat{}, err
	}

	memberSet := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		isOwner := isGroup && id == creatorID
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO chat_members (chat_id, user_id, is_owner) VALUES ($1, $2, $3)`,
			chat.ID, id, isOwner); err != nil {
			return models.Chat{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// FindDirectChat looks up the non-group chat shared by exactly this member
// pair. Enforced by lookup only; no storage constraint backs the at-most-one
// invariant, so concurrent creations can race.
func (r *ChatRepo) FindDirectChat(ctx context.Context, userID, otherID int) (models.Chat, bool, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat,
		`SELECT c.id, c.name, c.avatar_path, c.is_group, c.created_at
         FROM chats c
         JOIN chat_members cm ON cm.chat_id = c.id
         WHERE c.is_group = FALSE AND cm.user_id IN ($1, $2)
         GROUP BY c.id
         HAVING COUNT(DISTINCT cm.user_id) = 2
         ORDER BY c.id
         LIMIT 1`,
		userID, otherID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, nil
	}
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, true, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT `+chatColumns+` FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChatsForUser returns the chats the user belongs to, newest first.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats,
		`SELECT c.id, c.name, c.avatar_path, c.is_group, c.created_at
         FROM chats c
         JOIN chat_members cm ON cm.chat_id = c.id
         WHERE cm.user_id=$1
         ORDER BY c.created_at DESC`, userID)
	return chats, err
}

// IsMember checks membership.
func (r *ChatRepo) IsMember(ctx context.Context, chatID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// MemberIDs returns the ids of the chat's current members.
func (r *ChatRepo) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM chat_members WHERE chat_id=$1 ORDER BY user_id`, chatID)
	return ids, err
}

// Members returns the chat's members in their embeddable form.
func (r *ChatRepo) Members(ctx context.Context, chatID int) ([]models.UserRef, error) {
	var members []models.UserRef
	err := r.db.SelectContext(ctx, &members,
		`SELECT u.id, u.username, u.avatar_path
         FROM users u
         JOIN chat_members cm ON cm.user_id = u.id
         WHERE cm.chat_id=$1
         ORDER BY u.id`, chatID)
	return members, err
}

// AddMember inserts a membership; adding an existing member is a no-op.
func (r *ChatRepo) AddMember(ctx context.Context, chatID, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)
         ON CONFLICT (chat_id, user_id) DO NOTHING`, chatID, userID)
	return err
}

// RemoveMember deletes a membership and reports how many members remain, so
// the caller can cascade the chat deletion when the last one leaves.
func (r *ChatRepo) RemoveMember(ctx context.Context, chatID, userID int) (int, error) {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_members WHERE chat_id=$1 AND user_id=$2`, chatID, userID); err != nil {
		return 0, err
	}
	var remaining int
	err := r.db.GetContext(ctx, &remaining,
		`SELECT COUNT(*) FROM chat_members WHERE chat_id=$1`, chatID)
	return remaining, err
}

// UpdateChat sets name and avatar, returning the updated row.
func (r *ChatRepo) UpdateChat(ctx context.Context, chatID int, name, avatarPath *string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.QueryRowxContext(ctx,
		`UPDATE chats SET name=COALESCE($1, name), avatar_path=COALESCE($2, avatar_path)
         WHERE id=$3 RETURNING `+chatColumns,
		name, avatarPath, chatID).StructScan(&chat)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// DeleteChat removes the chat; memberships and messages cascade.
func (r *ChatRepo) DeleteChat(ctx context.Context, chatID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, chatID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteAllChats wipes every chat; memberships and messages cascade.
func (r *ChatRepo) DeleteAllChats(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM chats`)
	return err
}
