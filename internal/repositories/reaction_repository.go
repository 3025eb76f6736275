package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

// ReactionRepository abstracts reaction persistence.
type ReactionRepository interface {
	GetReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, bool, error)
	ListUserReactions(ctx context.Context, messageID, userID int) ([]models.Reaction, error)
	CreateReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error)
	DeleteReaction(ctx context.Context, reactionID int) error
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

const reactionColumns = `id, message_id, user_id, emoji, created_at`

// GetReaction fetches the exact (message, user, emoji) tuple, if present.
func (r *ReactionRepo) GetReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, bool, error) {
	var reaction models.Reaction
	err := r.db.GetContext(ctx, &reaction,
		`SELECT `+reactionColumns+` FROM message_reactions
         WHERE message_id=$1 AND user_id=$2 AND emoji=$3`,
		messageID, userID, emoji)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reaction{}, false, nil
	}
	if err != nil {
		return models.Reaction{}, false, err
	}
	return reaction, true, nil
}

// ListUserReactions returns all of one user's reactions on a message. The
// one-reaction-per-user rule keeps this at most one row, but the query does
// not assume it.
func (r *ReactionRepo) ListUserReactions(ctx context.Context, messageID, userID int) ([]models.Reaction, error) {
	var reactions []models.Reaction
	err := r.db.SelectContext(ctx, &reactions,
		`SELECT `+reactionColumns+` FROM message_reactions
         WHERE message_id=$1 AND user_id=$2 ORDER BY id`,
		messageID, userID)
	return reactions, err
}

// CreateReaction persists a reaction.
func (r *ReactionRepo) CreateReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error) {
	var reaction models.Reaction
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO message_reactions (message_id, user_id, emoji)
         VALUES ($1, $2, $3) RETURNING `+reactionColumns,
		messageID, userID, emoji).StructScan(&reaction)
	return reaction, err
}

// DeleteReaction removes a reaction by id.
func (r *ReactionRepo) DeleteReaction(ctx context.Context, reactionID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM message_reactions WHERE id=$1`, reactionID)
	return err
}
