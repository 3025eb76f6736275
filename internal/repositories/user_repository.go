package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetUser(ctx context.Context, userID int) (models.User, error)
	GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, excludeUserID int) ([]models.User, error)
	SetAvatar(ctx context.Context, userID int, avatarPath *string) error
	ClearAllAvatars(ctx context.Context) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, password_hash, avatar_path, is_admin, created_at`

// GetUser fetches a single user.
func (r *UserRepo) GetUser(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsersByIDs fetches multiple users in one query.
func (r *UserRepo) GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var users []models.User
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, err
}

// SearchUsers matches usernames case-insensitively, excluding the searcher.
// LIKE wildcards in the query are escaped so clients cannot inject them.
func (r *UserRepo) SearchUsers(ctx context.Context, query string, excludeUserID int) ([]models.User, error) {
	safe := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE username ILIKE $1 ESCAPE '\' AND id<>$2 ORDER BY username`,
		"%"+safe+"%", excludeUserID)
	return users, err
}

// SetAvatar updates the user's avatar path; nil clears it.
func (r *UserRepo) SetAvatar(ctx context.Context, userID int, avatarPath *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_path=$1 WHERE id=$2`, avatarPath, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearAllAvatars resets every user's avatar path.
func (r *UserRepo) ClearAllAvatars(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_path=NULL`)
	return err
}
