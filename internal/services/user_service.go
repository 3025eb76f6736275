package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"messenger-service/internal/files"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

type UserService struct {
	users   repositories.UserRepository
	avatars BlobStore
	hub     ws.Broadcaster
	log     *zap.SugaredLogger
}

func NewUserService(users repositories.UserRepository, avatars BlobStore, hub ws.Broadcaster, log *zap.SugaredLogger) *UserService {
	return &UserService{users: users, avatars: avatars, hub: hub, log: log}
}

// SearchUsers finds users by username substring, excluding the searcher.
func (s *UserService) SearchUsers(ctx context.Context, query string, searcherID int) ([]models.UserRef, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalid)
	}
	users, err := s.users.SearchUsers(ctx, query, searcherID)
	if err != nil {
		return nil, err
	}
	refs := make([]models.UserRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, u.Ref())
	}
	return refs, nil
}

// GetUser returns a user's public profile.
func (s *UserService) GetUser(ctx context.Context, userID int) (models.UserRef, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.UserRef{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return models.UserRef{}, err
	}
	return user.Ref(), nil
}

// UpdateAvatar stores a new avatar blob, drops the old one, and tells every
// connected user the profile changed.
func (s *UserService) UpdateAvatar(ctx context.Context, userID int, r io.Reader, filename string) (models.UserRef, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.UserRef{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return models.UserRef{}, err
	}

	name, _, err := s.avatars.Save(r, filename)
	if err != nil {
		if errors.Is(err, files.ErrBadExtension) || errors.Is(err, files.ErrTooLarge) {
			return models.UserRef{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return models.UserRef{}, err
	}
	if err := s.users.SetAvatar(ctx, userID, &name); err != nil {
		if rmErr := s.avatars.Remove(name); rmErr != nil {
			s.log.Warnw("failed to remove orphaned avatar blob", "name", name, "error", rmErr)
		}
		return models.UserRef{}, err
	}
	if user.AvatarPath != nil {
		if err := s.avatars.Remove(*user.AvatarPath); err != nil {
			s.log.Warnw("failed to remove old avatar blob", "name", *user.AvatarPath, "error", err)
		}
	}

	ref := user.Ref()
	ref.AvatarPath = &name
	s.hub.BroadcastToAll(ws.UserUpdatedEvent(ref))
	return ref, nil
}

// DeleteAvatar removes the user's avatar and broadcasts the change.
func (s *UserService) DeleteAvatar(ctx context.Context, userID int) (models.UserRef, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.UserRef{}, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return models.UserRef{}, err
	}
	if user.AvatarPath == nil {
		return user.Ref(), nil
	}

	if err := s.users.SetAvatar(ctx, userID, nil); err != nil {
		return models.UserRef{}, err
	}
	if err := s.avatars.Remove(*user.AvatarPath); err != nil {
		s.log.Warnw("failed to remove avatar blob", "name", *user.AvatarPath, "error", err)
	}

	ref := user.Ref()
	ref.AvatarPath = nil
	s.hub.BroadcastToAll(ws.UserUpdatedEvent(ref))
	return ref, nil
}
