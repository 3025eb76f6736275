package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

type AdminService struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	files    repositories.FileRepository
	uploads  BlobStore
	avatars  BlobStore
	audit    *telemetry.AuditEmitter
	log      *zap.SugaredLogger
}

func NewAdminService(
	users repositories.UserRepository,
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	files repositories.FileRepository,
	uploads BlobStore,
	avatars BlobStore,
	audit *telemetry.AuditEmitter,
	log *zap.SugaredLogger,
) *AdminService {
	return &AdminService{
		users:    users,
		chats:    chats,
		messages: messages,
		files:    files,
		uploads:  uploads,
		avatars:  avatars,
		audit:    audit,
		log:      log,
	}
}

// Wipe destroys all chats, messages, attachments, and avatars. Only a
// platform admin may call it. Blobs go first so a mid-wipe crash leaves
// rows pointing at nothing rather than orphaned bytes on disk.
func (s *AdminService) Wipe(ctx context.Context, actorID int, requestID string) error {
	actor, err := s.users.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, actorID)
		}
		return err
	}
	if !actor.IsAdmin {
		return fmt.Errorf("%w: admin access required", ErrForbidden)
	}

	if err := s.messages.ClearAttachments(ctx); err != nil {
		return err
	}
	paths, err := s.files.ListAllPaths(ctx)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := s.uploads.Remove(path); err != nil {
			s.log.Warnw("failed to remove blob during wipe", "path", path, "error", err)
		}
	}
	if err := s.files.DeleteAllFiles(ctx); err != nil {
		return err
	}
	if err := s.messages.DeleteAllMessages(ctx); err != nil {
		return err
	}
	if err := s.chats.DeleteAllChats(ctx); err != nil {
		return err
	}
	if err := s.users.ClearAllAvatars(ctx); err != nil {
		return err
	}
	if err := s.avatars.RemoveAll(); err != nil {
		s.log.Warnw("failed to clear avatar store during wipe", "error", err)
	}

	s.log.Warnw("full data wipe completed", "actor_id", actorID)
	s.audit.Emit(ctx, "WARN", "full data wipe executed", requestID, &actorID)
	return nil
}
