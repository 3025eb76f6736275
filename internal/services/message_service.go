package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

// dedupWindow is how long an identical (chat, sender, text) triple is
// treated as a duplicate submission rather than a new message.
const dedupWindow = time.Second

type dedupKey struct {
	chatID   int
	senderID int
	text     string
}

type dedupEntry struct {
	view models.MessageView
	at   time.Time
}

type MessageService struct {
	chats     repositories.ChatRepository
	messages  repositories.MessageRepository
	reactions repositories.ReactionRepository
	files     repositories.FileRepository
	users     repositories.UserRepository
	blobs     BlobStore
	hub       ws.Broadcaster
	log       *zap.SugaredLogger

	dedupMu sync.Mutex
	recent  map[dedupKey]dedupEntry
}

func NewMessageService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	reactions repositories.ReactionRepository,
	files repositories.FileRepository,
	users repositories.UserRepository,
	blobs BlobStore,
	hub ws.Broadcaster,
	log *zap.SugaredLogger,
) *MessageService {
	return &MessageService{
		chats:     chats,
		messages:  messages,
		reactions: reactions,
		files:     files,
		users:     users,
		blobs:     blobs,
		hub:       hub,
		log:       log,
		recent:    make(map[dedupKey]dedupEntry),
	}
}

// Send persists a message and fans it out to every chat member, sender
// included. A resend of the same text by the same sender to the same chat
// within dedupWindow returns the original message without creating a row
// or emitting a second event.
func (s *MessageService) Send(ctx context.Context, chatID, senderID int, text *string, fileID, replyToID *int) (models.MessageView, error) {
	if (text == nil || *text == "") && fileID == nil {
		return models.MessageView{}, fmt.Errorf("%w: message needs text or a file", ErrInvalid)
	}
	if err := s.requireMember(ctx, chatID, senderID); err != nil {
		return models.MessageView{}, err
	}
	if fileID != nil {
		if _, err := s.files.GetFile(ctx, *fileID); err != nil {
			if errors.Is(err, repositories.ErrFileNotFound) {
				return models.MessageView{}, fmt.Errorf("%w: file %d", ErrNotFound, *fileID)
			}
			return models.MessageView{}, err
		}
	}
	if replyToID != nil {
		parent, err := s.messages.GetMessage(ctx, *replyToID)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return models.MessageView{}, fmt.Errorf("%w: reply target %d", ErrNotFound, *replyToID)
			}
			return models.MessageView{}, err
		}
		if parent.ChatID != chatID {
			return models.MessageView{}, fmt.Errorf("%w: reply target belongs to another chat", ErrInvalid)
		}
	}

	if text != nil {
		if view, ok := s.recentDuplicate(chatID, senderID, *text); ok {
			s.log.Debugw("duplicate message suppressed", "chat_id", chatID, "sender_id", senderID)
			return view, nil
		}
	}

	msg, err := s.messages.CreateMessage(ctx, chatID, senderID, text, fileID, replyToID)
	if err != nil {
		return models.MessageView{}, err
	}
	view, err := s.buildView(ctx, msg)
	if err != nil {
		return models.MessageView{}, err
	}

	if text != nil {
		s.remember(chatID, senderID, *text, view)
	}

	memberIDs, err := s.chats.MemberIDs(ctx, chatID)
	if err != nil {
		return models.MessageView{}, err
	}
	s.hub.SendToMany(ws.NewMessageEvent(view), memberIDs)
	return view, nil
}

// Delete removes a message and its attachment. Only the sender may delete.
func (s *MessageService) Delete(ctx context.Context, messageID, userID int) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}
	if msg.SenderID != userID {
		return fmt.Errorf("%w: only the sender may delete a message", ErrForbidden)
	}

	memberIDs, err := s.chats.MemberIDs(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	if msg.FileID != nil {
		if err := s.removeAttachment(ctx, *msg.FileID); err != nil {
			return err
		}
	}
	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		return err
	}

	s.hub.SendToMany(ws.Event{Type: ws.EventDeleteMessage, Data: ws.DeleteMessageData{
		MessageID: messageID,
		ChatID:    msg.ChatID,
	}}, memberIDs)
	return nil
}

// BulkDelete removes a batch of messages. Every message must belong to the
// caller; nothing is deleted if any does not.
func (s *MessageService) BulkDelete(ctx context.Context, messageIDs []int, userID int) error {
	for _, id := range messageIDs {
		msg, err := s.messages.GetMessage(ctx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return fmt.Errorf("%w: message %d", ErrNotFound, id)
			}
			return err
		}
		if msg.SenderID != userID {
			return fmt.Errorf("%w: message %d belongs to another user", ErrForbidden, id)
		}
	}
	for _, id := range messageIDs {
		if err := s.Delete(ctx, id, userID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// MarkRead records a read receipt and notifies the chat. Reading your own
// message, or one you already read, is a silent no-op.
func (s *MessageService) MarkRead(ctx context.Context, messageID, userID int) error {
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return err
	}
	if err := s.requireMember(ctx, msg.ChatID, userID); err != nil {
		return err
	}
	if msg.SenderID == userID {
		return nil
	}

	read, created, err := s.messages.CreateRead(ctx, messageID, userID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	memberIDs, err := s.chats.MemberIDs(ctx, msg.ChatID)
	if err != nil {
		return err
	}
	s.hub.SendToMany(ws.Event{Type: ws.EventMessageRead, Data: ws.MessageReadData{
		MessageID: messageID,
		ChatID:    msg.ChatID,
		UserID:    userID,
		ReadAt:    read.ReadAt,
	}}, memberIDs)
	return nil
}

// ToggleReaction adds or removes an emoji reaction. Reacting again with the
// same emoji removes it; reacting with a different emoji replaces the old
// one, emitting the removal before the addition. Returns the action taken.
func (s *MessageService) ToggleReaction(ctx context.Context, messageID, userID int, emoji string) (string, error) {
	if emoji == "" {
		return "", fmt.Errorf("%w: emoji is required", ErrInvalid)
	}
	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return "", fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}
		return "", err
	}
	if err := s.requireMember(ctx, msg.ChatID, userID); err != nil {
		return "", err
	}
	memberIDs, err := s.chats.MemberIDs(ctx, msg.ChatID)
	if err != nil {
		return "", err
	}

	existing, found, err := s.reactions.GetReaction(ctx, messageID, userID, emoji)
	if err != nil {
		return "", err
	}
	if found {
		if err := s.reactions.DeleteReaction(ctx, existing.ID); err != nil {
			return "", err
		}
		s.broadcastReaction(memberIDs, messageID, msg.ChatID, userID, emoji, "removed")
		return "removed", nil
	}

	old, err := s.reactions.ListUserReactions(ctx, messageID, userID)
	if err != nil {
		return "", err
	}
	for _, r := range old {
		if err := s.reactions.DeleteReaction(ctx, r.ID); err != nil {
			return "", err
		}
		s.broadcastReaction(memberIDs, messageID, msg.ChatID, userID, r.Emoji, "removed")
	}
	if _, err := s.reactions.CreateReaction(ctx, messageID, userID, emoji); err != nil {
		return "", err
	}
	s.broadcastReaction(memberIDs, messageID, msg.ChatID, userID, emoji, "added")
	return "added", nil
}

// History returns a page of messages in chronological order. The caller
// must be a member of the chat.
func (s *MessageService) History(ctx context.Context, chatID, userID, offset, limit int) ([]models.MessageView, error) {
	if err := s.requireMember(ctx, chatID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	msgs, err := s.messages.ListMessages(ctx, chatID, offset, limit)
	if err != nil {
		return nil, err
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, msg := range msgs {
		view, err := s.buildView(ctx, msg)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *MessageService) broadcastReaction(memberIDs []int, messageID, chatID, userID int, emoji, action string) {
	s.hub.SendToMany(ws.Event{Type: ws.EventMessageReaction, Data: ws.ReactionData{
		MessageID: messageID,
		ChatID:    chatID,
		UserID:    userID,
		Emoji:     emoji,
		Action:    action,
	}}, memberIDs)
}

func (s *MessageService) requireMember(ctx context.Context, chatID, userID int) error {
	if _, err := s.chats.GetChat(ctx, chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return err
	}
	member, err := s.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a member of chat %d", ErrForbidden, chatID)
	}
	return nil
}

func (s *MessageService) buildView(ctx context.Context, msg models.Message) (models.MessageView, error) {
	sender, err := s.users.GetUser(ctx, msg.SenderID)
	if err != nil {
		return models.MessageView{}, err
	}
	view := models.MessageView{Message: msg, Sender: sender.Ref()}
	if msg.FileID != nil {
		file, err := s.files.GetFile(ctx, *msg.FileID)
		if err == nil {
			view.File = &file
		} else if !errors.Is(err, repositories.ErrFileNotFound) {
			return models.MessageView{}, err
		}
	}
	return view, nil
}

func (s *MessageService) removeAttachment(ctx context.Context, fileID int) error {
	file, err := s.files.GetFile(ctx, fileID)
	if err != nil {
		if errors.Is(err, repositories.ErrFileNotFound) {
			return nil
		}
		return err
	}
	if err := s.blobs.Remove(file.Path); err != nil {
		s.log.Warnw("failed to remove attachment blob", "file_id", fileID, "error", err)
	}
	return s.files.DeleteFile(ctx, fileID)
}

func (s *MessageService) recentDuplicate(chatID, senderID int, text string) (models.MessageView, bool) {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	entry, ok := s.recent[dedupKey{chatID, senderID, text}]
	if !ok || time.Since(entry.at) > dedupWindow {
		return models.MessageView{}, false
	}
	return entry.view, true
}

func (s *MessageService) remember(chatID, senderID int, text string, view models.MessageView) {
	now := time.Now()
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()
	for k, e := range s.recent {
		if now.Sub(e.at) > dedupWindow {
			delete(s.recent, k)
		}
	}
	s.recent[dedupKey{chatID, senderID, text}] = dedupEntry{view: view, at: now}
}
