package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

type ChatService struct {
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository
	files    repositories.FileRepository
	hub      ws.Broadcaster
	log      *zap.SugaredLogger
}

func NewChatService(
	chats repositories.ChatRepository,
	users repositories.UserRepository,
	messages repositories.MessageRepository,
	files repositories.FileRepository,
	hub ws.Broadcaster,
	log *zap.SugaredLogger,
) *ChatService {
	return &ChatService{chats: chats, users: users, messages: messages, files: files, hub: hub, log: log}
}

// ChatService implements the typing fan-out the websocket layer needs.
var _ ws.TypingSink = (*ChatService)(nil)

// CreateChatParams carries the request body for chat creation. A direct
// chat names a single recipient; a group chat names its member set.
type CreateChatParams struct {
	Name        *string
	IsGroup     bool
	RecipientID *int
	MemberIDs   []int
}

// CreateChat creates a group or direct chat and announces it to every
// member. Creating a direct chat with the same pair again returns the
// existing chat instead of a new one.
func (s *ChatService) CreateChat(ctx context.Context, creatorID int, params CreateChatParams) (models.ChatView, error) {
	if params.IsGroup {
		return s.createGroupChat(ctx, creatorID, params)
	}
	return s.createDirectChat(ctx, creatorID, params)
}

func (s *ChatService) createGroupChat(ctx context.Context, creatorID int, params CreateChatParams) (models.ChatView, error) {
	if len(params.MemberIDs) == 0 {
		return models.ChatView{}, fmt.Errorf("%w: a group chat needs members", ErrInvalid)
	}
	for _, id := range params.MemberIDs {
		if err := s.requireUser(ctx, id); err != nil {
			return models.ChatView{}, err
		}
	}
	chat, err := s.chats.CreateChat(ctx, params.Name, true, creatorID, params.MemberIDs)
	if err != nil {
		return models.ChatView{}, err
	}
	return s.announceNewChat(ctx, chat)
}

func (s *ChatService) createDirectChat(ctx context.Context, creatorID int, params CreateChatParams) (models.ChatView, error) {
	if params.RecipientID == nil || *params.RecipientID == creatorID {
		return models.ChatView{}, fmt.Errorf("%w: a direct chat needs another user", ErrInvalid)
	}
	if err := s.requireUser(ctx, *params.RecipientID); err != nil {
		return models.ChatView{}, err
	}

	existing, found, err := s.chats.FindDirectChat(ctx, creatorID, *params.RecipientID)
	if err != nil {
		return models.ChatView{}, err
	}
	if found {
		return s.buildView(ctx, existing)
	}

	chat, err := s.chats.CreateChat(ctx, nil, false, creatorID, []int{*params.RecipientID})
	if err != nil {
		return models.ChatView{}, err
	}
	return s.announceNewChat(ctx, chat)
}

// ListChats returns every chat the user belongs to, with members and the
// last message for preview.
func (s *ChatService) ListChats(ctx context.Context, userID int) ([]models.ChatView, error) {
	chats, err := s.chats.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ChatView, 0, len(chats))
	for _, chat := range chats {
		view, err := s.buildView(ctx, chat)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetChat returns a single chat the user belongs to.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID int) (models.ChatView, error) {
	chat, err := s.requireChatMember(ctx, chatID, userID)
	if err != nil {
		return models.ChatView{}, err
	}
	return s.buildView(ctx, chat)
}

// UpdateChat renames a chat or swaps its avatar and notifies its members.
func (s *ChatService) UpdateChat(ctx context.Context, chatID, userID int, name, avatarPath *string) (models.ChatView, error) {
	if _, err := s.requireChatMember(ctx, chatID, userID); err != nil {
		return models.ChatView{}, err
	}
	updated, err := s.chats.UpdateChat(ctx, chatID, name, avatarPath)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.ChatView{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return models.ChatView{}, err
	}
	view, err := s.buildView(ctx, updated)
	if err != nil {
		return models.ChatView{}, err
	}
	s.hub.SendToMany(ws.ChatUpdatedEvent(view), memberIDsOf(view))
	return view, nil
}

// AddMember adds a user to a group chat. The new member gets the full chat
// snapshot, everyone else a membership update.
func (s *ChatService) AddMember(ctx context.Context, chatID, actorID, newUserID int) (models.ChatView, error) {
	chat, err := s.requireChatMember(ctx, chatID, actorID)
	if err != nil {
		return models.ChatView{}, err
	}
	if !chat.IsGroup {
		return models.ChatView{}, fmt.Errorf("%w: cannot add members to a direct chat", ErrInvalid)
	}
	if err := s.requireUser(ctx, newUserID); err != nil {
		return models.ChatView{}, err
	}
	if err := s.chats.AddMember(ctx, chatID, newUserID); err != nil {
		return models.ChatView{}, err
	}
	view, err := s.buildView(ctx, chat)
	if err != nil {
		return models.ChatView{}, err
	}

	var rest []int
	for _, id := range memberIDsOf(view) {
		if id != newUserID {
			rest = append(rest, id)
		}
	}
	s.hub.SendToUser(ws.NewChatEvent(view), newUserID)
	s.hub.SendToMany(ws.ChatUpdatedEvent(view), rest)
	return view, nil
}

// RemoveMember removes a user from a chat. The removed user sees the chat
// disappear; the rest see a membership update. Removing the last member
// deletes the chat.
func (s *ChatService) RemoveMember(ctx context.Context, chatID, actorID, targetID int) error {
	chat, err := s.requireChatMember(ctx, chatID, actorID)
	if err != nil {
		return err
	}
	target, err := s.chats.IsMember(ctx, chatID, targetID)
	if err != nil {
		return err
	}
	if !target {
		return fmt.Errorf("%w: user %d is not a member of chat %d", ErrNotFound, targetID, chatID)
	}

	remaining, err := s.chats.RemoveMember(ctx, chatID, targetID)
	if err != nil {
		return err
	}
	s.hub.SendToUser(ws.Event{Type: ws.EventChatDeleted, Data: ws.ChatDeletedData{ChatID: chatID}}, targetID)

	if remaining == 0 {
		if err := s.chats.DeleteChat(ctx, chatID); err != nil && !errors.Is(err, repositories.ErrChatNotFound) {
			return err
		}
		return nil
	}
	view, err := s.buildView(ctx, chat)
	if err != nil {
		return err
	}
	s.hub.SendToMany(ws.ChatUpdatedEvent(view), memberIDsOf(view))
	return nil
}

// DeleteChat removes a chat and all its messages, then tells every former
// member it is gone.
func (s *ChatService) DeleteChat(ctx context.Context, chatID, actorID int) error {
	if _, err := s.requireChatMember(ctx, chatID, actorID); err != nil {
		return err
	}
	memberIDs, err := s.chats.MemberIDs(ctx, chatID)
	if err != nil {
		return err
	}
	if err := s.chats.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return err
	}
	s.hub.SendToMany(ws.Event{Type: ws.EventChatDeleted, Data: ws.ChatDeletedData{ChatID: chatID}}, memberIDs)
	return nil
}

// Typing relays a typing indicator to every other member of the chat.
func (s *ChatService) Typing(ctx context.Context, chatID, userID int, isTyping bool) error {
	member, err := s.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !member {
		return fmt.Errorf("%w: not a member of chat %d", ErrForbidden, chatID)
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	memberIDs, err := s.chats.MemberIDs(ctx, chatID)
	if err != nil {
		return err
	}
	var others []int
	for _, id := range memberIDs {
		if id != userID {
			others = append(others, id)
		}
	}
	s.hub.SendToMany(ws.Event{Type: ws.EventTyping, Data: ws.TypingData{
		ChatID:   chatID,
		UserID:   userID,
		Username: user.Username,
		IsTyping: isTyping,
	}}, others)
	return nil
}

func (s *ChatService) announceNewChat(ctx context.Context, chat models.Chat) (models.ChatView, error) {
	view, err := s.buildView(ctx, chat)
	if err != nil {
		return models.ChatView{}, err
	}
	s.hub.SendToMany(ws.NewChatEvent(view), memberIDsOf(view))
	return view, nil
}

func (s *ChatService) requireChatMember(ctx context.Context, chatID, userID int) (models.Chat, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			return models.Chat{}, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
		}
		return models.Chat{}, err
	}
	member, err := s.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return models.Chat{}, err
	}
	if !member {
		return models.Chat{}, fmt.Errorf("%w: not a member of chat %d", ErrForbidden, chatID)
	}
	return chat, nil
}

func (s *ChatService) requireUser(ctx context.Context, userID int) error {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return err
	}
	return nil
}

func (s *ChatService) buildView(ctx context.Context, chat models.Chat) (models.ChatView, error) {
	members, err := s.chats.Members(ctx, chat.ID)
	if err != nil {
		return models.ChatView{}, err
	}
	view := models.ChatView{Chat: chat, Members: members}

	last, found, err := s.messages.LastMessage(ctx, chat.ID)
	if err != nil {
		return models.ChatView{}, err
	}
	if !found {
		return view, nil
	}

	preview := models.MessageView{Message: last}
	for _, m := range members {
		if m.ID == last.SenderID {
			preview.Sender = m
			break
		}
	}
	if preview.Sender.ID == 0 {
		sender, err := s.users.GetUser(ctx, last.SenderID)
		if err == nil {
			preview.Sender = sender.Ref()
		} else if !errors.Is(err, repositories.ErrUserNotFound) {
			return models.ChatView{}, err
		}
	}
	if last.FileID != nil {
		file, err := s.files.GetFile(ctx, *last.FileID)
		if err == nil {
			preview.File = &file
		} else if !errors.Is(err, repositories.ErrFileNotFound) {
			return models.ChatView{}, err
		}
	}
	view.LastMessage = &preview
	return view, nil
}

func memberIDsOf(view models.ChatView) []int {
	ids := make([]int, 0, len(view.Members))
	for _, m := range view.Members {
		ids = append(ids, m.ID)
	}
	return ids
}
