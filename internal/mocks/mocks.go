package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUsersByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SearchUsers(ctx context.Context, query string, excludeUserID int) ([]models.User, error) {
	args := m.Called(ctx, query, excludeUserID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

func (m *UserRepositoryMock) SetAvatar(ctx context.Context, userID int, avatarPath *string) error {
	args := m.Called(ctx, userID, avatarPath)
	return args.Error(0)
}

func (m *UserRepositoryMock) ClearAllAvatars(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, name *string, isGroup bool, creatorID int, memberIDs []int) (models.Chat, error) {
	args := m.Called(ctx, name, isGroup, creatorID, memberIDs)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) FindDirectChat(ctx context.Context, userID, otherID int) (models.Chat, bool, error) {
	args := m.Called(ctx, userID, otherID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Bool(1), args.Error(2)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []models.Chat
	if val := args.Get(0); val != nil {
		chats = val.([]models.Chat)
	}
	return chats, args.Error(1)
}

func (m *ChatRepositoryMock) IsMember(ctx context.Context, chatID, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	args := m.Called(ctx, chatID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ChatRepositoryMock) Members(ctx context.Context, chatID int) ([]models.UserRef, error) {
	args := m.Called(ctx, chatID)
	var members []models.UserRef
	if val := args.Get(0); val != nil {
		members = val.([]models.UserRef)
	}
	return members, args.Error(1)
}

func (m *ChatRepositoryMock) AddMember(ctx context.Context, chatID, userID int) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) RemoveMember(ctx context.Context, chatID, userID int) (int, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Int(0), args.Error(1)
}

func (m *ChatRepositoryMock) UpdateChat(ctx context.Context, chatID int, name, avatarPath *string) (models.Chat, error) {
	args := m.Called(ctx, chatID, name, avatarPath)
	var chat models.Chat
	if val := args.Get(0); val != nil {
		chat = val.(models.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) DeleteChat(ctx context.Context, chatID int) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

func (m *ChatRepositoryMock) DeleteAllChats(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID, senderID int, text *string, fileID, replyToID *int) (models.Message, error) {
	args := m.Called(ctx, chatID, senderID, text, fileID, replyToID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID, offset, limit int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, offset, limit)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) LastMessage(ctx context.Context, chatID int) (models.Message, bool, error) {
	args := m.Called(ctx, chatID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID int) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) CreateRead(ctx context.Context, messageID, userID int) (models.MessageRead, bool, error) {
	args := m.Called(ctx, messageID, userID)
	var read models.MessageRead
	if val := args.Get(0); val != nil {
		read = val.(models.MessageRead)
	}
	return read, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) ClearAttachments(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteAllMessages(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) GetReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, bool, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Bool(1), args.Error(2)
}

func (m *ReactionRepositoryMock) ListUserReactions(ctx context.Context, messageID, userID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID, userID)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

func (m *ReactionRepositoryMock) CreateReaction(ctx context.Context, messageID, userID int, emoji string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *ReactionRepositoryMock) DeleteReaction(ctx context.Context, reactionID int) error {
	args := m.Called(ctx, reactionID)
	return args.Error(0)
}

type FileRepositoryMock struct {
	mock.Mock
}

func (m *FileRepositoryMock) CreateFile(ctx context.Context, filename, path, mimeType string, size int64) (models.File, error) {
	args := m.Called(ctx, filename, path, mimeType, size)
	var file models.File
	if val := args.Get(0); val != nil {
		file = val.(models.File)
	}
	return file, args.Error(1)
}

func (m *FileRepositoryMock) GetFile(ctx context.Context, fileID int) (models.File, error) {
	args := m.Called(ctx, fileID)
	var file models.File
	if val := args.Get(0); val != nil {
		file = val.(models.File)
	}
	return file, args.Error(1)
}

func (m *FileRepositoryMock) DeleteFile(ctx context.Context, fileID int) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

func (m *FileRepositoryMock) ListAllPaths(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var paths []string
	if val := args.Get(0); val != nil {
		paths = val.([]string)
	}
	return paths, args.Error(1)
}

func (m *FileRepositoryMock) DeleteAllFiles(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
var _ repositories.FileRepository = (*FileRepositoryMock)(nil)
