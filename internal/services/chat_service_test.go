package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/ws"
)

type chatServiceFixture struct {
	chats       *mocks.ChatRepositoryMock
	users       *mocks.UserRepositoryMock
	messages    *mocks.MessageRepositoryMock
	files       *mocks.FileRepositoryMock
	broadcaster *mocks.BroadcasterMock
	svc         *ChatService
}

func newChatServiceFixture() *chatServiceFixture {
	f := &chatServiceFixture{
		chats:       new(mocks.ChatRepositoryMock),
		users:       new(mocks.UserRepositoryMock),
		messages:    new(mocks.MessageRepositoryMock),
		files:       new(mocks.FileRepositoryMock),
		broadcaster: new(mocks.BroadcasterMock),
	}
	f.svc = NewChatService(f.chats, f.users, f.messages, f.files, f.broadcaster, zap.NewNop().Sugar())
	return f
}

func (f *chatServiceFixture) expectView(chatID int, members []models.UserRef) {
	f.chats.On("Members", mock.Anything, chatID).Return(members, nil)
	f.messages.On("LastMessage", mock.Anything, chatID).Return(models.Message{}, false, nil)
}

func TestCreateDirectChatReusesExisting(t *testing.T) {
	f := newChatServiceFixture()
	recipient := 2
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	f.chats.On("FindDirectChat", mock.Anything, 1, 2).Return(models.Chat{ID: 7}, true, nil)
	f.expectView(7, []models.UserRef{{ID: 1}, {ID: 2}})

	view, err := f.svc.CreateChat(context.Background(), 1, CreateChatParams{RecipientID: &recipient})
	require.NoError(t, err)
	assert.Equal(t, 7, view.ID)

	f.chats.AssertNotCalled(t, "CreateChat", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.broadcaster.AssertNotCalled(t, "SendToMany", mock.Anything, mock.Anything)
}

func TestCreateDirectChatAnnouncesNewChat(t *testing.T) {
	f := newChatServiceFixture()
	recipient := 2
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	f.chats.On("FindDirectChat", mock.Anything, 1, 2).Return(models.Chat{}, false, nil)
	f.chats.On("CreateChat", mock.Anything, (*string)(nil), false, 1, []int{2}).Return(models.Chat{ID: 8}, nil).Once()
	f.expectView(8, []models.UserRef{{ID: 1}, {ID: 2}})
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventNewChat
	}), []int{1, 2}).Once()

	view, err := f.svc.CreateChat(context.Background(), 1, CreateChatParams{RecipientID: &recipient})
	require.NoError(t, err)
	assert.Equal(t, 8, view.ID)
	f.chats.AssertExpectations(t)
	f.broadcaster.AssertExpectations(t)
}

func TestCreateDirectChatWithSelfRejected(t *testing.T) {
	f := newChatServiceFixture()
	self := 1

	_, err := f.svc.CreateChat(context.Background(), 1, CreateChatParams{RecipientID: &self})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateGroupChatNeedsMembers(t *testing.T) {
	f := newChatServiceFixture()

	_, err := f.svc.CreateChat(context.Background(), 1, CreateChatParams{IsGroup: true})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateGroupChatAnnouncesToEveryMember(t *testing.T) {
	f := newChatServiceFixture()
	name := "team"
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil)
	f.users.On("GetUser", mock.Anything, 3).Return(models.User{ID: 3}, nil)
	f.chats.On("CreateChat", mock.Anything, &name, true, 1, []int{2, 3}).
		Return(models.Chat{ID: 9, Name: &name, IsGroup: true}, nil)
	f.expectView(9, []models.UserRef{{ID: 1}, {ID: 2}, {ID: 3}})
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventNewChat
	}), []int{1, 2, 3}).Once()

	_, err := f.svc.CreateChat(context.Background(), 1, CreateChatParams{Name: &name, IsGroup: true, MemberIDs: []int{2, 3}})
	require.NoError(t, err)
	f.broadcaster.AssertExpectations(t)
}

func TestAddMemberToDirectChatRejected(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(models.Chat{ID: 7, IsGroup: false}, nil)
	f.chats.On("IsMember", mock.Anything, 7, 1).Return(true, nil)

	_, err := f.svc.AddMember(context.Background(), 7, 1, 3)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAddMemberSnapshotToNewcomerUpdateToRest(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("GetChat", mock.Anything, 9).Return(models.Chat{ID: 9, IsGroup: true}, nil)
	f.chats.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	f.users.On("GetUser", mock.Anything, 3).Return(models.User{ID: 3}, nil)
	f.chats.On("AddMember", mock.Anything, 9, 3).Return(nil).Once()
	f.expectView(9, []models.UserRef{{ID: 1}, {ID: 2}, {ID: 3}})
	f.broadcaster.On("SendToUser", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventNewChat
	}), 3).Once()
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventChatUpdated
	}), []int{1, 2}).Once()

	_, err := f.svc.AddMember(context.Background(), 9, 1, 3)
	require.NoError(t, err)
	f.broadcaster.AssertExpectations(t)
}

func TestRemoveMemberNotifiesRemovedAndRest(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("GetChat", mock.Anything, 9).Return(models.Chat{ID: 9, IsGroup: true}, nil)
	f.chats.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	f.chats.On("IsMember", mock.Anything, 9, 3).Return(true, nil)
	f.chats.On("RemoveMember", mock.Anything, 9, 3).Return(2, nil)
	f.expectView(9, []models.UserRef{{ID: 1}, {ID: 2}})
	f.broadcaster.On("SendToUser", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventChatDeleted
	}), 3).Once()
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventChatUpdated
	}), []int{1, 2}).Once()

	require.NoError(t, f.svc.RemoveMember(context.Background(), 9, 1, 3))
	f.broadcaster.AssertExpectations(t)
}

func TestRemoveLastMemberDeletesChat(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("GetChat", mock.Anything, 9).Return(models.Chat{ID: 9, IsGroup: true}, nil)
	f.chats.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	f.chats.On("RemoveMember", mock.Anything, 9, 1).Return(0, nil)
	f.chats.On("DeleteChat", mock.Anything, 9).Return(nil).Once()
	f.broadcaster.On("SendToUser", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventChatDeleted
	}), 1).Once()

	require.NoError(t, f.svc.RemoveMember(context.Background(), 9, 1, 1))
	f.chats.AssertExpectations(t)
	f.broadcaster.AssertNotCalled(t, "SendToMany", mock.Anything, mock.Anything)
}

func TestDeleteChatNotifiesFormerMembers(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("GetChat", mock.Anything, 9).Return(models.Chat{ID: 9, IsGroup: true}, nil)
	f.chats.On("IsMember", mock.Anything, 9, 1).Return(true, nil)
	f.chats.On("MemberIDs", mock.Anything, 9).Return([]int{1, 2}, nil)
	f.chats.On("DeleteChat", mock.Anything, 9).Return(nil)
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventChatDeleted
	}), []int{1, 2}).Once()

	require.NoError(t, f.svc.DeleteChat(context.Background(), 9, 1))
	f.broadcaster.AssertExpectations(t)
}

func TestTypingRelayedToOtherMembersOnly(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("IsMember", mock.Anything, 10, 1).Return(true, nil)
	f.users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	f.chats.On("MemberIDs", mock.Anything, 10).Return([]int{1, 2, 3}, nil)
	f.broadcaster.On("SendToMany", mock.MatchedBy(func(event ws.Event) bool {
		data, ok := event.Data.(ws.TypingData)
		return ok && event.Type == ws.EventTyping && data.Username == "alice" && data.IsTyping
	}), []int{2, 3}).Once()

	require.NoError(t, f.svc.Typing(context.Background(), 10, 1, true))
	f.broadcaster.AssertExpectations(t)
}

func TestTypingByNonMemberForbidden(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("IsMember", mock.Anything, 10, 7).Return(false, nil)

	err := f.svc.Typing(context.Background(), 10, 7, true)
	assert.ErrorIs(t, err, ErrForbidden)
	f.broadcaster.AssertNotCalled(t, "SendToMany", mock.Anything, mock.Anything)
}

func TestListChatsBuildsPreviews(t *testing.T) {
	f := newChatServiceFixture()
	f.chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{{ID: 7}}, nil)
	f.chats.On("Members", mock.Anything, 7).Return([]models.UserRef{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}}, nil)
	f.messages.On("LastMessage", mock.Anything, 7).
		Return(models.Message{ID: 40, ChatID: 7, SenderID: 2, Text: strptr("see you")}, true, nil)

	views, err := f.svc.ListChats(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].LastMessage)
	assert.Equal(t, "bob", views[0].LastMessage.Sender.Username)
	assert.Equal(t, "see you", *views[0].LastMessage.Text)
}
