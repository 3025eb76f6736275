package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/ws"
)

func newUserServiceFixture() (*mocks.UserRepositoryMock, *mocks.BlobStoreMock, *mocks.BroadcasterMock, *UserService) {
	users := new(mocks.UserRepositoryMock)
	avatars := new(mocks.BlobStoreMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := NewUserService(users, avatars, broadcaster, zap.NewNop().Sugar())
	return users, avatars, broadcaster, svc
}

func TestSearchUsersRequiresQuery(t *testing.T) {
	_, _, _, svc := newUserServiceFixture()

	_, err := svc.SearchUsers(context.Background(), "", 1)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSearchUsersReturnsRefs(t *testing.T) {
	users, _, _, svc := newUserServiceFixture()
	users.On("SearchUsers", mock.Anything, "bo", 1).
		Return([]models.User{{ID: 2, Username: "bob", PasswordHash: "secret"}}, nil)

	refs, err := svc.SearchUsers(context.Background(), "bo", 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "bob", refs[0].Username)
}

func TestUpdateAvatarReplacesOldBlobAndBroadcasts(t *testing.T) {
	users, avatars, broadcaster, svc := newUserServiceFixture()
	old := "old-avatar.png"
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice", AvatarPath: &old}, nil)
	avatars.On("Save", mock.Anything, "new.png").Return("new-avatar.png", int64(10), nil)
	users.On("SetAvatar", mock.Anything, 1, mock.MatchedBy(func(p *string) bool {
		return p != nil && *p == "new-avatar.png"
	})).Return(nil)
	avatars.On("Remove", "old-avatar.png").Return(nil).Once()
	broadcaster.On("BroadcastToAll", mock.MatchedBy(func(event ws.Event) bool {
		return event.Type == ws.EventUserUpdated
	})).Once()

	ref, err := svc.UpdateAvatar(context.Background(), 1, strings.NewReader("img"), "new.png")
	require.NoError(t, err)
	require.NotNil(t, ref.AvatarPath)
	assert.Equal(t, "new-avatar.png", *ref.AvatarPath)
	avatars.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestDeleteAvatarWithoutOneIsNoop(t *testing.T) {
	users, _, broadcaster, svc := newUserServiceFixture()
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)

	_, err := svc.DeleteAvatar(context.Background(), 1)
	require.NoError(t, err)
	broadcaster.AssertNotCalled(t, "BroadcastToAll", mock.Anything)
}
