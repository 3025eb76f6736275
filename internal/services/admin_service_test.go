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
	"messenger-service/internal/telemetry"
)

type adminServiceFixture struct {
	users     *mocks.UserRepositoryMock
	chats     *mocks.ChatRepositoryMock
	messages  *mocks.MessageRepositoryMock
	files     *mocks.FileRepositoryMock
	uploads   *mocks.BlobStoreMock
	avatars   *mocks.BlobStoreMock
	publisher *mocks.PublisherMock
	svc       *AdminService
}

func newAdminServiceFixture() *adminServiceFixture {
	f := &adminServiceFixture{
		users:     new(mocks.UserRepositoryMock),
		chats:     new(mocks.ChatRepositoryMock),
		messages:  new(mocks.MessageRepositoryMock),
		files:     new(mocks.FileRepositoryMock),
		uploads:   new(mocks.BlobStoreMock),
		avatars:   new(mocks.BlobStoreMock),
		publisher: new(mocks.PublisherMock),
	}
	log := zap.NewNop().Sugar()
	audit := telemetry.NewAuditEmitter(f.publisher, "audit.messenger", "messenger-service", "test", log)
	f.svc = NewAdminService(f.users, f.chats, f.messages, f.files, f.uploads, f.avatars, audit, log)
	return f
}

func TestWipeRequiresAdmin(t *testing.T) {
	f := newAdminServiceFixture()
	f.users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsAdmin: false}, nil)

	err := f.svc.Wipe(context.Background(), 1, "req-1")
	assert.ErrorIs(t, err, ErrForbidden)
	f.messages.AssertNotCalled(t, "DeleteAllMessages", mock.Anything)
}

func TestWipeClearsEverythingAndAudits(t *testing.T) {
	f := newAdminServiceFixture()
	f.users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsAdmin: true}, nil)
	f.messages.On("ClearAttachments", mock.Anything).Return(nil).Once()
	f.files.On("ListAllPaths", mock.Anything).Return([]string{"a.bin", "b.bin"}, nil)
	f.uploads.On("Remove", "a.bin").Return(nil).Once()
	f.uploads.On("Remove", "b.bin").Return(nil).Once()
	f.files.On("DeleteAllFiles", mock.Anything).Return(nil).Once()
	f.messages.On("DeleteAllMessages", mock.Anything).Return(nil).Once()
	f.chats.On("DeleteAllChats", mock.Anything).Return(nil).Once()
	f.users.On("ClearAllAvatars", mock.Anything).Return(nil).Once()
	f.avatars.On("RemoveAll").Return(nil).Once()
	f.publisher.On("PublishJSON", mock.Anything, "audit.messenger", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(t, f.svc.Wipe(context.Background(), 1, "req-1"))
	f.uploads.AssertExpectations(t)
	f.avatars.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}
