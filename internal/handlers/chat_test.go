package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
)

type chatHandlerFixture struct {
	chats       *mocks.ChatRepositoryMock
	users       *mocks.UserRepositoryMock
	messages    *mocks.MessageRepositoryMock
	files       *mocks.FileRepositoryMock
	broadcaster *mocks.BroadcasterMock
	router      *gin.Engine
}

func newChatHandlerFixture() *chatHandlerFixture {
	gin.SetMode(gin.TestMode)
	f := &chatHandlerFixture{
		chats:       new(mocks.ChatRepositoryMock),
		users:       new(mocks.UserRepositoryMock),
		messages:    new(mocks.MessageRepositoryMock),
		files:       new(mocks.FileRepositoryMock),
		broadcaster: new(mocks.BroadcasterMock),
	}
	svc := services.NewChatService(f.chats, f.users, f.messages, f.files, f.broadcaster, zap.NewNop().Sugar())
	handler := NewChatHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/chats", handler.ListChats)
	r.POST("/chats", handler.CreateChat)
	r.GET("/chats/:chat_id", handler.GetChat)
	r.DELETE("/chats/:chat_id", handler.DeleteChat)
	f.router = r
	return f
}

func TestListChatsSuccess(t *testing.T) {
	f := newChatHandlerFixture()
	f.chats.On("ListChatsForUser", mock.Anything, 1).Return([]models.Chat{{ID: 7}}, nil)
	f.chats.On("Members", mock.Anything, 7).Return([]models.UserRef{{ID: 1}, {ID: 2}}, nil)
	f.messages.On("LastMessage", mock.Anything, 7).Return(models.Message{}, false, nil)

	req := httptest.NewRequest(http.MethodGet, "/chats", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []models.ChatView `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, 7, resp.Chats[0].ID)
}

func TestCreateDirectChatReturnsCreated(t *testing.T) {
	f := newChatHandlerFixture()
	f.users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	f.chats.On("FindDirectChat", mock.Anything, 1, 2).Return(models.Chat{}, false, nil)
	f.chats.On("CreateChat", mock.Anything, (*string)(nil), false, 1, []int{2}).Return(models.Chat{ID: 8}, nil)
	f.chats.On("Members", mock.Anything, 8).Return([]models.UserRef{{ID: 1}, {ID: 2}}, nil)
	f.messages.On("LastMessage", mock.Anything, 8).Return(models.Message{}, false, nil)
	f.broadcaster.On("SendToMany", mock.Anything, []int{1, 2})

	body, _ := json.Marshal(map[string]any{"recipient_id": 2})
	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateDirectChatWithSelfIsBadRequest(t *testing.T) {
	f := newChatHandlerFixture()

	body, _ := json.Marshal(map[string]any{"recipient_id": 1})
	req := httptest.NewRequest(http.MethodPost, "/chats", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetChatMissingIsNotFound(t *testing.T) {
	f := newChatHandlerFixture()
	f.chats.On("GetChat", mock.Anything, 99).Return(models.Chat{}, repositories.ErrChatNotFound)

	req := httptest.NewRequest(http.MethodGet, "/chats/99", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetChatAsNonMemberIsForbidden(t *testing.T) {
	f := newChatHandlerFixture()
	f.chats.On("GetChat", mock.Anything, 7).Return(models.Chat{ID: 7}, nil)
	f.chats.On("IsMember", mock.Anything, 7, 1).Return(false, nil)

	req := httptest.NewRequest(http.MethodGet, "/chats/7", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetChatBadIDIsBadRequest(t *testing.T) {
	f := newChatHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/chats/abc", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
