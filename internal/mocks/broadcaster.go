package mocks

import (
	"github.com/stretchr/testify/mock"

	"messenger-service/internal/ws"
)

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) SendToUser(event ws.Event, userID int) {
	m.Called(event, userID)
}

func (m *BroadcasterMock) SendToMany(event ws.Event, userIDs []int) {
	m.Called(event, userIDs)
}

func (m *BroadcasterMock) BroadcastToAll(event ws.Event) {
	m.Called(event)
}

var _ ws.Broadcaster = (*BroadcasterMock)(nil)
