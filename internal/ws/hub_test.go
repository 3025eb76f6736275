package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSocket records everything written to it and can be told to fail.
type fakeSocket struct {
	mu     sync.Mutex
	events []Event
	fail   bool
	closed bool
}

func (f *fakeSocket) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("write on dead socket")
	}
	if event, ok := v.(Event); ok {
		f.events = append(f.events, event)
	}
	return nil
}

func (f *fakeSocket) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) recorded() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeSocket) statusEvents() []UserStatusData {
	var out []UserStatusData
	for _, event := range f.recorded() {
		if event.Type == EventUserStatus {
			out = append(out, event.Data.(UserStatusData))
		}
	}
	return out
}

func newTestHub() *Hub {
	return NewHub(zap.NewNop().Sugar())
}

func TestHubFirstConnectionBroadcastsOnline(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	observer := NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2})
	hub.Register(2, observer)

	conn := NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1})
	hub.Register(1, conn)

	statuses := observerSock.statusEvents()
	require.Len(t, statuses, 1)
	assert.Equal(t, 1, statuses[0].UserID)
	assert.Equal(t, StatusOnline, statuses[0].Status)
	assert.True(t, statuses[0].Online)
}

func TestHubSecondConnectionDoesNotRebroadcast(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	hub.Register(1, NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1}))
	hub.Register(1, NewConn(&fakeSocket{}, ConnInfo{ConnID: "b", UserID: 1}))

	require.Len(t, observerSock.statusEvents(), 1, "same aggregate status must not rebroadcast")
}

func TestHubAwayOnlyWhenEveryConnectionAway(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	c1 := NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1})
	c2 := NewConn(&fakeSocket{}, ConnInfo{ConnID: "b", UserID: 1})
	hub.Register(1, c1)
	hub.Register(1, c2)

	hub.SetExplicitStatus(1, c1, StatusAway)
	require.Len(t, observerSock.statusEvents(), 1, "user is still online through the second connection")

	hub.SetExplicitStatus(1, c2, StatusAway)
	statuses := observerSock.statusEvents()
	require.Len(t, statuses, 2)
	assert.Equal(t, StatusAway, statuses[1].Status)
	assert.True(t, statuses[1].Online, "away still counts as reachable")
}

func TestHubInvalidExplicitStatusIgnored(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	c := NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1})
	hub.Register(1, c)

	hub.SetExplicitStatus(1, c, Status("offline"))
	hub.SetExplicitStatus(1, c, Status("bogus"))

	require.Len(t, observerSock.statusEvents(), 1, "invalid statuses must be dropped")
	assert.Equal(t, map[int]Status{1: StatusOnline, 2: StatusOnline}, hub.OnlineUsers())
}

func TestHubLastDisconnectBroadcastsOffline(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	c1 := NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1})
	c2 := NewConn(&fakeSocket{}, ConnInfo{ConnID: "b", UserID: 1})
	hub.Register(1, c1)
	hub.Register(1, c2)

	hub.Deregister(1, c1)
	require.Len(t, observerSock.statusEvents(), 1, "user remains online on one connection")

	hub.Deregister(1, c2)
	statuses := observerSock.statusEvents()
	require.Len(t, statuses, 2)
	assert.Equal(t, StatusOffline, statuses[1].Status)
	assert.False(t, statuses[1].Online)
	assert.NotContains(t, hub.OnlineUsers(), 1)
}

func TestHubDeregisterIdempotent(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	c := NewConn(&fakeSocket{}, ConnInfo{ConnID: "a", UserID: 1})
	hub.Register(1, c)
	hub.Deregister(1, c)
	hub.Deregister(1, c)

	require.Len(t, observerSock.statusEvents(), 2, "double deregister must not double-broadcast")
}

func TestDispatcherEvictsDeadConnections(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	deadSock := &fakeSocket{fail: true}
	liveSock := &fakeSocket{}
	dead := NewConn(deadSock, ConnInfo{ConnID: "dead", UserID: 1})
	live := NewConn(liveSock, ConnInfo{ConnID: "live", UserID: 1})
	hub.Register(1, dead)
	hub.Register(1, live)

	hub.SendToUser(Event{Type: EventTyping, Data: TypingData{ChatID: 5}}, 1)

	assert.True(t, deadSock.closed, "dead connection must be closed")
	assert.Len(t, hub.registry.Snapshot(1), 1, "dead connection must leave the registry")

	var typed int
	for _, event := range liveSock.recorded() {
		if event.Type == EventTyping {
			typed++
		}
	}
	assert.Equal(t, 1, typed, "live connection still receives the event")
	require.Len(t, observerSock.statusEvents(), 1, "user stays online through the live connection")
}

func TestDispatcherEvictionConvergesToOffline(t *testing.T) {
	hub := newTestHub()

	observerSock := &fakeSocket{}
	hub.Register(2, NewConn(observerSock, ConnInfo{ConnID: "obs", UserID: 2}))

	deadSock := &fakeSocket{fail: true}
	hub.Register(1, NewConn(deadSock, ConnInfo{ConnID: "dead", UserID: 1}))

	hub.SendToUser(Event{Type: EventTyping, Data: TypingData{ChatID: 5}}, 1)

	statuses := observerSock.statusEvents()
	require.Len(t, statuses, 2, "losing the last connection must broadcast offline")
	assert.Equal(t, StatusOffline, statuses[1].Status)
	assert.NotContains(t, hub.OnlineUsers(), 1)
}

func TestHubBroadcastToAll(t *testing.T) {
	hub := newTestHub()

	s1 := &fakeSocket{}
	s2 := &fakeSocket{}
	hub.Register(1, NewConn(s1, ConnInfo{ConnID: "a", UserID: 1}))
	hub.Register(2, NewConn(s2, ConnInfo{ConnID: "b", UserID: 2}))

	hub.BroadcastToAll(Event{Type: EventUserUpdated})

	for _, sock := range []*fakeSocket{s1, s2} {
		var seen bool
		for _, event := range sock.recorded() {
			if event.Type == EventUserUpdated {
				seen = true
			}
		}
		assert.True(t, seen)
	}
}
