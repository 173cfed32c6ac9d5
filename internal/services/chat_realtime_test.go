package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatConn records frames written to it.
type fakeChatConn struct {
	mu       sync.Mutex
	frames   []interface{}
	writeErr error
	closed   bool
}

func (f *fakeChatConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.frames = append(f.frames, v)
	return nil
}

func (f *fakeChatConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChatConn) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeChatConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestBroadcastReachesAllConnections(t *testing.T) {
	t.Cleanup(CloseAllConnections)

	a := &fakeChatConn{}
	b := &fakeChatConn{}
	RegisterConnection("user-a", a)
	RegisterConnection("user-b", b)
	require.Equal(t, 2, OpenConnections())

	event := ChatEvent{
		QuestID:     "quest-1",
		UserID:      "user-a",
		Username:    "alice",
		MessageText: "hello",
		SentAt:      time.Now(),
	}
	BroadcastChatEvent(event)

	assert.Equal(t, 1, a.frameCount())
	assert.Equal(t, 1, b.frameCount())
	assert.Equal(t, event, a.frames[0])
}

func TestUnregisteredConnectionStopsReceiving(t *testing.T) {
	t.Cleanup(CloseAllConnections)

	a := &fakeChatConn{}
	b := &fakeChatConn{}
	ca := RegisterConnection("user-a", a)
	RegisterConnection("user-b", b)

	UnregisterConnection(ca)
	require.Equal(t, 1, OpenConnections())

	BroadcastChatEvent(ChatEvent{QuestID: "quest-1", MessageText: "bye"})

	assert.Equal(t, 0, a.frameCount())
	assert.Equal(t, 1, b.frameCount())
}

func TestBroadcastSurvivesFailedWrite(t *testing.T) {
	t.Cleanup(CloseAllConnections)

	broken := &fakeChatConn{writeErr: errors.New("write: broken pipe")}
	healthy := &fakeChatConn{}
	RegisterConnection("user-a", broken)
	RegisterConnection("user-b", healthy)

	BroadcastChatEvent(ChatEvent{QuestID: "quest-1", MessageText: "still here"})

	assert.Equal(t, 1, healthy.frameCount())
}

func TestCloseAllConnections(t *testing.T) {
	a := &fakeChatConn{}
	b := &fakeChatConn{}
	RegisterConnection("user-a", a)
	RegisterConnection("user-b", b)

	CloseAllConnections()

	assert.Equal(t, 0, OpenConnections())
	assert.True(t, a.isClosed())
	assert.True(t, b.isClosed())
}

func TestConcurrentRegisterBroadcastUnregister(t *testing.T) {
	t.Cleanup(CloseAllConnections)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := RegisterConnection("user", &fakeChatConn{})
			BroadcastChatEvent(ChatEvent{QuestID: "quest-1", MessageText: "race"})
			UnregisterConnection(c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, OpenConnections())
}
