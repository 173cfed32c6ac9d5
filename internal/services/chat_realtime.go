package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ChatEvent is the enriched message fanned out to every open connection.
// Fan-out is process-wide; clients filter by questId on their side.
type ChatEvent struct {
	QuestID     string    `json:"questId"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	MessageText string    `json:"message_text"`
	SentAt      time.Time `json:"sent_at"`
}

// ChatConn is the minimal interface our WebSocket implementation must satisfy.
type ChatConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Connection is one live, authenticated chat connection. Writes are
// serialized through its mutex since error frames from the read loop and
// broadcast fan-out run on different goroutines.
type Connection struct {
	UserID string

	mu   sync.Mutex
	conn ChatConn
}

// WriteJSON writes a frame to the underlying connection, one writer at a time.
func (c *Connection) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// ChatHub is the process-wide registry of open connections. Connections are
// added on open and removed on close from independent goroutines while
// broadcast iterates, so all access goes through the lock and broadcast
// works on a snapshot.
type ChatHub struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

var chatHub = &ChatHub{connections: make(map[*Connection]struct{})}

// RegisterConnection adds an authenticated connection to the fan-out set.
func RegisterConnection(userID string, conn ChatConn) *Connection {
	c := &Connection{UserID: userID, conn: conn}

	chatHub.mu.Lock()
	chatHub.connections[c] = struct{}{}
	chatHub.mu.Unlock()

	return c
}

// UnregisterConnection removes a connection from the fan-out set.
func UnregisterConnection(c *Connection) {
	chatHub.mu.Lock()
	delete(chatHub.connections, c)
	chatHub.mu.Unlock()
}

// OpenConnections returns the number of currently registered connections.
func OpenConnections() int {
	chatHub.mu.RLock()
	defer chatHub.mu.RUnlock()
	return len(chatHub.connections)
}

// BroadcastChatEvent delivers an event to every open connection. Iteration
// runs over a snapshot so a connection closing mid-broadcast cannot break
// it; a failed write only loses that one recipient.
func BroadcastChatEvent(event ChatEvent) {
	chatHub.mu.RLock()
	snapshot := make([]*Connection, 0, len(chatHub.connections))
	for c := range chatHub.connections {
		snapshot = append(snapshot, c)
	}
	chatHub.mu.RUnlock()

	for _, c := range snapshot {
		if err := c.WriteJSON(event); err != nil {
			log.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to write chat event")
		}
	}
}

// CloseAllConnections closes every registered connection (shutdown path).
func CloseAllConnections() {
	chatHub.mu.Lock()
	conns := make([]*Connection, 0, len(chatHub.connections))
	for c := range chatHub.connections {
		conns = append(conns, c)
	}
	chatHub.connections = make(map[*Connection]struct{})
	chatHub.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
}
