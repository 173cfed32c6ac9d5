package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog-backend/internal/services"
)

func chatTestServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(ChatWebSocket))
	t.Cleanup(srv.Close)
	t.Cleanup(services.CloseAllConnections)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
}

func dialChat(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	if token != "" {
		dialer.Subprotocols = []string{token}
	}
	conn, _, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]string
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func expectClose(t *testing.T, conn *websocket.Conn, code int) {
	t.Helper()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, code), "expected close code %d, got %v", code, err)
}

func TestChatWebSocketMissingToken(t *testing.T) {
	initTestTokens()
	url := chatTestServer(t)

	conn := dialChat(t, url, "")
	expectClose(t, conn, CloseTokenMissing)
}

func TestChatWebSocketInvalidToken(t *testing.T) {
	initTestTokens()
	url := chatTestServer(t)

	conn := dialChat(t, url, "not-a-jwt")
	expectClose(t, conn, CloseTokenInvalid)
}

func TestChatWebSocketExpiredTokenRejected(t *testing.T) {
	initTestTokens()
	url := chatTestServer(t)

	// Tokens from a different signing key fail verification the same way.
	other := services.NewTokenService("some-other-secret", "x")
	access, _, err := other.IssueTokens(uuid.NewString())
	require.NoError(t, err)

	conn := dialChat(t, url, access)
	expectClose(t, conn, CloseTokenInvalid)
}

func TestChatWebSocketConnectAndMalformedFrames(t *testing.T) {
	initTestTokens()
	url := chatTestServer(t)

	access, _, err := services.Tokens.IssueTokens(uuid.NewString())
	require.NoError(t, err)

	conn := dialChat(t, url, access)
	defer conn.Close()

	frame := readJSON(t, conn)
	assert.Equal(t, "You are connected.", frame["message"])

	// Malformed JSON gets an error frame, not a close.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	frame = readJSON(t, conn)
	assert.Equal(t, "Invalid message format", frame["error"])

	// Missing fields likewise.
	require.NoError(t, conn.WriteJSON(ChatClientMessage{QuestID: uuid.NewString()}))
	frame = readJSON(t, conn)
	assert.Equal(t, "Missing required fields", frame["error"])
}

func TestChatWebSocketPersistsThenBroadcasts(t *testing.T) {
	mock := newMockDB(t)
	initTestTokens()
	url := chatTestServer(t)

	senderID := uuid.New()
	questID := uuid.New()
	access, _, err := services.Tokens.IssueTokens(senderID.String())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT username FROM users").WithArgs(senderID).
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))
	mock.ExpectQuery("INSERT INTO quest_messages").
		WithArgs(questID, senderID, "hello party").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sent_at"}).
			AddRow(uuid.New().String(), time.Now()))

	conn := dialChat(t, url, access)
	defer conn.Close()

	frame := readJSON(t, conn)
	require.Equal(t, "You are connected.", frame["message"])

	require.NoError(t, conn.WriteJSON(ChatClientMessage{
		QuestID:     questID.String(),
		UserID:      senderID.String(),
		MessageText: "hello party",
	}))

	// The sender's own connection receives the broadcast.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event services.ChatEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, questID.String(), event.QuestID)
	assert.Equal(t, senderID.String(), event.UserID)
	assert.Equal(t, "alice", event.Username)
	assert.Equal(t, "hello party", event.MessageText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChatWebSocketStoreFailureIsNonFatal(t *testing.T) {
	mock := newMockDB(t)
	initTestTokens()
	url := chatTestServer(t)

	senderID := uuid.New()
	access, _, err := services.Tokens.IssueTokens(senderID.String())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT username FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("alice"))
	mock.ExpectQuery("INSERT INTO quest_messages").
		WillReturnError(assert.AnError)

	conn := dialChat(t, url, access)
	defer conn.Close()

	frame := readJSON(t, conn)
	require.Equal(t, "You are connected.", frame["message"])

	require.NoError(t, conn.WriteJSON(ChatClientMessage{
		QuestID:     uuid.NewString(),
		UserID:      senderID.String(),
		MessageText: "hello party",
	}))

	frame = readJSON(t, conn)
	assert.Equal(t, "Failed to store message", frame["error"])

	// The connection survives for the next frame.
	require.NoError(t, conn.WriteJSON(ChatClientMessage{QuestID: uuid.NewString()}))
	frame = readJSON(t, conn)
	assert.Equal(t, "Missing required fields", frame["error"])
}
