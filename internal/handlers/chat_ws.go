package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/questlog-app/questlog-backend/internal/services"
)

// WebSocket close codes for custom error handling.
const (
	CloseTokenMissing   = 4001
	CloseTokenInvalid   = 4002
	CloseMessageInvalid = 4003
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// ChatClientMessage is the inbound chat frame.
type ChatClientMessage struct {
	QuestID     string `json:"questId"`
	UserID      string `json:"user_id"`
	MessageText string `json:"message_text"`
}

type wsError struct {
	Error string `json:"error"`
}

func closeWithCode(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// ChatWebSocket handles real-time quest chat. No Authorization header is
// available at handshake time, so the access token rides in the
// Sec-WebSocket-Protocol field. A missing token closes with 4001, a bad one
// with 4002; malformed frames after that get non-fatal error frames.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get("Sec-WebSocket-Protocol"))
	if i := strings.Index(token, ","); i >= 0 {
		token = strings.TrimSpace(token[:i])
	}

	// Echo the offered sub-protocol so browser clients accept the upgrade.
	var respHeader http.Header
	if token != "" {
		respHeader = http.Header{"Sec-WebSocket-Protocol": []string{token}}
	}

	conn, err := chatUpgrader.Upgrade(w, r, respHeader)
	if err != nil {
		return
	}

	if token == "" {
		closeWithCode(conn, CloseTokenMissing, "Token missing")
		return
	}

	userID, err := services.Tokens.VerifyAccess(token)
	if err != nil {
		closeWithCode(conn, CloseTokenInvalid, "Invalid token")
		return
	}

	c := services.RegisterConnection(userID, conn)
	defer func() {
		services.UnregisterConnection(c)
		_ = conn.Close()
	}()

	// Confirm connection to the client
	if err := c.WriteJSON(map[string]string{"message": "You are connected."}); err != nil {
		return
	}

	conn.SetReadLimit(64 * 1024)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Client or network closed the connection.
			return
		}
		handleIncomingChatMessage(r.Context(), c, data)
	}
}

// handleIncomingChatMessage validates, persists, and broadcasts one frame.
// Failures send an error frame back without closing the connection, and
// broadcast only follows a successful durable write.
func handleIncomingChatMessage(ctx context.Context, c *services.Connection, data []byte) {
	var msg ChatClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		_ = c.WriteJSON(wsError{Error: "Invalid message format"})
		return
	}

	if msg.QuestID == "" || msg.UserID == "" || strings.TrimSpace(msg.MessageText) == "" {
		_ = c.WriteJSON(wsError{Error: "Missing required fields"})
		return
	}

	username, err := services.GetUsernameByID(msg.UserID)
	if err != nil || username == "" {
		log.Error().Err(err).Str("user_id", msg.UserID).Msg("chat: failed to resolve sender")
		_ = c.WriteJSON(wsError{Error: "Failed to fetch user details"})
		return
	}

	saveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	saved, err := services.SaveQuestMessage(saveCtx, msg.QuestID, msg.UserID, msg.MessageText)
	if err != nil {
		log.Error().Err(err).Str("quest_id", msg.QuestID).Msg("chat: failed to store message")
		_ = c.WriteJSON(wsError{Error: "Failed to store message"})
		return
	}

	services.BroadcastChatEvent(services.ChatEvent{
		QuestID:     msg.QuestID,
		UserID:      msg.UserID,
		Username:    username,
		MessageText: msg.MessageText,
		SentAt:      saved.SentAt,
	})
}
