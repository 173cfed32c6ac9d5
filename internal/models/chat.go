package models

import (
	"time"

	"github.com/google/uuid"
)

// QuestMessage is one row of the append-only quest_messages table. Messages
// are never updated or deleted; sent_at is the ordering key.
type QuestMessage struct {
	ID          uuid.UUID `json:"message_id"`
	QuestID     uuid.UUID `json:"quest_id"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	MessageText string    `json:"message_text"`
	SentAt      time.Time `json:"sent_at"`
}
