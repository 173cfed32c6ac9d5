package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// SaveQuestMessage appends a message to quest_messages and returns the
// stored row. Broadcast must only follow a successful return.
func SaveQuestMessage(ctx context.Context, questID, userID, text string) (*models.QuestMessage, error) {
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	m := &models.QuestMessage{
		QuestID:     parsedQuest,
		UserID:      parsedUser,
		MessageText: text,
	}
	err = database.PostgresDB.QueryRowContext(ctx, `
		INSERT INTO quest_messages (quest_id, user_id, message_text)
		VALUES ($1, $2, $3)
		RETURNING id, sent_at
	`, parsedQuest, parsedUser, text).Scan(&m.ID, &m.SentAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// LoadQuestMessages returns a quest's full message history oldest-first,
// with each sender's username resolved.
func LoadQuestMessages(ctx context.Context, questID string) ([]models.QuestMessage, error) {
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT m.id, m.quest_id, m.user_id, u.username, m.message_text, m.sent_at
		FROM quest_messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.quest_id = $1
		ORDER BY m.sent_at ASC
	`, parsedQuest)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []models.QuestMessage{}
	for rows.Next() {
		var m models.QuestMessage
		if err := rows.Scan(&m.ID, &m.QuestID, &m.UserID, &m.Username, &m.MessageText, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return msgs, nil
}
