package services

import (
	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// QuestFeedItem is a friend's quest plus the friend's username.
type QuestFeedItem struct {
	models.Quest
	Username string `json:"username"`
}

// GetQuestsFeed returns quests created by the user's active friends that
// were updated in the last 7 days, newest first. The friend set resolves
// both column orderings of the friendships table.
func GetQuestsFeed(userID string) ([]QuestFeedItem, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}

	rows, err := database.PostgresDB.Query(`
		SELECT q.id, q.created_at, q.updated_at, q.quest_name, COALESCE(q.description, ''),
			COALESCE(q.duration, ''), COALESCE(q.checkin_frequency, ''), COALESCE(q.checkin_time, ''),
			COALESCE(q.icon_id, 0), COALESCE(q.start_date::text, ''), COALESCE(q.end_date::text, ''),
			COALESCE(q.category_id, 0), q.created_by, q.status, u.username
		FROM quests q
		JOIN users u ON q.created_by = u.id
		WHERE q.created_by IN (
			SELECT CASE WHEN f.user_id = $1 THEN f.friend_id ELSE f.user_id END
			FROM friendships f
			WHERE (f.user_id = $1 OR f.friend_id = $1) AND f.status = 'active'
		)
		AND q.updated_at >= NOW() - INTERVAL '7 days'
		ORDER BY q.updated_at DESC
	`, parsedUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feed := []QuestFeedItem{}
	for rows.Next() {
		var item QuestFeedItem
		err := rows.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt, &item.QuestName, &item.Description,
			&item.Duration, &item.CheckinFrequency, &item.CheckinTime, &item.IconID,
			&item.StartDate, &item.EndDate, &item.CategoryID, &item.CreatedBy, &item.Status, &item.Username)
		if err != nil {
			return nil, err
		}
		feed = append(feed, item)
	}
	return feed, rows.Err()
}
