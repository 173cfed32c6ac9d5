package services

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// CreateQuest inserts the quest and its owner membership row in a single
// transaction. A failure after the quest insert rolls everything back so no
// quest can exist without an owner row.
func CreateQuest(creatorID string, q *models.Quest) (*models.Quest, error) {
	parsedID, err := uuid.Parse(creatorID)
	if err != nil {
		return nil, ErrNotFound
	}

	tx, err := database.PostgresDB.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin quest tx: %w", err)
	}
	defer tx.Rollback()

	if q.Status == "" {
		q.Status = models.QuestActive
	}
	q.CreatedBy = parsedID

	err = tx.QueryRow(`
		INSERT INTO quests (quest_name, description, duration, checkin_frequency, checkin_time,
			icon_id, start_date, end_date, category_id, created_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`, q.QuestName, q.Description, q.Duration, q.CheckinFrequency, q.CheckinTime,
		q.IconID, q.StartDate, q.EndDate, q.CategoryID, parsedID, q.Status,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quest: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO user_quests (user_id, quest_id, role, status)
		VALUES ($1, $2, 'owner', 'active')
	`, parsedID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit quest tx: %w", err)
	}
	return q, nil
}

const questColumns = `id, created_at, updated_at, quest_name, COALESCE(description, ''),
	COALESCE(duration, ''), COALESCE(checkin_frequency, ''), COALESCE(checkin_time, ''),
	COALESCE(icon_id, 0), COALESCE(start_date::text, ''), COALESCE(end_date::text, ''),
	COALESCE(category_id, 0), created_by, status`

func scanQuest(row interface{ Scan(...interface{}) error }) (*models.Quest, error) {
	var q models.Quest
	err := row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt, &q.QuestName, &q.Description,
		&q.Duration, &q.CheckinFrequency, &q.CheckinTime, &q.IconID,
		&q.StartDate, &q.EndDate, &q.CategoryID, &q.CreatedBy, &q.Status)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetQuests returns all quests.
func GetQuests() ([]models.Quest, error) {
	rows, err := database.PostgresDB.Query(`SELECT ` + questColumns + ` FROM quests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quests := []models.Quest{}
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, err
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

// GetQuestByID returns a single quest.
func GetQuestByID(questID string) (*models.Quest, error) {
	parsedID, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	q, err := scanQuest(database.PostgresDB.QueryRow(`SELECT `+questColumns+` FROM quests WHERE id = $1`, parsedID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// isQuestOwner reports whether the user holds the owner membership row.
func isQuestOwner(userID, questID uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM user_quests WHERE user_id = $1 AND quest_id = $2 AND role = 'owner')
	`, userID, questID).Scan(&exists)
	return exists, err
}

// UpdateQuest updates quest fields. Only the owner may update; a non-owner
// gets ErrForbidden, a missing quest ErrNotFound.
func UpdateQuest(callerID, questID string, q *models.Quest) (*models.Quest, error) {
	parsedCaller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}

	owner, err := isQuestOwner(parsedCaller, parsedQuest)
	if err != nil {
		return nil, err
	}
	if !owner {
		// Distinguish a missing quest from a wrong actor.
		if _, err := GetQuestByID(questID); err != nil {
			return nil, err
		}
		return nil, ErrForbidden
	}

	updated, err := scanQuest(database.PostgresDB.QueryRow(`
		UPDATE quests SET quest_name = $1, description = $2, duration = $3,
			checkin_frequency = $4, checkin_time = $5, icon_id = $6,
			start_date = $7, end_date = $8, category_id = $9, status = $10,
			updated_at = NOW()
		WHERE id = $11
		RETURNING `+questColumns,
		q.QuestName, q.Description, q.Duration, q.CheckinFrequency, q.CheckinTime,
		q.IconID, q.StartDate, q.EndDate, q.CategoryID, q.Status, parsedQuest))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

// DeleteQuest removes a quest. Only the owner may delete it; membership and
// message rows cascade.
func DeleteQuest(callerID, questID string) error {
	parsedCaller, err := uuid.Parse(callerID)
	if err != nil {
		return ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return ErrNotFound
	}

	owner, err := isQuestOwner(parsedCaller, parsedQuest)
	if err != nil {
		return err
	}
	if !owner {
		if _, err := GetQuestByID(questID); err != nil {
			return err
		}
		return ErrForbidden
	}

	res, err := database.PostgresDB.Exec(`DELETE FROM quests WHERE id = $1`, parsedQuest)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetQuestOwner returns the public identity of the quest's owner.
func GetQuestOwner(questID string) (*models.QuestParticipant, error) {
	parsedID, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	var p models.QuestParticipant
	err = database.PostgresDB.QueryRow(`
		SELECT u.id, u.username, COALESCE(u.fullname, '')
		FROM users u
		JOIN user_quests uq ON u.id = uq.user_id
		WHERE uq.quest_id = $1 AND uq.role = 'owner'
	`, parsedID).Scan(&p.UserID, &p.Username, &p.Fullname)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetQuestParticipants returns everyone holding a membership row for the quest.
func GetQuestParticipants(questID string) ([]models.QuestParticipant, error) {
	parsedID, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := database.PostgresDB.Query(`
		SELECT u.id, u.username, COALESCE(u.fullname, '')
		FROM users u
		JOIN user_quests uq ON u.id = uq.user_id
		WHERE uq.quest_id = $1
		ORDER BY uq.joined_at ASC
	`, parsedID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := []models.QuestParticipant{}
	for rows.Next() {
		var p models.QuestParticipant
		if err := rows.Scan(&p.UserID, &p.Username, &p.Fullname); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
