package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// Quest membership state machine. Every transition that expects a prior
// state runs as a conditional UPDATE/DELETE (WHERE status = expected) and
// treats zero affected rows as ErrNotFound, so two racing callers collapse
// to one winner without any in-memory locking.

func questExists(questID uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM quests WHERE id = $1)
	`, questID).Scan(&exists)
	return exists, err
}

// GetMembership returns the membership row for (user, quest), if any.
func GetMembership(userID, questID string) (*models.QuestMembership, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	var m models.QuestMembership
	err = database.PostgresDB.QueryRow(`
		SELECT id, user_id, quest_id, role, status, joined_at
		FROM user_quests WHERE user_id = $1 AND quest_id = $2
	`, parsedUser, parsedQuest).Scan(&m.ID, &m.UserID, &m.QuestID, &m.Role, &m.Status, &m.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func insertMembership(userID, questID uuid.UUID, role models.MembershipRole, status models.MembershipStatus) (*models.QuestMembership, error) {
	exists, err := questExists(questID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	m := &models.QuestMembership{
		UserID:  userID,
		QuestID: questID,
		Role:    role,
		Status:  status,
	}
	err = database.PostgresDB.QueryRow(`
		INSERT INTO user_quests (user_id, quest_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, quest_id) DO NOTHING
		RETURNING id, joined_at
	`, userID, questID, role, status).Scan(&m.ID, &m.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// The unique constraint swallowed the insert: a row already
			// exists for this (user, quest) pair.
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return m, nil
}

// JoinQuest creates an active participant row directly (self-serve join).
func JoinQuest(userID, questID string) (*models.QuestMembership, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	return insertMembership(parsedUser, parsedQuest, models.RoleParticipant, models.MembershipActive)
}

// RequestJoin creates a pending participant row awaiting owner approval.
func RequestJoin(userID, questID string) (*models.QuestMembership, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	return insertMembership(parsedUser, parsedQuest, models.RoleParticipant, models.MembershipPending)
}

// Invite creates an invited participant row for the receiver. The caller
// must hold a membership row for the quest (owner or participant).
func Invite(callerID, questID, receiverID string) (*models.QuestMembership, error) {
	parsedCaller, err := uuid.Parse(callerID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedReceiver, err := uuid.Parse(receiverID)
	if err != nil {
		return nil, ErrNotFound
	}

	var isMember bool
	err = database.PostgresDB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM user_quests
			WHERE user_id = $1 AND quest_id = $2 AND role IN ('owner', 'participant')
		)
	`, parsedCaller, parsedQuest).Scan(&isMember)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrForbidden
	}

	return insertMembership(parsedReceiver, parsedQuest, models.RoleParticipant, models.MembershipInvited)
}

// conditionalTransition flips the row's status only when the expected prior
// status still holds. Zero affected rows means the row is missing, in the
// wrong state, or another request won the race.
func conditionalTransition(userID, questID uuid.UUID, from, to models.MembershipStatus) (*models.QuestMembership, error) {
	var m models.QuestMembership
	err := database.PostgresDB.QueryRow(`
		UPDATE user_quests SET status = $1
		WHERE user_id = $2 AND quest_id = $3 AND status = $4
		RETURNING id, user_id, quest_id, role, status, joined_at
	`, to, userID, questID, from).Scan(&m.ID, &m.UserID, &m.QuestID, &m.Role, &m.Status, &m.JoinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// AcceptInvite transitions the caller's own row from invited to active.
func AcceptInvite(userID, questID string) (*models.QuestMembership, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	return conditionalTransition(parsedUser, parsedQuest, models.MembershipInvited, models.MembershipActive)
}

// ApproveRequest lets the quest owner transition a pending request to active.
func ApproveRequest(ownerID, questID, targetUserID string) (*models.QuestMembership, error) {
	parsedOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedTarget, err := uuid.Parse(targetUserID)
	if err != nil {
		return nil, ErrNotFound
	}

	owner, err := isQuestOwner(parsedOwner, parsedQuest)
	if err != nil {
		return nil, err
	}
	if !owner {
		return nil, ErrForbidden
	}

	return conditionalTransition(parsedTarget, parsedQuest, models.MembershipPending, models.MembershipActive)
}

func deleteMembershipInState(userID, questID uuid.UUID, status models.MembershipStatus) error {
	res, err := database.PostgresDB.Exec(`
		DELETE FROM user_quests WHERE user_id = $1 AND quest_id = $2 AND status = $3
	`, userID, questID, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeclineInvite deletes the caller's own invited row.
func DeclineInvite(userID, questID string) error {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return ErrNotFound
	}
	return deleteMembershipInState(parsedUser, parsedQuest, models.MembershipInvited)
}

// DeleteRequest lets the owner reject a pending join request.
func DeleteRequest(ownerID, questID, targetUserID string) error {
	parsedOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return ErrNotFound
	}
	parsedTarget, err := uuid.Parse(targetUserID)
	if err != nil {
		return ErrNotFound
	}

	owner, err := isQuestOwner(parsedOwner, parsedQuest)
	if err != nil {
		return err
	}
	if !owner {
		return ErrForbidden
	}
	return deleteMembershipInState(parsedTarget, parsedQuest, models.MembershipPending)
}

// RemoveMember lets the owner remove a participant's row entirely. The owner
// row itself cannot be removed this way.
func RemoveMember(ownerID, questID, targetUserID string) error {
	parsedOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return ErrNotFound
	}
	parsedQuest, err := uuid.Parse(questID)
	if err != nil {
		return ErrNotFound
	}
	parsedTarget, err := uuid.Parse(targetUserID)
	if err != nil {
		return ErrNotFound
	}

	owner, err := isQuestOwner(parsedOwner, parsedQuest)
	if err != nil {
		return err
	}
	if !owner {
		return ErrForbidden
	}

	res, err := database.PostgresDB.Exec(`
		DELETE FROM user_quests WHERE user_id = $1 AND quest_id = $2 AND role = 'participant'
	`, parsedTarget, parsedQuest)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
