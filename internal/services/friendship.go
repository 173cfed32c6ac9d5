package services

import (
	"database/sql"

	"github.com/google/uuid"

	"github.com/questlog-app/questlog-backend/internal/database"
	"github.com/questlog-app/questlog-backend/internal/models"
)

// Friendship state machine. The pair is unordered but stored as two ordered
// columns with the requester as user_id, so every existence check covers
// both orderings.

func friendshipExists(a, b uuid.UUID) (bool, error) {
	var exists bool
	err := database.PostgresDB.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
		)
	`, a, b).Scan(&exists)
	return exists, err
}

// RequestFriendship creates a pending friendship from requester to friend.
// A row already existing in either direction, pending or active, rejects
// the request.
func RequestFriendship(requesterID, friendID string) (*models.Friendship, error) {
	parsedRequester, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedFriend, err := uuid.Parse(friendID)
	if err != nil {
		return nil, ErrNotFound
	}
	if parsedRequester == parsedFriend {
		return nil, ErrAlreadyExists
	}

	exists, err := friendshipExists(parsedRequester, parsedFriend)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	f := &models.Friendship{
		UserID:   parsedRequester,
		FriendID: parsedFriend,
		Status:   models.FriendshipPending,
	}
	err = database.PostgresDB.QueryRow(`
		INSERT INTO friendships (user_id, friend_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at, updated_at
	`, parsedRequester, parsedFriend).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ApproveFriendship activates a pending friendship. Only the stored
// friend_id side may approve: the update matches the row where the caller
// is friend_id and the requester is user_id, so a requester approving their
// own request finds no row.
func ApproveFriendship(approverID, requesterID string) (*models.Friendship, error) {
	parsedApprover, err := uuid.Parse(approverID)
	if err != nil {
		return nil, ErrNotFound
	}
	parsedRequester, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, ErrNotFound
	}

	var f models.Friendship
	err = database.PostgresDB.QueryRow(`
		UPDATE friendships SET status = 'active', updated_at = NOW()
		WHERE user_id = $1 AND friend_id = $2 AND status = 'pending'
		RETURNING id, user_id, friend_id, status, created_at, updated_at
	`, parsedRequester, parsedApprover).Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// RemoveFriendship deletes the pair's row whichever direction it was stored
// in. Either party may remove it.
func RemoveFriendship(userID, friendID string) error {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return ErrNotFound
	}
	parsedFriend, err := uuid.Parse(friendID)
	if err != nil {
		return ErrNotFound
	}

	res, err := database.PostgresDB.Exec(`
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2) OR (user_id = $2 AND friend_id = $1)
	`, parsedUser, parsedFriend)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetFriendshipsForUser returns every friendship row touching the user,
// in either column position.
func GetFriendshipsForUser(userID string) ([]models.Friendship, error) {
	parsedUser, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrNotFound
	}
	rows, err := database.PostgresDB.Query(`
		SELECT id, user_id, friend_id, status, created_at, updated_at
		FROM friendships
		WHERE user_id = $1 OR friend_id = $1
		ORDER BY created_at DESC
	`, parsedUser)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	friendships := []models.Friendship{}
	for rows.Next() {
		var f models.Friendship
		if err := rows.Scan(&f.ID, &f.UserID, &f.FriendID, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}
