package services

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog-backend/internal/models"
)

var (
	friendshipExistsQuery  = regexp.QuoteMeta("SELECT 1 FROM friendships")
	friendshipInsertQuery  = "INSERT INTO friendships"
	friendshipApproveQuery = "UPDATE friendships SET status"
	friendshipDeleteQuery  = "DELETE FROM friendships"
)

func TestRequestFriendshipCreatesPendingRow(t *testing.T) {
	mock := newMockDB(t)

	requesterID := uuid.New()
	friendID := uuid.New()

	mock.ExpectQuery(friendshipExistsQuery).WithArgs(requesterID, friendID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(friendshipInsertQuery).WithArgs(requesterID, friendID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), time.Now(), time.Now()))

	f, err := RequestFriendship(requesterID.String(), friendID.String())
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipPending, f.Status)
	assert.Equal(t, requesterID, f.UserID)
	assert.Equal(t, friendID, f.FriendID)
	expectationsMet(t, mock)
}

func TestRequestFriendshipWithSelf(t *testing.T) {
	newMockDB(t)

	id := uuid.NewString()
	_, err := RequestFriendship(id, id)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRequestFriendshipAlreadyExistsEitherDirection(t *testing.T) {
	mock := newMockDB(t)

	// The stored row may have either party as user_id; the existence check
	// covers both orderings, so no insert happens.
	mock.ExpectQuery(friendshipExistsQuery).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err := RequestFriendship(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrAlreadyExists)
	expectationsMet(t, mock)
}

func TestApproveFriendshipActivatesRow(t *testing.T) {
	mock := newMockDB(t)

	approverID := uuid.New()
	requesterID := uuid.New()

	// The update matches the row with the requester as user_id and the
	// approver as friend_id.
	mock.ExpectQuery(friendshipApproveQuery).
		WithArgs(requesterID, approverID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "friend_id", "status", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), requesterID.String(), approverID.String(), "active", time.Now(), time.Now()))

	f, err := ApproveFriendship(approverID.String(), requesterID.String())
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipActive, f.Status)
	assert.Equal(t, requesterID, f.UserID)
	assert.Equal(t, approverID, f.FriendID)
	expectationsMet(t, mock)
}

func TestApproveFriendshipRequesterCannotApprove(t *testing.T) {
	mock := newMockDB(t)

	// Swapped roles: the requester calling approve finds no row where they
	// are the friend_id side.
	mock.ExpectQuery(friendshipApproveQuery).WillReturnError(sql.ErrNoRows)

	_, err := ApproveFriendship(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestRemoveFriendshipEitherDirection(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	friendID := uuid.New()

	mock.ExpectExec(friendshipDeleteQuery).
		WithArgs(userID, friendID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, RemoveFriendship(userID.String(), friendID.String()))
	expectationsMet(t, mock)
}

func TestRemoveFriendshipMissing(t *testing.T) {
	mock := newMockDB(t)

	mock.ExpectExec(friendshipDeleteQuery).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := RemoveFriendship(uuid.NewString(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
	expectationsMet(t, mock)
}

func TestGetFriendshipsForUser(t *testing.T) {
	mock := newMockDB(t)

	userID := uuid.New()
	otherID := uuid.New()

	mock.ExpectQuery("FROM friendships").WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "friend_id", "status", "created_at", "updated_at"}).
			AddRow(uuid.New().String(), userID.String(), otherID.String(), "active", time.Now(), time.Now()).
			AddRow(uuid.New().String(), otherID.String(), userID.String(), "pending", time.Now(), time.Now()))

	friendships, err := GetFriendshipsForUser(userID.String())
	require.NoError(t, err)
	require.Len(t, friendships, 2)
	assert.Equal(t, models.FriendshipActive, friendships[0].Status)
	assert.Equal(t, models.FriendshipPending, friendships[1].Status)
	expectationsMet(t, mock)
}
