package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/services"
)

func friendshipRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/friendships/request", RequestFriendship)
		r.Put("/friendships/approve", ApproveFriendship)
		r.Delete("/friendships/remove", RemoveFriendship)
	})
	return r
}

func TestRequestFriendshipForAnotherUserForbidden(t *testing.T) {
	newMockDB(t)
	initTestTokens()

	callerID := uuid.New()
	access, _, err := services.Tokens.IssueTokens(callerID.String())
	require.NoError(t, err)

	rec := authedPost(t, friendshipRouter(), "/friendships/request", access, FriendshipRequest{
		UserID:   uuid.NewString(),
		FriendID: uuid.NewString(),
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Cannot send requests for another user"}`, rec.Body.String())
}

func TestRequestFriendshipDuplicate(t *testing.T) {
	mock := newMockDB(t)
	initTestTokens()

	callerID := uuid.New()
	access, _, err := services.Tokens.IssueTokens(callerID.String())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT 1 FROM friendships").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	rec := authedPost(t, friendshipRouter(), "/friendships/request", access, FriendshipRequest{
		UserID:   callerID.String(),
		FriendID: uuid.NewString(),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Friendship already exists or is pending"}`, rec.Body.String())
}

func TestApproveFriendshipNoPendingRequest(t *testing.T) {
	mock := newMockDB(t)
	initTestTokens()

	callerID := uuid.New()
	access, _, err := services.Tokens.IssueTokens(callerID.String())
	require.NoError(t, err)

	// The approver is not the friend_id side of any pending row, so the
	// conditional update matches nothing.
	mock.ExpectQuery("UPDATE friendships SET status").WillReturnError(sql.ErrNoRows)

	req := doJSON(t, friendshipRouter(), http.MethodPut, "/friendships/approve", access, FriendshipRequest{
		UserID:   callerID.String(),
		FriendID: uuid.NewString(),
	})

	assert.Equal(t, http.StatusNotFound, req.Code)
	assert.JSONEq(t, `{"error":"No pending friend request found"}`, req.Body.String())
}
