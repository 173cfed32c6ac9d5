package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/services"
)

// FriendshipRequest carries both sides of a friendship operation. For
// approve, userId is the approver and friendId the original requester.
type FriendshipRequest struct {
	UserID   string `json:"userId"`
	FriendID string `json:"friendId"`
}

// RequestFriendship creates a pending friendship from the caller.
func RequestFriendship(w http.ResponseWriter, r *http.Request) {
	var req FriendshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.FriendID == "" {
		writeError(w, http.StatusBadRequest, "userId and friendId are required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	if callerID != req.UserID {
		writeError(w, http.StatusForbidden, "Cannot send requests for another user")
		return
	}

	f, err := services.RequestFriendship(req.UserID, req.FriendID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyExists):
			writeError(w, http.StatusBadRequest, "Friendship already exists or is pending")
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			writeInternalError(w, err, "friendship request failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// ApproveFriendship activates a pending friendship. The caller must be the
// friend_id side of the stored row; anyone else finds no pending row (404).
func ApproveFriendship(w http.ResponseWriter, r *http.Request) {
	var req FriendshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.FriendID == "" {
		writeError(w, http.StatusBadRequest, "userId and friendId are required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())

	f, err := services.ApproveFriendship(callerID, req.FriendID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No pending friend request found")
			return
		}
		writeInternalError(w, err, "friendship approve failed")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// RemoveFriendship deletes the pair's row; either party may call it.
func RemoveFriendship(w http.ResponseWriter, r *http.Request) {
	var req FriendshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.FriendID == "" {
		writeError(w, http.StatusBadRequest, "userId and friendId are required")
		return
	}

	callerID, _ := middleware.UserIDFromContext(r.Context())
	if callerID != req.UserID && callerID != req.FriendID {
		writeError(w, http.StatusForbidden, "Cannot remove a friendship you are not part of")
		return
	}

	if err := services.RemoveFriendship(req.UserID, req.FriendID); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Friendship not found")
			return
		}
		writeInternalError(w, err, "friendship remove failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Friendship removed successfully"})
}

// GetUserFriendships lists every friendship touching a user, both orderings.
func GetUserFriendships(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	friendships, err := services.GetFriendshipsForUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeInternalError(w, err, "friendship list failed")
		return
	}
	writeJSON(w, http.StatusOK, friendships)
}
