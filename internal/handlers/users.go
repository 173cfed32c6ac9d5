package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/questlog-app/questlog-backend/internal/services"
)

// GetUser returns a user's public profile.
func GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := services.GetUserByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeInternalError(w, err, "user fetch failed")
		return
	}
	writeJSON(w, http.StatusOK, user)
}
