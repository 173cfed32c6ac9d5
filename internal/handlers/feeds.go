package handlers

import (
	"net/http"

	"github.com/questlog-app/questlog-backend/internal/middleware"
	"github.com/questlog-app/questlog-backend/internal/services"
)

// GetQuestsFeed returns the caller's friends' recently updated quests.
func GetQuestsFeed(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.UserIDFromContext(r.Context())
	feed, err := services.GetQuestsFeed(callerID)
	if err != nil {
		writeInternalError(w, err, "quest feed failed")
		return
	}
	writeJSON(w, http.StatusOK, feed)
}
