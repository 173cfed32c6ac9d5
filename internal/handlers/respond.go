package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError reports a client-visible error as {"error": "..."}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeInternalError logs the failure with full detail and reports a
// generic message to the client.
func writeInternalError(w http.ResponseWriter, err error, context string) {
	log.Error().Err(err).Msg(context)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
