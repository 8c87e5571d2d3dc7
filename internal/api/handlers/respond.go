package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cinelog/cinelog-be/internal/apperr"
)

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError translates err into the {statusCode, message} error payload.
// Unclassified errors become 500s and are logged with their real cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	writeJSON(w, ae.Status, ae)
}
