package internal

import (
	"encoding/json"
	"errors"
	"net/http"

	"asset-lifecycle-api/internal/lifecycle"

	"github.com/rs/zerolog/log"
)

// writeJSON encodes data with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// writeDomainError maps the lifecycle error taxonomy onto HTTP statuses:
// validation -> 422 with a per-field body, state conflict -> 409,
// not found -> 404, anything else -> 500 with the error propagated
// unchanged (no local recovery, no retry).
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "validation_failed",
			"fields": verr.Fields,
		})
		return
	}

	var cerr *lifecycle.StateConflictError
	if errors.As(err, &cerr) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error":   "state_conflict",
			"message": cerr.Error(),
		})
		return
	}

	if errors.Is(err, lifecycle.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	log.Error().Err(err).Msg("unexpected failure")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
