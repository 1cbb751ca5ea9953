package httpserver

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/prefs"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

// writeError maps domain errors onto JSON error bodies.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rej *session.RejectedError
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "rejected", "reason": rej.Reason})
	case errors.Is(err, session.ErrSubmissionPending):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "submission_pending"})
	case errors.Is(err, session.ErrNotYourTurn):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "not_your_turn"})
	case errors.Is(err, session.ErrNotExchanging):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "not_exchanging"})
	case errors.Is(err, session.ErrNothingToSubmit):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "nothing_to_submit"})
	case errors.Is(err, session.ErrInvalidMove):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "invalid_move"})
	case errors.Is(err, session.ErrUnknownSession):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session_expired"})
	case errors.Is(err, remote.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "game_not_found"})
	case errors.Is(err, prefs.ErrSeatLocked):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "seat_locked"})
	case errors.Is(err, prefs.ErrInvalidNickname):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_nickname"})
	default:
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "game_service_unavailable"})
	}
}
