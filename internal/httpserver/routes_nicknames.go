package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type setNicknameReq struct {
	Nickname string `json:"nickname"`
}

// mountNicknames registers the nickname cache routes. Writing requires a
// session in the same game.
func (s *Server) mountNicknames(r chi.Router) {
	r.Get("/nicknames/{gameId}", s.handleListNicknames)
	r.With(s.requireSession).Put("/nicknames/{gameId}/{playerIndex}", s.handleSetNickname)
}

func (s *Server) handleListNicknames(w http.ResponseWriter, r *http.Request) {
	list, err := s.prefs.Nicknames(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "db_error"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSetNickname(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameId")
	seat, err := strconv.Atoi(chi.URLParam(r, "playerIndex"))
	if err != nil || seat < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_player_index"})
		return
	}
	if sess := currentSession(r); sess.GameID != gameID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "other_game"})
		return
	}
	var req setNicknameReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	n, err := s.prefs.SetNickname(r.Context(), gameID, seat, req.Nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
