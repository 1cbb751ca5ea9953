// internal/httpserver/routes_sessions.go
//
// Session lifecycle:
//   - POST   /sessions          → claim a seat, sync, set the session cookie
//   - DELETE /sessions/current  → forget the session and clear the cookie;
//     a body {"pin": "..."} also releases the seat's PIN
//
// A seat protected by a PIN (see prefs) needs the same PIN to be claimed
// again. Opening a new session drops the one named by an existing cookie.

package httpserver

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

type createSessionReq struct {
	GameID      string `json:"gameId"`
	PlayerIndex *int   `json:"playerIndex"`
	Nickname    string `json:"nickname,omitempty"`
	PIN         string `json:"pin,omitempty"`
}

type deleteSessionReq struct {
	PIN string `json:"pin,omitempty"`
}

type createSessionRes struct {
	SessionID string       `json:"sessionId"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	View      session.View `json:"view"`
}

func (s *Server) mountSessions(r chi.Router) {
	r.Post("/sessions", s.handleCreateSession)
	r.With(s.requireSession).Delete("/sessions/current", s.handleDeleteSession)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	req.GameID = strings.TrimSpace(req.GameID)
	if req.GameID == "" || req.PlayerIndex == nil || *req.PlayerIndex < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "gameId_and_playerIndex_required"})
		return
	}
	seat := *req.PlayerIndex
	ctx := r.Context()

	if err := s.prefs.ClaimSeat(ctx, req.GameID, seat, req.PIN); err != nil {
		writeError(w, r, err)
		return
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname != "" {
		n, err := s.prefs.SetNickname(ctx, req.GameID, seat, nickname)
		if err != nil {
			writeError(w, r, err)
			return
		}
		nickname = n.Nickname
	} else {
		nickname = s.cachedNickname(r, req.GameID, seat)
	}

	sess, err := s.sessions.Create(ctx, req.GameID, seat, nickname)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.sessions.StartPolling(sess.ID, s.opts.RefreshInterval); err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("start polling")
	}

	// Replace any session this browser already had.
	if old := s.bearerOrCookie(r); old != "" {
		if sid, err := s.parseToken(old); err == nil && sid != sess.ID {
			s.sessions.Delete(sid)
		}
	}

	tok, exp, err := s.signToken(sess)
	if err != nil {
		s.sessions.Delete(sess.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sign_failed"})
		return
	}
	s.setSessionCookie(w, tok, exp)

	log.Info().Str("session", sess.ID).Str("game", sess.GameID).Int("seat", seat).Msg("session opened")
	writeJSON(w, http.StatusCreated, createSessionRes{
		SessionID: sess.ID,
		Token:     tok,
		ExpiresAt: exp,
		View:      sess.View(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	var req deleteSessionReq
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	sess := currentSession(r)
	if req.PIN != "" {
		if err := s.prefs.ReleaseSeat(r.Context(), sess.GameID, sess.PlayerIndex, req.PIN); err != nil {
			writeError(w, r, err)
			return
		}
		log.Info().Str("game", sess.GameID).Int("seat", sess.PlayerIndex).Msg("seat released")
	}
	s.sessions.Delete(sess.ID)
	s.clearSessionCookie(w)
	log.Info().Str("session", sess.ID).Msg("session closed")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// cachedNickname looks up a previously stored nickname; failures only log.
func (s *Server) cachedNickname(r *http.Request, gameID string, seat int) string {
	list, err := s.prefs.Nicknames(r.Context(), gameID)
	if err != nil {
		log.Warn().Err(err).Str("game", gameID).Msg("load nicknames")
		return ""
	}
	for _, n := range list {
		if n.PlayerIndex == seat {
			return n.Nickname
		}
	}
	return ""
}
