// internal/httpserver/routes_compose.go
//
// Gesture endpoints under /compose. Every gesture answers 200 with
//   {"applied": bool, "view": {...}}
// where applied=false means the gesture was a no-op in the current state
// (e.g. a drop on a non-adjacent cell). Submissions answer with the view
// on success and an error body otherwise.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
	"github.com/robalobadob/crossplay/apps/go-client/internal/letters"
	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

type commandRes struct {
	Applied bool         `json:"applied"`
	View    session.View `json:"view"`
}

type anchorReq struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type keyReq struct {
	Key string `json:"key"`
}

type directionReq struct {
	Direction string `json:"direction"`
}

func (s *Server) mountCompose(r chi.Router) {
	r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentSession(r).View())
	})

	r.Post("/anchor", s.handleAnchor)
	r.Post("/rack/{index}", s.handleRack)
	r.Post("/key", s.handleKey)
	r.Post("/drop", s.handleDrop)
	r.Post("/backspace", s.command(func(sess *session.Session) (bool, error) { return sess.Backspace() }))
	r.Post("/clear", s.command(func(sess *session.Session) (bool, error) {
		sess.Clear()
		return true, nil
	}))
	r.Post("/direction", s.handleDirection)
	r.Post("/direction/flip", s.command(func(sess *session.Session) (bool, error) { return sess.FlipDirection() }))

	r.Post("/submit", s.submission(func(r *http.Request, sess *session.Session) error { return sess.SubmitMove(r.Context()) }))
	r.Post("/skip", s.submission(func(r *http.Request, sess *session.Session) error { return sess.SkipTurn(r.Context()) }))
	r.Post("/refresh", s.submission(func(r *http.Request, sess *session.Session) error {
		_, err := sess.Refresh(r.Context())
		return err
	}))

	r.Route("/exchange", func(r chi.Router) {
		r.Post("/start", s.command(func(sess *session.Session) (bool, error) { return sess.StartExchange() }))
		r.Post("/toggle/{index}", s.handleToggle)
		r.Post("/cancel", s.command(func(sess *session.Session) (bool, error) { return sess.CancelExchange() }))
		r.Post("/confirm", s.submission(func(r *http.Request, sess *session.Session) error {
			return sess.ConfirmExchange(r.Context())
		}))
	})
}

// command adapts a session gesture into a handler.
func (s *Server) command(fn func(sess *session.Session) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		applied, err := fn(sess)
		respondCommand(w, r, sess, applied, err)
	}
}

// submission adapts a call that talks to the game service.
func (s *Server) submission(fn func(r *http.Request, sess *session.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if err := fn(r, sess); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sess.View())
	}
}

func respondCommand(w http.ResponseWriter, r *http.Request, sess *session.Session, applied bool, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commandRes{Applied: applied, View: sess.View()})
}

func (s *Server) handleAnchor(w http.ResponseWriter, r *http.Request) {
	var req anchorReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	sess := currentSession(r)
	applied, err := sess.SetAnchor(req.X, req.Y)
	respondCommand(w, r, sess, applied, err)
}

func (s *Server) handleRack(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_index"})
		return
	}
	sess := currentSession(r)
	applied, err := sess.AppendFromRack(i)
	respondCommand(w, r, sess, applied, err)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_index"})
		return
	}
	sess := currentSession(r)
	applied, err := sess.ToggleExchange(i)
	respondCommand(w, r, sess, applied, err)
}

// handleKey feeds a key press. Keys that are not tiles are ignored.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	sess := currentSession(r)
	letter, ok := letters.Normalize(req.Key)
	if !ok {
		respondCommand(w, r, sess, false, nil)
		return
	}
	applied, err := sess.AppendFromKeyboard(letter)
	respondCommand(w, r, sess, applied, err)
}

// handleDrop places a dragged tile. The letter may be omitted when a rack
// index is given; with an index the composer matches it against the slot,
// so tiles outside the alphabet (blanks) can still be dropped.
func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	var d compose.Drop
	if err := decodeJSON(w, r, &d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	sess := currentSession(r)
	if d.Letter != "" && d.RackIndex == nil {
		letter, ok := letters.Normalize(d.Letter)
		if !ok {
			respondCommand(w, r, sess, false, nil)
			return
		}
		d.Letter = letter
	}
	applied, err := sess.PlaceAtCell(d)
	respondCommand(w, r, sess, applied, err)
}

func (s *Server) handleDirection(w http.ResponseWriter, r *http.Request) {
	var req directionReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	d, ok := compose.ParseDirection(req.Direction)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_direction"})
		return
	}
	sess := currentSession(r)
	applied, err := sess.SetDirection(d)
	respondCommand(w, r, sess, applied, err)
}
