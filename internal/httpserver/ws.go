package httpserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// stateMessage is what every push carries.
type stateMessage struct {
	Type string       `json:"type"`
	View session.View `json:"view"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	allowed := s.opts.ClientOrigin
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if origin == allowed {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

// handleWS pushes the session view on connect and after every change.
// Inbound frames are only read to notice pongs and the close.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	ws, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session", sess.ID).Msg("ws upgrade")
		return
	}

	events := sess.Events().Subscribe()
	done := make(chan struct{})
	go readPump(ws, done)
	writePump(ws, sess, events, done)
	sess.Events().Unsubscribe(events)
	log.Debug().Str("session", sess.ID).Msg("ws closed")
}

// writePump owns all writes on ws. It returns when the client goes away,
// the session is deleted (events closed) or a write fails.
func writePump(ws *websocket.Conn, sess *session.Session, events <-chan string, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	send := func(kind string) bool {
		b, err := json.Marshal(stateMessage{Type: kind, View: sess.View()})
		if err != nil {
			return false
		}
		_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return ws.WriteMessage(websocket.TextMessage, b) == nil
	}

	if !send("state") {
		return
	}
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			// Coalesce bursts: one push covers everything queued so far.
			for drained := false; !drained; {
				select {
				case _, ok := <-events:
					if !ok {
						drained = true
					}
				default:
					drained = true
				}
			}
			if !send(ev) {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// readPump discards inbound frames and closes done when the peer leaves.
func readPump(ws *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	ws.SetReadLimit(4 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
