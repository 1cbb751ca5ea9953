// internal/httpserver/server.go
//
// HTTP surface of the compose client.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access log).
//   - Session lifecycle: POST /sessions, DELETE /sessions/current.
//   - Gesture endpoints under /compose, each answering with the fresh view.
//   - State push over /compose/ws.
//   - Nickname cache: /nicknames/{gameId}; tile alphabet: /letters.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled so the session cookie works.
//   - The websocket route is kept out of the handler timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/letters"
	"github.com/robalobadob/crossplay/apps/go-client/internal/prefs"
	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

// Prefs is the slice of the preference store the HTTP layer needs.
type Prefs interface {
	ClaimSeat(ctx context.Context, gameID string, playerIndex int, pin string) error
	SetNickname(ctx context.Context, gameID string, playerIndex int, nickname string) (prefs.Nickname, error)
	Nicknames(ctx context.Context, gameID string) ([]prefs.Nickname, error)
	ReleaseSeat(ctx context.Context, gameID string, playerIndex int, pin string) error
	Ping(ctx context.Context) error
}

// Options carries HTTP-level settings.
type Options struct {
	JWTSecret       string
	TokenTTL        time.Duration
	CookieName      string
	ClientOrigin    string
	Secure          bool
	RefreshInterval time.Duration
	HandlerTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = 12 * time.Hour
	}
	if o.CookieName == "" {
		o.CookieName = "crossplay_session"
	}
	if o.ClientOrigin == "" {
		o.ClientOrigin = "http://localhost:5173"
	}
	if o.HandlerTimeout <= 0 {
		o.HandlerTimeout = 10 * time.Second
	}
	return o
}

// Server bundles router, session store and preference store.
type Server struct {
	r        *chi.Mux
	sessions *session.Store
	prefs    Prefs
	opts     Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(sessions *session.Store, p Prefs, opts Options) *Server {
	s := &Server{r: chi.NewRouter(), sessions: sessions, prefs: p, opts: opts.withDefaults()}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer)
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	timeout := chimw.Timeout(s.opts.HandlerTimeout)

	s.r.With(timeout).Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.prefs.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health: preferences db")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "prefs_unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.sessions.Len()})
	})

	s.r.With(timeout).Get("/letters", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]string{"letters": letters.All()})
	})

	s.mountSessions(s.r.With(timeout))
	s.mountNicknames(s.r.With(timeout))

	s.r.Route("/compose", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/ws", s.handleWS)
		r.Group(func(r chi.Router) {
			r.Use(timeout)
			s.mountCompose(r)
		})
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Router exposes the router for http.Server and tests.
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.Info().
				Str("req", chimw.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(start)).
				Msg("http")
		}()
		next.ServeHTTP(ww, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v)
}
