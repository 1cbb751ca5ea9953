package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/robalobadob/crossplay/apps/go-client/internal/session"
)

// ctxSessionKey is the context key for the resolved *session.Session.
type ctxSessionKey struct{}

// signToken creates an HS256 JWT naming the session and its seat.
func (s *Server) signToken(sess *session.Session) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.opts.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid":  sess.ID,
		"game": sess.GameID,
		"seat": sess.PlayerIndex,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.opts.JWTSecret))
	return ss, exp, err
}

// parseToken returns the session ID carried by a valid token.
func (s *Server) parseToken(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", errors.New("invalid token")
	}
	return sid, nil
}

// setSessionCookie writes the session token cookie.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// clearSessionCookie deletes the session token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

func (s *Server) sameSite() http.SameSite {
	if s.opts.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// bearerOrCookie extracts a token from the Authorization header or cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}

// requireSession resolves the caller's session or answers 401.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.bearerOrCookie(r)
		if tok == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no_session"})
			return
		}
		sid, err := s.parseToken(tok)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
			return
		}
		sess, err := s.sessions.Get(sid)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentSession returns the session placed by requireSession.
func currentSession(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(ctxSessionKey{}).(*session.Session)
	return sess
}
