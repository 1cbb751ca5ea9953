// internal/session/store.go
//
// In-memory registry of browser sessions.
//
// Characteristics:
//   - Sessions keyed by a random URL-safe ID.
//   - Concurrency-safe via RWMutex (concurrent lookups, exclusive writes).
//   - Each session may run a background poller; Delete and Close stop it.
//   - State is lost when the process restarts. The game service stays
//     authoritative, so a new session simply re-syncs.

package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
)

// Store holds live sessions.
type Store struct {
	svc  remote.GameService
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
	pollers  map[string]context.CancelFunc
}

// NewStore constructs an empty store backed by svc.
func NewStore(svc remote.GameService, opts Options) *Store {
	return &Store{
		svc:      svc,
		opts:     opts,
		sessions: make(map[string]*Session),
		pollers:  make(map[string]context.CancelFunc),
	}
}

// Create opens a session for one seat and performs the initial sync.
// An unknown game or seat fails here rather than on first render.
func (st *Store) Create(ctx context.Context, gameID string, playerIndex int, nickname string) (*Session, error) {
	s := newSession(genID(), gameID, playerIndex, nickname, st.svc, st.opts)
	if _, err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

// Get looks up a session by ID.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrUnknownSession
}

// Delete stops the session's poller, disconnects its subscribers and
// forgets it. Unknown IDs are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	s := st.sessions[id]
	delete(st.sessions, id)
	cancel := st.pollers[id]
	delete(st.pollers, id)
	st.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if s != nil {
		s.hub.CloseAll()
	}
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// StartPolling refreshes the session every interval until it is deleted
// or the store is closed. Calling it twice for one session is a no-op.
func (st *Store) StartPolling(id string, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	st.mu.Lock()
	s, ok := st.sessions[id]
	if !ok {
		st.mu.Unlock()
		return ErrUnknownSession
	}
	if _, running := st.pollers[id]; running {
		st.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	st.pollers[id] = cancel
	st.mu.Unlock()

	go RunPoller(ctx, s, interval)
	return nil
}

// Close stops every poller and drops all sessions.
func (st *Store) Close() {
	st.mu.Lock()
	pollers := st.pollers
	sessions := st.sessions
	st.pollers = make(map[string]context.CancelFunc)
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, cancel := range pollers {
		cancel()
	}
	for _, s := range sessions {
		s.hub.CloseAll()
	}
}

// genID returns a random URL-safe ID.
func genID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
