// internal/session/session.go
//
// Session binds one browser to one seat of one game.
//
// Responsibilities:
//   - Own the seat's MoveComposer and serialize access to it.
//   - Pull snapshots from the game service and decide whether a refresh
//     starts a new turn (board or current player changed) or not.
//     Refreshes may overlap; a fetch that started before the last applied
//     one is dropped.
//   - Run submissions: mark pending, call the service without holding the
//     lock, then reset on acceptance or keep state on rejection.
//
// While a submission is pending every command except Clear is refused
// with ErrSubmissionPending.

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
)

var (
	ErrUnknownSession    = errors.New("session: unknown session")
	ErrSubmissionPending = errors.New("session: submission pending")
	ErrNothingToSubmit   = errors.New("session: nothing to submit")
	ErrInvalidMove       = errors.New("session: move does not pass client checks")
	ErrNotExchanging     = errors.New("session: not in exchange mode")
	ErrNotYourTurn       = errors.New("session: not this seat's turn")
)

// RejectedError carries the service's reason for refusing a submission.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string { return "session: rejected: " + e.Reason }

// Options tune session behaviour.
type Options struct {
	// SeedCenter anchors new composers on the centre cell of an empty board.
	SeedCenter bool
}

// Session is one seat's composition state.
type Session struct {
	ID          string
	GameID      string
	PlayerIndex int
	Nickname    string

	mu        sync.Mutex
	svc       remote.GameService
	opts      Options
	composer  *compose.MoveComposer
	current   int
	synced    bool
	pending   bool
	lastError string

	// refreshSeq numbers fetches as they start; appliedSeq is the newest
	// one whose result was applied.
	refreshSeq uint64
	appliedSeq uint64

	hub *Broadcaster
}

func newSession(id, gameID string, playerIndex int, nickname string, svc remote.GameService, opts Options) *Session {
	return &Session{
		ID:          id,
		GameID:      gameID,
		PlayerIndex: playerIndex,
		Nickname:    nickname,
		svc:         svc,
		opts:        opts,
		composer:    compose.NewMoveComposer(compose.Snapshot{}),
		hub:         NewBroadcaster(),
	}
}

// Events returns the session's change broadcaster.
func (s *Session) Events() *Broadcaster { return s.hub }

// Refresh pulls a fresh snapshot and applies it. It reports whether
// anything visible changed.
func (s *Session) Refresh(ctx context.Context) (bool, error) {
	s.mu.Lock()
	s.refreshSeq++
	seq := s.refreshSeq
	s.mu.Unlock()

	st, err := remote.FetchSnapshot(ctx, s.svc, s.GameID, s.PlayerIndex)
	if err != nil {
		return false, fmt.Errorf("refresh %s: %w", s.GameID, err)
	}

	s.mu.Lock()
	if seq < s.appliedSeq {
		s.mu.Unlock()
		log.Debug().Str("session", s.ID).Uint64("seq", seq).Msg("stale refresh dropped")
		return false, nil
	}
	s.appliedSeq = seq
	prev := s.composer.Snapshot()
	newTurn := s.synced && (!prev.Board.Equal(st.Snapshot.Board) || s.current != st.CurrentPlayer)
	changed := !s.synced || newTurn || !prev.Rack.Equal(st.Snapshot.Rack)

	s.composer.Sync(st.Snapshot, newTurn)
	s.current = st.CurrentPlayer
	s.synced = true
	if s.opts.SeedCenter && st.Snapshot.Board.Size() > 0 && st.Snapshot.Board.IsEmpty() {
		if s.composer.SeedAnchor(st.Snapshot.Board.Center()) {
			changed = true
		}
	}
	s.mu.Unlock()

	if newTurn {
		log.Debug().Str("session", s.ID).Int("current", st.CurrentPlayer).Msg("new turn, composer reset")
	}
	if changed {
		s.hub.Publish("state")
	}
	return changed, nil
}

// --- commands ---------------------------------------------------------------

// command runs fn against the composer unless a submission is pending.
func (s *Session) command(name string, fn func(c *compose.MoveComposer) bool) (bool, error) {
	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return false, ErrSubmissionPending
	}
	changed := fn(s.composer)
	s.mu.Unlock()

	if !changed {
		log.Debug().Str("session", s.ID).Str("cmd", name).Msg("command ignored")
		return false, nil
	}
	s.hub.Publish("state")
	return true, nil
}

// SetAnchor also clears the last submission error once the anchor is taken.
func (s *Session) SetAnchor(x, y int) (bool, error) {
	return s.command("anchor", func(c *compose.MoveComposer) bool {
		if !c.SetAnchor(x, y) {
			return false
		}
		s.lastError = ""
		return true
	})
}

func (s *Session) AppendFromRack(index int) (bool, error) {
	return s.command("rack", func(c *compose.MoveComposer) bool { return c.AppendFromRack(index) })
}

func (s *Session) AppendFromKeyboard(letter string) (bool, error) {
	return s.command("key", func(c *compose.MoveComposer) bool { return c.AppendFromKeyboard(letter) })
}

func (s *Session) PlaceAtCell(d compose.Drop) (bool, error) {
	return s.command("drop", func(c *compose.MoveComposer) bool { return c.PlaceAtCell(d) })
}

func (s *Session) Backspace() (bool, error) {
	return s.command("backspace", func(c *compose.MoveComposer) bool { return c.Backspace() })
}

func (s *Session) SetDirection(d compose.Direction) (bool, error) {
	return s.command("direction", func(c *compose.MoveComposer) bool { return c.SetDirection(d) })
}

func (s *Session) FlipDirection() (bool, error) {
	return s.command("flip", func(c *compose.MoveComposer) bool { return c.FlipDirection() })
}

func (s *Session) StartExchange() (bool, error) {
	return s.command("exchange.start", func(c *compose.MoveComposer) bool { return c.StartExchange() })
}

func (s *Session) ToggleExchange(index int) (bool, error) {
	return s.command("exchange.toggle", func(c *compose.MoveComposer) bool { return c.ToggleExchange(index) })
}

func (s *Session) CancelExchange() (bool, error) {
	return s.command("exchange.cancel", func(c *compose.MoveComposer) bool { return c.CancelExchange() })
}

// Clear is always accepted, even with a submission in flight. It does not
// cancel that submission.
func (s *Session) Clear() {
	s.mu.Lock()
	s.composer.Clear()
	s.mu.Unlock()
	s.hub.Publish("state")
}

// --- submissions ------------------------------------------------------------

// SubmitMove sends the composed move. The client verdict must be OK.
func (s *Session) SubmitMove(ctx context.Context) error {
	s.mu.Lock()
	if err := s.canSubmit(); err != nil {
		s.mu.Unlock()
		return err
	}
	m, ok := s.composer.Move()
	if !ok {
		s.mu.Unlock()
		return ErrNothingToSubmit
	}
	if !s.composer.Verdict().OK() {
		s.mu.Unlock()
		return ErrInvalidMove
	}
	s.pending = true
	s.mu.Unlock()
	s.hub.Publish("state")

	log.Info().Str("session", s.ID).Str("game", s.GameID).Str("word", m.Word).
		Int("x", m.Anchor.X).Int("y", m.Anchor.Y).Stringer("dir", m.Direction).Msg("submit move")
	res, err := s.svc.SubmitMove(ctx, s.GameID, m)
	return s.finish(ctx, "move", res, err, func(c *compose.MoveComposer) { c.Clear() })
}

// ConfirmExchange sends the selected letters for exchange.
func (s *Session) ConfirmExchange(ctx context.Context) error {
	s.mu.Lock()
	if err := s.canSubmit(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.composer.Exchanging() {
		s.mu.Unlock()
		return ErrNotExchanging
	}
	letters := s.composer.ExchangeLetters()
	if len(letters) == 0 {
		s.mu.Unlock()
		return ErrNothingToSubmit
	}
	s.pending = true
	s.mu.Unlock()
	s.hub.Publish("state")

	log.Info().Str("session", s.ID).Str("game", s.GameID).Strs("letters", letters).Msg("submit exchange")
	res, err := s.svc.SubmitExchange(ctx, s.GameID, letters)
	return s.finish(ctx, "exchange", res, err, func(c *compose.MoveComposer) { c.CancelExchange() })
}

// SkipTurn passes. On acceptance both the move and any exchange are dropped.
func (s *Session) SkipTurn(ctx context.Context) error {
	s.mu.Lock()
	if err := s.canSubmit(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending = true
	s.mu.Unlock()
	s.hub.Publish("state")

	log.Info().Str("session", s.ID).Str("game", s.GameID).Msg("skip turn")
	res, err := s.svc.SubmitSkipTurn(ctx, s.GameID)
	return s.finish(ctx, "skip", res, err, func(c *compose.MoveComposer) {
		c.Clear()
		c.CancelExchange()
	})
}

// canSubmit reports why a submission cannot start. Caller holds mu.
func (s *Session) canSubmit() error {
	if s.pending {
		return ErrSubmissionPending
	}
	if s.current != s.PlayerIndex {
		return ErrNotYourTurn
	}
	return nil
}

// finish applies a submission outcome. Composer state survives anything
// but an acceptance.
func (s *Session) finish(ctx context.Context, kind string, res remote.Result, err error, onAccept func(c *compose.MoveComposer)) error {
	s.mu.Lock()
	s.pending = false
	switch {
	case err != nil:
		s.lastError = "game service unavailable"
	case !res.Accepted:
		s.lastError = res.Reason
	default:
		s.lastError = ""
		onAccept(s.composer)
	}
	s.mu.Unlock()
	s.hub.Publish("state")

	if err != nil {
		log.Warn().Err(err).Str("session", s.ID).Str("kind", kind).Msg("submission failed")
		return fmt.Errorf("submit %s: %w", kind, err)
	}
	if !res.Accepted {
		log.Info().Str("session", s.ID).Str("kind", kind).Str("reason", res.Reason).Msg("submission rejected")
		return &RejectedError{Reason: res.Reason}
	}
	if _, err := s.Refresh(ctx); err != nil {
		log.Warn().Err(err).Str("session", s.ID).Msg("refresh after submit")
	}
	return nil
}
