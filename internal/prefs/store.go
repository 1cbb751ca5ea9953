// Package prefs stores UI-only preferences: cached nicknames and seat PINs.
// Nothing here is game state; the game service stays authoritative.
package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/crossplay/apps/go-client/assets"
)

var (
	ErrSeatLocked      = errors.New("prefs: seat is claimed with a different PIN")
	ErrInvalidNickname = errors.New("prefs: nickname must be 1-24 printable characters")
)

// Store wraps the preferences database.
type Store struct {
	db   *sql.DB
	cost int
}

// Open opens the database at dsn and applies pending migrations.
func Open(dsn string) (*Store, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, cost: bcrypt.DefaultCost}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// --- nicknames --------------------------------------------------------------

type Nickname struct {
	PlayerIndex int       `json:"playerIndex"`
	Nickname    string    `json:"nickname"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func normalizeNickname(n string) (string, error) {
	n = strings.TrimSpace(n)
	if n == "" || utf8.RuneCountInString(n) > 24 {
		return "", ErrInvalidNickname
	}
	for _, r := range n {
		if r < 0x20 || r == 0x7f {
			return "", ErrInvalidNickname
		}
	}
	return n, nil
}

// SetNickname upserts the nickname shown for one seat.
func (s *Store) SetNickname(ctx context.Context, gameID string, playerIndex int, nickname string) (Nickname, error) {
	nickname, err := normalizeNickname(nickname)
	if err != nil {
		return Nickname{}, err
	}
	now := time.Now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO nicknames (game_id, player_index, nickname, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(game_id, player_index)
        DO UPDATE SET nickname=excluded.nickname, updated_at=excluded.updated_at`,
		gameID, playerIndex, nickname, now.Format(time.RFC3339),
	)
	if err != nil {
		return Nickname{}, fmt.Errorf("set nickname: %w", err)
	}
	return Nickname{PlayerIndex: playerIndex, Nickname: nickname, UpdatedAt: now}, nil
}

// Nicknames lists the cached nicknames of a game ordered by seat.
func (s *Store) Nicknames(ctx context.Context, gameID string) ([]Nickname, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT player_index, nickname, updated_at
        FROM nicknames
        WHERE game_id=?
        ORDER BY player_index ASC`, gameID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Nickname{}
	for rows.Next() {
		var n Nickname
		var updated string
		if err := rows.Scan(&n.PlayerIndex, &n.Nickname, &updated); err != nil {
			return nil, err
		}
		n.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		out = append(out, n)
	}
	return out, rows.Err()
}

// --- seats ------------------------------------------------------------------

// ClaimSeat admits a browser to a seat. The first claim with a non-empty
// PIN locks the seat to that PIN; later claims must present it. A seat
// never claimed with a PIN stays open.
func (s *Store) ClaimSeat(ctx context.Context, gameID string, playerIndex int, pin string) error {
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT pin_hash FROM seats WHERE game_id=? AND player_index=?`,
		gameID, playerIndex,
	).Scan(&hash)
	switch {
	case err == nil:
		if pin == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
			return ErrSeatLocked
		}
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup seat: %w", err)
	}

	if pin == "" {
		return nil
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO seats (game_id, player_index, pin_hash) VALUES (?, ?, ?)`,
		gameID, playerIndex, string(b),
	)
	if err != nil {
		return fmt.Errorf("claim seat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Lost a race with another claim; re-check against the winner.
		return s.ClaimSeat(ctx, gameID, playerIndex, pin)
	}
	return nil
}

// ReleaseSeat removes a seat's PIN when pin matches it.
func (s *Store) ReleaseSeat(ctx context.Context, gameID string, playerIndex int, pin string) error {
	if err := s.ClaimSeat(ctx, gameID, playerIndex, pin); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM seats WHERE game_id=? AND player_index=?`, gameID, playerIndex)
	return err
}
