package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "prefs.db"))
	require.NoError(t, err)
	s.cost = bcrypt.MinCost
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM _migrations`).Scan(&n))
	assert.Equal(t, 2, n)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestNicknames_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SetNickname(ctx, "g1", 1, "  bob ")
	require.NoError(t, err)
	_, err = s.SetNickname(ctx, "g1", 0, "ann")
	require.NoError(t, err)
	n, err := s.SetNickname(ctx, "g1", 1, "robert")
	require.NoError(t, err)
	assert.Equal(t, "robert", n.Nickname)
	_, err = s.SetNickname(ctx, "g2", 0, "other game")
	require.NoError(t, err)

	list, err := s.Nicknames(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].PlayerIndex)
	assert.Equal(t, "ann", list[0].Nickname)
	assert.Equal(t, "robert", list[1].Nickname)
	assert.False(t, list[1].UpdatedAt.IsZero())
}

func TestNicknames_Empty(t *testing.T) {
	s := openTestStore(t)
	list, err := s.Nicknames(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestNicknames_Validation(t *testing.T) {
	s := openTestStore(t)
	for _, bad := range []string{"", "   ", "abcdefghijklmnopqrstuvwxy", "tab\there"} {
		_, err := s.SetNickname(context.Background(), "g1", 0, bad)
		assert.ErrorIs(t, err, ErrInvalidNickname, bad)
	}
}

func TestSeats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Open seat: anyone may sit.
	require.NoError(t, s.ClaimSeat(ctx, "g1", 0, ""))
	require.NoError(t, s.ClaimSeat(ctx, "g1", 0, ""))

	// First PIN locks it.
	require.NoError(t, s.ClaimSeat(ctx, "g1", 1, "4321"))
	assert.NoError(t, s.ClaimSeat(ctx, "g1", 1, "4321"))
	assert.ErrorIs(t, s.ClaimSeat(ctx, "g1", 1, "0000"), ErrSeatLocked)
	assert.ErrorIs(t, s.ClaimSeat(ctx, "g1", 1, ""), ErrSeatLocked)

	// Other games are independent.
	assert.NoError(t, s.ClaimSeat(ctx, "g2", 1, "0000"))

	assert.ErrorIs(t, s.ReleaseSeat(ctx, "g1", 1, "bad"), ErrSeatLocked)
	require.NoError(t, s.ReleaseSeat(ctx, "g1", 1, "4321"))
	assert.NoError(t, s.ClaimSeat(ctx, "g1", 1, ""))
}
