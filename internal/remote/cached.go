// internal/remote/cached.go
//
// Cached decorates a GameService with a short-lived snapshot cache.
// Several sessions polling the same game share one board fetch per TTL.
// Racks are per seat and never cached. Any submission for a game purges
// that game's entries so the submitter sees the outcome on next refresh.

package remote

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
)

type Cached struct {
	next    GameService
	boards  *expirable.LRU[string, compose.Board]
	current *expirable.LRU[string, int]
}

var _ GameService = (*Cached)(nil)

// NewCached wraps next. size bounds the number of games kept.
func NewCached(next GameService, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 128
	}
	return &Cached{
		next:    next,
		boards:  expirable.NewLRU[string, compose.Board](size, nil, ttl),
		current: expirable.NewLRU[string, int](size, nil, ttl),
	}
}

func (c *Cached) FetchBoard(ctx context.Context, gameID string) (compose.Board, error) {
	if b, ok := c.boards.Get(gameID); ok {
		return b, nil
	}
	b, err := c.next.FetchBoard(ctx, gameID)
	if err != nil {
		return compose.Board{}, err
	}
	c.boards.Add(gameID, b)
	return b, nil
}

func (c *Cached) FetchRack(ctx context.Context, gameID string, playerIndex int) (compose.Rack, error) {
	return c.next.FetchRack(ctx, gameID, playerIndex)
}

func (c *Cached) FetchCurrentPlayer(ctx context.Context, gameID string) (int, error) {
	if p, ok := c.current.Get(gameID); ok {
		return p, nil
	}
	p, err := c.next.FetchCurrentPlayer(ctx, gameID)
	if err != nil {
		return 0, err
	}
	c.current.Add(gameID, p)
	return p, nil
}

func (c *Cached) SubmitMove(ctx context.Context, gameID string, m compose.Move) (Result, error) {
	defer c.Invalidate(gameID)
	return c.next.SubmitMove(ctx, gameID, m)
}

func (c *Cached) SubmitExchange(ctx context.Context, gameID string, letters []string) (Result, error) {
	defer c.Invalidate(gameID)
	return c.next.SubmitExchange(ctx, gameID, letters)
}

func (c *Cached) SubmitSkipTurn(ctx context.Context, gameID string) (Result, error) {
	defer c.Invalidate(gameID)
	return c.next.SubmitSkipTurn(ctx, gameID)
}

// Invalidate drops cached entries for gameID.
func (c *Cached) Invalidate(gameID string) {
	c.boards.Remove(gameID)
	c.current.Remove(gameID)
}
