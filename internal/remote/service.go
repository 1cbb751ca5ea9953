// internal/remote/service.go
//
// Contract with the remote game service.
//
// The service owns board truth, the tile bag, scoring, dictionary checks
// and turn order. This client only reads snapshots and submits requests.
// A rule rejection is a normal Result with Accepted=false; only transport
// or protocol failures are returned as errors.

package remote

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
)

var (
	// ErrNotFound is returned when the game or player does not exist.
	ErrNotFound = errors.New("remote: not found")
	// ErrMalformedBoard is returned for a board that is not square.
	ErrMalformedBoard = errors.New("remote: board is not square")
)

// GameService is the set of operations the client consumes.
type GameService interface {
	FetchBoard(ctx context.Context, gameID string) (compose.Board, error)
	FetchRack(ctx context.Context, gameID string, playerIndex int) (compose.Rack, error)
	FetchCurrentPlayer(ctx context.Context, gameID string) (int, error)
	SubmitMove(ctx context.Context, gameID string, m compose.Move) (Result, error)
	SubmitExchange(ctx context.Context, gameID string, letters []string) (Result, error)
	SubmitSkipTurn(ctx context.Context, gameID string) (Result, error)
}

// Result is the service's answer to a submission.
type Result struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// State is one synchronized view of a game for one seat.
type State struct {
	Snapshot      compose.Snapshot
	CurrentPlayer int
}

// FetchSnapshot loads board, rack and current player concurrently.
func FetchSnapshot(ctx context.Context, svc GameService, gameID string, playerIndex int) (State, error) {
	var st State
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := svc.FetchBoard(ctx, gameID)
		st.Snapshot.Board = b
		return err
	})
	g.Go(func() error {
		r, err := svc.FetchRack(ctx, gameID, playerIndex)
		st.Snapshot.Rack = r
		return err
	})
	g.Go(func() error {
		p, err := svc.FetchCurrentPlayer(ctx, gameID)
		st.CurrentPlayer = p
		return err
	})
	if err := g.Wait(); err != nil {
		return State{}, err
	}
	return st, nil
}
