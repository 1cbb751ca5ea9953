// Package remotetest provides an in-memory GameService for tests.
package remotetest

import (
	"context"
	"sync"

	"github.com/robalobadob/crossplay/apps/go-client/internal/compose"
	"github.com/robalobadob/crossplay/apps/go-client/internal/remote"
)

// Fake is a scriptable GameService. Zero Results mean "accepted".
type Fake struct {
	mu sync.Mutex

	Board   compose.Board
	Racks   map[int]compose.Rack
	Current int
	Err     error

	MoveResult     *remote.Result
	ExchangeResult *remote.Result
	SkipResult     *remote.Result

	// Block, when set, is waited on inside every submission.
	Block chan struct{}

	hold        chan struct{}
	holdLeft    int
	holdArrived chan struct{}

	Moves     []compose.Move
	Exchanges [][]string
	Skips     int
	Fetches   int
}

var _ remote.GameService = (*Fake)(nil)

// New returns a Fake with an empty size×size board and one rack for seat 0.
func New(size int, rack ...string) *Fake {
	return &Fake{
		Board: compose.NewBoard(size),
		Racks: map[int]compose.Rack{0: compose.Rack(rack)},
	}
}

// Set mutates the fake under its lock.
func (f *Fake) Set(fn func(f *Fake)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// HoldFetches makes the next n fetch calls read their values and then wait
// for release. arrived is closed once all n have read.
func (f *Fake) HoldFetches(n int) (arrived <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hold := make(chan struct{})
	f.hold, f.holdLeft, f.holdArrived = hold, n, make(chan struct{})
	var once sync.Once
	return f.holdArrived, func() { once.Do(func() { close(hold) }) }
}

// held consumes one slot of a pending hold. Caller holds mu.
func (f *Fake) held() chan struct{} {
	if f.holdLeft == 0 {
		return nil
	}
	f.holdLeft--
	if f.holdLeft == 0 {
		close(f.holdArrived)
	}
	return f.hold
}

func (f *Fake) FetchBoard(_ context.Context, _ string) (compose.Board, error) {
	f.mu.Lock()
	f.Fetches++
	b, err, h := f.Board, f.Err, f.held()
	f.mu.Unlock()
	waitOn(h)
	return b, err
}

func (f *Fake) FetchRack(_ context.Context, _ string, playerIndex int) (compose.Rack, error) {
	f.mu.Lock()
	r, err, h := append(compose.Rack(nil), f.Racks[playerIndex]...), f.Err, f.held()
	f.mu.Unlock()
	waitOn(h)
	return r, err
}

func (f *Fake) FetchCurrentPlayer(_ context.Context, _ string) (int, error) {
	f.mu.Lock()
	p, err, h := f.Current, f.Err, f.held()
	f.mu.Unlock()
	waitOn(h)
	return p, err
}

func waitOn(h chan struct{}) {
	if h != nil {
		<-h
	}
}

func (f *Fake) SubmitMove(_ context.Context, _ string, m compose.Move) (remote.Result, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Moves = append(f.Moves, m)
	return result(f.MoveResult), f.Err
}

func (f *Fake) SubmitExchange(_ context.Context, _ string, letters []string) (remote.Result, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Exchanges = append(f.Exchanges, letters)
	return result(f.ExchangeResult), f.Err
}

func (f *Fake) SubmitSkipTurn(_ context.Context, _ string) (remote.Result, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Skips++
	return result(f.SkipResult), f.Err
}

func (f *Fake) wait() {
	f.mu.Lock()
	block := f.Block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func result(r *remote.Result) remote.Result {
	if r == nil {
		return remote.Result{Accepted: true}
	}
	return *r
}
