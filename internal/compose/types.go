// internal/compose/types.go
//
// Core type definitions for move composition.
// Defines:
//   - Position / Direction: board coordinates and placement axis.
//   - Board: read-only view of the authoritative board at last sync.
//   - Rack: the acting player's tiles, one entry per physical tile.
//   - Source: where a composed letter came from (rack slot or unsourced).
//   - Snapshot, Move, Drop: the bundles exchanged with callers.

package compose

import (
	"fmt"
	"strings"
)

// Position is a board cell. X grows to the right, Y grows downwards.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Step returns the position n cells away from p along d.
// Undetermined is treated as Row.
func (p Position) Step(d Direction, n int) Position {
	if d == Column {
		return Position{X: p.X, Y: p.Y + n}
	}
	return Position{X: p.X + n, Y: p.Y}
}

// Direction is the axis along which a move extends from its anchor.
type Direction int

const (
	Undetermined Direction = iota
	Row
	Column
)

func (d Direction) String() string {
	switch d {
	case Row:
		return "row"
	case Column:
		return "column"
	default:
		return ""
	}
}

// Flip swaps Row and Column. Undetermined flips to Column, matching
// the Row default used everywhere else.
func (d Direction) Flip() Direction {
	if d == Column {
		return Row
	}
	return Column
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Undetermined
		return nil
	}
	parsed, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("compose: unknown direction %q", b)
	}
	*d = parsed
	return nil
}

// ParseDirection accepts "row"/"column" (and the short forms "h"/"v").
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "row", "h", "horizontal":
		return Row, true
	case "column", "col", "v", "vertical":
		return Column, true
	}
	return Undetermined, false
}

// Board is a square grid of letters; "" marks an empty cell.
// Cells is row-major: Cells[y][x]. The size is whatever the service sent.
type Board struct {
	Cells [][]string `json:"cells"`
}

// NewBoard returns an empty size×size board.
func NewBoard(size int) Board {
	if size < 0 {
		size = 0
	}
	cells := make([][]string, size)
	for y := range cells {
		cells[y] = make([]string, size)
	}
	return Board{Cells: cells}
}

// Size is the board dimension.
func (b Board) Size() int { return len(b.Cells) }

// InBounds reports whether p is a cell of the board.
func (b Board) InBounds(p Position) bool {
	return p.Y >= 0 && p.Y < len(b.Cells) && p.X >= 0 && p.X < len(b.Cells[p.Y])
}

// At returns the letter at p, or "" if empty or out of bounds.
func (b Board) At(p Position) string {
	if !b.InBounds(p) {
		return ""
	}
	return b.Cells[p.Y][p.X]
}

// Center is the middle cell, the conventional first-move square.
func (b Board) Center() Position {
	c := b.Size() / 2
	return Position{X: c, Y: c}
}

// IsEmpty reports whether no tile has been laid yet.
func (b Board) IsEmpty() bool {
	for _, row := range b.Cells {
		for _, cell := range row {
			if cell != "" {
				return false
			}
		}
	}
	return true
}

// Equal compares two boards cell by cell.
func (b Board) Equal(o Board) bool {
	if len(b.Cells) != len(o.Cells) {
		return false
	}
	for y := range b.Cells {
		if len(b.Cells[y]) != len(o.Cells[y]) {
			return false
		}
		for x := range b.Cells[y] {
			if b.Cells[y][x] != o.Cells[y][x] {
				return false
			}
		}
	}
	return true
}

// With returns a copy of b with letter laid at p.
func (b Board) With(p Position, letter string) Board {
	cells := make([][]string, len(b.Cells))
	for y := range b.Cells {
		cells[y] = append([]string(nil), b.Cells[y]...)
	}
	out := Board{Cells: cells}
	if out.InBounds(p) {
		out.Cells[p.Y][p.X] = NormalizeLetter(letter)
	}
	return out
}

// Rack is the ordered hand of the acting player. Each index is a
// distinct tile even when letters repeat.
type Rack []string

// Letter returns the upper-cased letter at i.
func (r Rack) Letter(i int) (string, bool) {
	if i < 0 || i >= len(r) {
		return "", false
	}
	return NormalizeLetter(r[i]), true
}

// Equal compares two racks slot by slot.
func (r Rack) Equal(o Rack) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if NormalizeLetter(r[i]) != NormalizeLetter(o[i]) {
			return false
		}
	}
	return true
}

// Source records where a composed letter came from.
type Source int

// Unsourced marks a letter with no rack slot behind it (a letter built
// through an existing board tile).
const Unsourced Source = -1

// RackIndex returns the rack slot, if any.
func (s Source) RackIndex() (int, bool) {
	if s < 0 {
		return 0, false
	}
	return int(s), true
}

// Snapshot bundles the last known board and rack.
type Snapshot struct {
	Board Board `json:"board"`
	Rack  Rack  `json:"rack"`
}

// Move is the payload handed to the game service on submit.
type Move struct {
	Anchor    Position  `json:"anchor"`
	Direction Direction `json:"direction"`
	Word      string    `json:"word"`
}

// Drop is a pointer/drag-and-drop placement: a target cell plus the
// letter being dropped, optionally pinned to a rack slot.
type Drop struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Letter    string `json:"letter"`
	RackIndex *int   `json:"rackIndex,omitempty"`
}

// State is the coarse composition state.
type State string

const (
	StateEmpty            State = "empty"
	StateAnchored         State = "anchored"
	StateDirectionPending State = "direction_pending"
	StateDirectionFixed   State = "direction_fixed"
	StateExchange         State = "exchange"
)

// NormalizeLetter trims and upper-cases a tile letter.
func NormalizeLetter(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
