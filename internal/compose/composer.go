// internal/compose/composer.go
//
// MoveComposer holds the single in-progress move of one player and
// accepts letters from three input channels: rack clicks, keyboard and
// drag-and-drop onto a board cell.
//
// Placement shape:
//   - The first letter sets the anchor.
//   - The second letter must sit one cell right of the anchor (Row) or one
//     cell below it (Column); that fixes the direction.
//   - Every later letter must land on exactly the next cell along the
//     direction. No gaps, no re-ordering, no overwriting.
//
// Impossible intents (reused tile, letter not held, out-of-line drop) are
// no-ops. Commands report whether they changed anything; they never error.
//
// A MoveComposer is owned by one caller and is not safe for concurrent use.

package compose

import "strings"

// MoveComposer is the move-composition state machine.
type MoveComposer struct {
	snap Snapshot

	anchor    Position
	hasAnchor bool
	dir       Direction
	word      []string
	sources   []Source

	exchange ExchangeSelector
}

// NewMoveComposer returns an empty composer over snap.
func NewMoveComposer(snap Snapshot) *MoveComposer {
	return &MoveComposer{snap: snap}
}

// --- accessors --------------------------------------------------------------

func (c *MoveComposer) Snapshot() Snapshot { return c.snap }

// Anchor returns the anchor cell and whether one is set.
func (c *MoveComposer) Anchor() (Position, bool) { return c.anchor, c.hasAnchor }

func (c *MoveComposer) Direction() Direction { return c.dir }

// Word returns a copy of the composed letters.
func (c *MoveComposer) Word() []string { return append([]string(nil), c.word...) }

// Sources returns a copy of the per-letter provenance, parallel to Word.
func (c *MoveComposer) Sources() []Source { return append([]Source(nil), c.sources...) }

func (c *MoveComposer) Exchanging() bool { return c.exchange.Active() }

func (c *MoveComposer) ExchangeSelection() []int { return c.exchange.Selection() }

// State returns the coarse composition state.
func (c *MoveComposer) State() State {
	switch {
	case c.exchange.Active():
		return StateExchange
	case len(c.word) == 0 && c.hasAnchor:
		return StateAnchored
	case len(c.word) == 0:
		return StateEmpty
	case len(c.word) == 1:
		return StateDirectionPending
	default:
		return StateDirectionFixed
	}
}

// Candidate bundles the current state for Evaluate.
func (c *MoveComposer) Candidate() Candidate {
	return Candidate{
		Board:     c.snap.Board,
		Rack:      c.snap.Rack,
		Anchor:    c.anchor,
		Anchored:  c.hasAnchor,
		Direction: c.dir,
		Word:      c.Word(),
	}
}

// Verdict validates the composed move against the latest snapshot.
func (c *MoveComposer) Verdict() Verdict { return Evaluate(c.Candidate()) }

// Move returns the submission payload. A single-letter move with no
// direction yet is sent as Row.
func (c *MoveComposer) Move() (Move, bool) {
	if !c.hasAnchor || len(c.word) == 0 {
		return Move{}, false
	}
	dir := c.dir
	if dir == Undetermined {
		dir = Row
	}
	return Move{Anchor: c.anchor, Direction: dir, Word: strings.Join(c.word, "")}, true
}

// --- commands ---------------------------------------------------------------

// SetAnchor moves the anchor. Only allowed before the first letter; a
// started word never moves.
func (c *MoveComposer) SetAnchor(x, y int) bool {
	if c.exchange.Active() || len(c.word) > 0 {
		return false
	}
	c.anchor = Position{X: x, Y: y}
	c.hasAnchor = true
	return true
}

// SeedAnchor sets p as anchor only when nothing is anchored yet.
func (c *MoveComposer) SeedAnchor(p Position) bool {
	if c.hasAnchor {
		return false
	}
	return c.SetAnchor(p.X, p.Y)
}

// AppendFromRack appends the tile at rackIndex.
func (c *MoveComposer) AppendFromRack(rackIndex int) bool {
	if c.exchange.Active() || c.used(rackIndex) {
		return false
	}
	letter, ok := c.snap.Rack.Letter(rackIndex)
	if !ok {
		return false
	}
	c.push(letter, Source(rackIndex))
	return true
}

// AppendFromKeyboard appends letter using the first free rack tile that
// holds it. If the next cell already carries that letter on the board,
// the word builds through it and no tile is taken.
func (c *MoveComposer) AppendFromKeyboard(letter string) bool {
	if c.exchange.Active() {
		return false
	}
	next, ok := c.nextCell()
	letter, src, ok := c.resolve(letter, nil, next, ok)
	if !ok {
		return false
	}
	c.push(letter, src)
	return true
}

// PlaceAtCell handles a drop of d.Letter onto (d.X, d.Y):
//  1. nothing composed yet: the cell becomes the anchor;
//  2. one letter composed: the cell must be directly right of or below the
//     anchor, which fixes Row or Column;
//  3. otherwise: the cell must be the next one along the fixed direction.
//
// Any other target is rejected without touching state.
func (c *MoveComposer) PlaceAtCell(d Drop) bool {
	if c.exchange.Active() {
		return false
	}
	p := Position{X: d.X, Y: d.Y}

	switch n := len(c.word); {
	case !c.hasAnchor || n == 0:
		letter, src, ok := c.resolve(d.Letter, d.RackIndex, p, true)
		if !ok {
			return false
		}
		c.anchor, c.hasAnchor = p, true
		c.push(letter, src)

	case n == 1:
		var dir Direction
		switch p {
		case c.anchor.Step(Row, 1):
			dir = Row
		case c.anchor.Step(Column, 1):
			dir = Column
		default:
			return false
		}
		letter, src, ok := c.resolve(d.Letter, d.RackIndex, p, true)
		if !ok {
			return false
		}
		c.dir = dir
		c.push(letter, src)

	default:
		if p != c.anchor.Step(c.dir, n) {
			return false
		}
		letter, src, ok := c.resolve(d.Letter, d.RackIndex, p, true)
		if !ok {
			return false
		}
		c.push(letter, src)
	}
	return true
}

// Backspace drops the last letter and its source. The direction is kept.
func (c *MoveComposer) Backspace() bool {
	n := len(c.word)
	if n == 0 {
		return false
	}
	c.word = c.word[:n-1]
	c.sources = c.sources[:n-1]
	return true
}

// Clear resets anchor, direction and word. Exchange mode is untouched.
func (c *MoveComposer) Clear() {
	c.anchor = Position{}
	c.hasAnchor = false
	c.dir = Undetermined
	c.word = nil
	c.sources = nil
}

// SetDirection picks the axis explicitly. Allowed only until a second
// letter has fixed it.
func (c *MoveComposer) SetDirection(d Direction) bool {
	if c.exchange.Active() || len(c.word) > 1 || (d != Row && d != Column) {
		return false
	}
	c.dir = d
	return true
}

// FlipDirection toggles between Row and Column, same limits as SetDirection.
func (c *MoveComposer) FlipDirection() bool {
	return c.SetDirection(c.dir.Flip())
}

// Sync installs a fresh snapshot. Between turns (newTurn) the move and
// any exchange are dropped but the anchor survives. Within a turn the
// move is kept as is; rack drift shows up in the next Verdict.
func (c *MoveComposer) Sync(snap Snapshot, newTurn bool) {
	c.snap = snap
	if !newTurn {
		return
	}
	c.dir = Undetermined
	c.word = nil
	c.sources = nil
	c.exchange.Cancel()
}

// --- exchange ---------------------------------------------------------------

// StartExchange enters exchange mode; refused while a word is in progress.
func (c *MoveComposer) StartExchange() bool {
	if len(c.word) > 0 || c.exchange.Active() {
		return false
	}
	c.Clear()
	return c.exchange.Start()
}

func (c *MoveComposer) ToggleExchange(index int) bool {
	return c.exchange.Toggle(index, len(c.snap.Rack))
}

func (c *MoveComposer) CancelExchange() bool { return c.exchange.Cancel() }

// ExchangeLetters resolves the selection against the current rack.
func (c *MoveComposer) ExchangeLetters() []string { return c.exchange.Letters(c.snap.Rack) }

// --- internals --------------------------------------------------------------

func (c *MoveComposer) push(letter string, src Source) {
	c.word = append(c.word, letter)
	c.sources = append(c.sources, src)
	if len(c.word) == 2 && c.dir == Undetermined {
		c.dir = Row
	}
}

func (c *MoveComposer) used(rackIndex int) bool {
	for _, s := range c.sources {
		if i, ok := s.RackIndex(); ok && i == rackIndex {
			return true
		}
	}
	return false
}

// nextCell is where the next letter would land.
func (c *MoveComposer) nextCell() (Position, bool) {
	if !c.hasAnchor {
		return Position{}, false
	}
	return c.anchor.Step(c.dir, len(c.word)), true
}

// resolve turns a requested letter into (letter, source).
// A pinned rack index must be free and, if a letter is given too, match it.
// Otherwise the target cell is checked for a matching board tile before
// falling back to the first free rack tile holding the letter.
func (c *MoveComposer) resolve(letter string, rackIndex *int, target Position, haveTarget bool) (string, Source, bool) {
	letter = NormalizeLetter(letter)
	if rackIndex != nil {
		got, ok := c.snap.Rack.Letter(*rackIndex)
		if !ok || c.used(*rackIndex) || (letter != "" && letter != got) {
			return "", 0, false
		}
		return got, Source(*rackIndex), true
	}
	if letter == "" {
		return "", 0, false
	}
	if haveTarget && NormalizeLetter(c.snap.Board.At(target)) == letter {
		return letter, Unsourced, true
	}
	for i := range c.snap.Rack {
		if got, _ := c.snap.Rack.Letter(i); got == letter && !c.used(i) {
			return letter, Source(i), true
		}
	}
	return "", 0, false
}
