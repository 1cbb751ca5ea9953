// internal/compose/verdict.go
//
// Client-side pre-submission check of a composed move.
//
// The verdict is advisory: the game service still enforces dictionary and
// connectivity rules and may reject a move reported OK here. It is always
// recomputed from an explicit Candidate and never cached, so a refreshed
// board or rack is picked up by the next call.

package compose

// Candidate is everything Evaluate looks at.
type Candidate struct {
	Board     Board
	Rack      Rack
	Anchor    Position
	Anchored  bool
	Direction Direction
	Word      []string
}

// Verdict is the structured outcome of Evaluate.
type Verdict struct {
	Fits      bool           `json:"fits"`
	Conflicts bool           `json:"conflicts"`
	Missing   map[string]int `json:"missing"`
}

// OK reports whether nothing blocks submission.
func (v Verdict) OK() bool {
	return v.Fits && !v.Conflicts && len(v.Missing) == 0
}

// Evaluate checks the candidate word against board and rack:
//   - Fits:      every target cell lies on the board.
//   - Conflicts: some occupied target cell holds a different letter.
//   - Missing:   letters needed on empty cells that the rack cannot supply,
//     consuming rack tiles without replacement across the word.
//
// Cells already holding the same letter are built through and use no tile.
// With no anchor or no letters there is nothing to place and Fits is false.
func Evaluate(c Candidate) Verdict {
	v := Verdict{Missing: map[string]int{}}
	if !c.Anchored || len(c.Word) == 0 {
		return v
	}

	pool := make(map[string]int, len(c.Rack))
	for _, l := range c.Rack {
		pool[NormalizeLetter(l)]++
	}

	v.Fits = true
	for i, p := range targets(c.Anchor, c.Direction, len(c.Word)) {
		if !c.Board.InBounds(p) {
			v.Fits = false
			continue
		}
		letter := NormalizeLetter(c.Word[i])
		if existing := c.Board.At(p); existing != "" {
			if NormalizeLetter(existing) != letter {
				v.Conflicts = true
			}
			continue
		}
		if pool[letter] > 0 {
			pool[letter]--
			continue
		}
		v.Missing[letter]++
	}
	return v
}

// Placement describes one target cell of the composed word.
type Placement struct {
	Position
	Letter   string `json:"letter"`
	New      bool   `json:"new"`
	OnBoard  bool   `json:"onBoard"`
	Conflict bool   `json:"conflict"`
}

// Placements lays the candidate word out cell by cell for rendering.
func Placements(c Candidate) []Placement {
	if !c.Anchored {
		return nil
	}
	out := make([]Placement, 0, len(c.Word))
	for i, p := range targets(c.Anchor, c.Direction, len(c.Word)) {
		letter := NormalizeLetter(c.Word[i])
		existing := c.Board.At(p)
		out = append(out, Placement{
			Position: p,
			Letter:   letter,
			New:      existing == "",
			OnBoard:  c.Board.InBounds(p),
			Conflict: existing != "" && NormalizeLetter(existing) != letter,
		})
	}
	return out
}

// targets lists the n cells a word covers from anchor along d. A word
// with an undetermined direction has at most one letter, so the axis
// does not matter for it.
func targets(anchor Position, d Direction, n int) []Position {
	out := make([]Position, n)
	for i := range out {
		out[i] = anchor.Step(d, i)
	}
	return out
}
