// internal/compose/exchange.go
//
// ExchangeSelector collects the rack slots a player wants to swap for
// fresh tiles. It shares the rack with MoveComposer but the two modes
// never overlap: MoveComposer refuses to start an exchange while a word
// is in progress and refuses letters while an exchange is active.

package compose

import "sort"

// ExchangeSelector is the set of rack indices marked for exchange.
type ExchangeSelector struct {
	active   bool
	selected map[int]struct{}
}

// Active reports whether exchange mode is on.
func (e *ExchangeSelector) Active() bool { return e.active }

// Start enters exchange mode with an empty selection.
func (e *ExchangeSelector) Start() bool {
	if e.active {
		return false
	}
	e.active = true
	e.selected = make(map[int]struct{})
	return true
}

// Toggle adds or removes index. Indices outside [0, rackSize) are ignored.
func (e *ExchangeSelector) Toggle(index, rackSize int) bool {
	if !e.active || index < 0 || index >= rackSize {
		return false
	}
	if _, ok := e.selected[index]; ok {
		delete(e.selected, index)
	} else {
		e.selected[index] = struct{}{}
	}
	return true
}

// Cancel leaves exchange mode and drops the selection.
func (e *ExchangeSelector) Cancel() bool {
	if !e.active {
		return false
	}
	e.active = false
	e.selected = nil
	return true
}

// Selection returns the selected indices in ascending order.
func (e *ExchangeSelector) Selection() []int {
	out := make([]int, 0, len(e.selected))
	for i := range e.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Letters resolves the selection against rack. Indices the rack no
// longer has (stale after a refresh) are dropped.
func (e *ExchangeSelector) Letters(rack Rack) []string {
	out := make([]string, 0, len(e.selected))
	for _, i := range e.Selection() {
		if l, ok := rack.Letter(i); ok {
			out = append(out, l)
		}
	}
	return out
}
