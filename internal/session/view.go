package session

import "github.com/robalobadob/crossplay/apps/go-client/internal/compose"

// View is the JSON document the browser renders from.
type View struct {
	SessionID   string `json:"sessionId"`
	GameID      string `json:"gameId"`
	PlayerIndex int    `json:"playerIndex"`
	Nickname    string `json:"nickname,omitempty"`

	State     compose.State       `json:"state"`
	Anchor    *compose.Position   `json:"anchor"`
	Direction compose.Direction   `json:"direction"`
	Word      []string            `json:"word"`
	Sources   []compose.Source    `json:"sources"`
	Cells     []compose.Placement `json:"cells"`
	UsedRack  []int               `json:"usedRack"`
	Exchange  ExchangeView        `json:"exchange"`
	Verdict   VerdictView         `json:"verdict"`

	Board         compose.Board `json:"board"`
	Rack          compose.Rack  `json:"rack"`
	CurrentPlayer int           `json:"currentPlayer"`
	YourTurn      bool          `json:"yourTurn"`
	Pending       bool          `json:"pending"`
	LastError     string        `json:"lastError,omitempty"`
}

type ExchangeView struct {
	Active    bool  `json:"active"`
	Selection []int `json:"selection"`
}

type VerdictView struct {
	compose.Verdict
	OK bool `json:"ok"`
}

// View renders the session under its lock.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.composer
	snap := c.Snapshot()
	cand := c.Candidate()
	verdict := c.Verdict()

	v := View{
		SessionID:     s.ID,
		GameID:        s.GameID,
		PlayerIndex:   s.PlayerIndex,
		Nickname:      s.Nickname,
		State:         c.State(),
		Direction:     c.Direction(),
		Word:          c.Word(),
		Sources:       c.Sources(),
		Cells:         compose.Placements(cand),
		UsedRack:      []int{},
		Exchange:      ExchangeView{Active: c.Exchanging(), Selection: c.ExchangeSelection()},
		Verdict:       VerdictView{Verdict: verdict, OK: verdict.OK()},
		Board:         snap.Board,
		Rack:          snap.Rack,
		CurrentPlayer: s.current,
		YourTurn:      s.current == s.PlayerIndex,
		Pending:       s.pending,
		LastError:     s.lastError,
	}
	if p, ok := c.Anchor(); ok {
		v.Anchor = &p
	}
	for _, src := range v.Sources {
		if i, ok := src.RackIndex(); ok {
			v.UsedRack = append(v.UsedRack, i)
		}
	}
	if v.Cells == nil {
		v.Cells = []compose.Placement{}
	}
	if v.Exchange.Selection == nil {
		v.Exchange.Selection = []int{}
	}
	return v
}
