package chess

// Snapshot is an immutable copy of the published game state. It shares
// nothing with the engine and may be handed to any goroutine.
type Snapshot struct {
	Cells        [Size][Size]Cell `json:"cells"`
	Placement    string           `json:"placement"`
	Active       Player           `json:"active"`
	Phase        Phase            `json:"phase"`
	Selected     *Coord           `json:"selected,omitempty"`
	Candidates   []Coord          `json:"candidates,omitempty"`
	Promotion    *Coord           `json:"promotion,omitempty"`
	Highlighted  []Coord          `json:"highlighted,omitempty"`
	Winner       *Player          `json:"winner,omitempty"`
	HistoryDepth int              `json:"historyDepth"`
}

// Snapshot captures the current state
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Cells:        e.board.Grid(),
		Placement:    e.board.Placement(),
		Active:       e.active,
		Phase:        e.phase,
		Highlighted:  append([]Coord(nil), e.highlighted...),
		HistoryDepth: e.history.Len(),
	}
	if at, ok := e.Selected(); ok {
		s.Selected = &at
		s.Candidates = Destinations(e.candidates)
	}
	if at, ok := e.PendingPromotion(); ok {
		s.Promotion = &at
	}
	if winner, ok := e.Winner(); ok {
		s.Winner = &winner
	}
	return s
}

// Board rebuilds a board from the snapshot
func (s Snapshot) Board() *Board {
	return &Board{cells: s.Cells}
}
