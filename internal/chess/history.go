package chess

// HistoryEntry is the board as it stood before a committed move, and the
// player who made that move
type HistoryEntry struct {
	Player Player
	Board  *Board
}

// History is the undo stack. Entries own independent board copies.
type History struct {
	entries []HistoryEntry
	limit   int
}

// NewHistory creates a history holding at most limit entries; the oldest
// entries are dropped beyond that. A limit of 0 means unbounded.
func NewHistory(limit int) *History {
	if limit < 0 {
		limit = 0
	}
	return &History{limit: limit}
}

// Push records a deep copy of board
func (h *History) Push(player Player, board *Board) {
	h.entries = append(h.entries, HistoryEntry{Player: player, Board: board.Clone()})
	if h.limit > 0 && len(h.entries) > h.limit {
		n := copy(h.entries, h.entries[len(h.entries)-h.limit:])
		for i := n; i < len(h.entries); i++ {
			h.entries[i] = HistoryEntry{}
		}
		h.entries = h.entries[:n]
	}
}

// Pop removes and returns the most recent entry
func (h *History) Pop() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	last := len(h.entries) - 1
	entry := h.entries[last]
	h.entries[last] = HistoryEntry{}
	h.entries = h.entries[:last]
	return entry, true
}

func (h *History) Len() int {
	return len(h.entries)
}

func (h *History) Clear() {
	h.entries = nil
}
