package chess

import "errors"

// Invalid inputs never fail an operation. They are absorbed as no-ops and
// reported to the diagnostic log with one of these errors attached.
var (
	// ErrIllegalSelection: an empty cell, or a cell the active player does not own, was chosen while idle
	ErrIllegalSelection = errors.New("illegal selection")
	// ErrIllegalDestination: the chosen cell is not among the cached candidates
	ErrIllegalDestination = errors.New("illegal destination")
	// ErrEmptyHistory: undo with nothing to pop
	ErrEmptyHistory = errors.New("empty history")
	// ErrInvalidPromotionChoice: not one of rook, knight, bishop, queen, or no promotion pending
	ErrInvalidPromotionChoice = errors.New("invalid promotion choice")
	// ErrPromotionPending: board input or undo while waiting for a promotion choice
	ErrPromotionPending = errors.New("promotion pending")
	// ErrGameOver: input after a king was captured
	ErrGameOver = errors.New("game over")
)
