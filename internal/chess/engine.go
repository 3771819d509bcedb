package chess

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Engine is the turn state machine. It is the only thing that mutates its
// board, history and game state, and it is not safe for concurrent use: a
// single owner must feed it one input at a time.
type Engine struct {
	board   *Board
	history *History
	logger  zerolog.Logger

	active      Player
	phase       Phase
	selected    Coord
	candidates  []Move
	promotion   Coord
	highlighted []Coord
	winner      Player
}

// Option configures an engine
type Option func(*Engine)

// WithLogger sets the diagnostic logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHistoryLimit caps the undo depth; 0 is unbounded
func WithHistoryLimit(limit int) Option {
	return func(e *Engine) {
		e.history = NewHistory(limit)
	}
}

// NewEngine starts a game from the standard layout with player 0 to move
func NewEngine(opts ...Option) *Engine {
	return NewEngineFromBoard(StandardBoard(), PlayerOne, opts...)
}

// NewEngineFromBoard starts a game from an arbitrary position. The board
// is copied. NewGame still resets to the standard layout.
func NewEngineFromBoard(board *Board, active Player, opts ...Option) *Engine {
	e := &Engine{
		board:   board.Clone(),
		history: NewHistory(0),
		logger:  zerolog.Nop(),
		active:  active,
		phase:   PhaseIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Board returns a copy of the live board
func (e *Engine) Board() *Board {
	return e.board.Clone()
}

func (e *Engine) ActivePlayer() Player {
	return e.active
}

func (e *Engine) Phase() Phase {
	return e.phase
}

// Selected returns the selected cell while in PhaseSelected
func (e *Engine) Selected() (Coord, bool) {
	return e.selected, e.phase == PhaseSelected
}

// Candidates returns the cached candidate moves of the selection
func (e *Engine) Candidates() []Move {
	return append([]Move(nil), e.candidates...)
}

// PendingPromotion returns the cell of the pawn awaiting promotion
func (e *Engine) PendingPromotion() (Coord, bool) {
	return e.promotion, e.phase == PhasePromotionPending
}

// Winner returns the player who captured a king
func (e *Engine) Winner() (Player, bool) {
	return e.winner, e.phase == PhaseGameOver
}

func (e *Engine) HistoryLen() int {
	return e.history.Len()
}

// NewGame resets to the standard layout, clears history and hands the move
// to player 0. It is accepted in every phase.
func (e *Engine) NewGame() []Event {
	e.board = StandardBoard()
	e.history.Clear()
	e.active = PlayerOne
	e.phase = PhaseIdle
	e.selected = Coord{}
	e.candidates = nil
	e.promotion = Coord{}
	e.highlighted = nil
	e.winner = PlayerOne

	e.logger.Info().Msg("New game")

	events := make([]Event, 0, Size*Size+1)
	for _, cell := range e.board.Cells() {
		events = append(events, CellRecolored{Coord: cell.Coord, Color: cell.Color})
	}
	return append(events, turnChanged(e.active))
}

// ApplyInput handles a board touch. Only releases act. Invalid input is
// absorbed and logged, never returned.
func (e *Engine) ApplyInput(in Input) []Event {
	if in.Pressed {
		return nil
	}
	if !in.Coord.InBounds() {
		e.absorb(ErrIllegalSelection, in.Coord, "Coordinate off the board")
		return nil
	}

	switch e.phase {
	case PhaseIdle:
		return e.handleIdle(in.Coord)
	case PhaseSelected:
		return e.handleSelected(in.Coord)
	case PhasePromotionPending:
		e.absorb(ErrPromotionPending, in.Coord, "Waiting for promotion choice")
	case PhaseGameOver:
		e.absorb(ErrGameOver, in.Coord, "Game is over")
	}
	return nil
}

// Promote resolves a pending promotion. Anything other than rook, knight,
// bishop or queen is ignored and the promotion stays pending.
func (e *Engine) Promote(kind Kind) []Event {
	if e.phase != PhasePromotionPending {
		e.logger.Debug().Err(ErrInvalidPromotionChoice).Str("kind", kind.String()).Msg("No promotion pending")
		return nil
	}
	if !IsPromotionChoice(kind) {
		e.absorb(ErrInvalidPromotionChoice, e.promotion, "Rejected promotion choice "+kind.String())
		return nil
	}

	at := e.promotion
	e.board.Place(at, Piece{Kind: kind, Player: e.active})
	e.logger.Info().Str("cell", at.String()).Str("kind", kind.String()).Msg("Promoted pawn")

	events := []Event{
		CellRecolored{Coord: at, Color: e.board.At(at).Color},
		PromotionResolved{Coord: at, Kind: kind},
	}
	e.promotion = Coord{}
	e.phase = PhaseIdle
	return append(events, e.advanceTurn())
}

// Undo restores the board and active player from before the last committed
// move. It is ignored mid-promotion, after the game ended, and when there
// is no history.
func (e *Engine) Undo() []Event {
	switch e.phase {
	case PhasePromotionPending:
		e.logger.Debug().Err(ErrPromotionPending).Msg("Undo ignored")
		return nil
	case PhaseGameOver:
		e.logger.Debug().Err(ErrGameOver).Msg("Undo ignored")
		return nil
	}

	entry, ok := e.history.Pop()
	if !ok {
		e.logger.Debug().Err(ErrEmptyHistory).Msg("Undo ignored")
		return nil
	}

	events := e.clearHighlights()
	previous := e.board
	e.board = entry.Board
	e.active = entry.Player
	e.phase = PhaseIdle
	e.selected = Coord{}
	e.candidates = nil

	for _, cell := range e.board.Cells() {
		if previous.At(cell.Coord).Color != cell.Color {
			events = append(events, CellRecolored{Coord: cell.Coord, Color: cell.Color})
		}
	}
	e.logger.Info().Str("player", e.active.String()).Int("depth", e.history.Len()).Msg("Undid move")
	return append(events, turnChanged(e.active))
}

func (e *Engine) handleIdle(at Coord) []Event {
	events := e.clearHighlights()
	cell := e.board.At(at)

	if cell.Empty() {
		e.absorb(ErrIllegalSelection, at, "Empty cell")
		return events
	}
	if cell.Piece.Player != e.active {
		// Inspecting an opponent piece shows its reach without selecting it.
		e.absorb(ErrIllegalSelection, at, "Inspecting opponent piece")
		return append(events, e.highlight(GenerateMoves(e.board, at), cell.Color)...)
	}
	return append(events, e.selectCell(at)...)
}

func (e *Engine) handleSelected(at Coord) []Event {
	events := e.clearHighlights()

	if at == e.selected {
		e.deselect()
		return events
	}

	cell := e.board.At(at)
	if !cell.Empty() && cell.Piece.Player == e.active {
		return append(events, e.selectCell(at)...)
	}

	for _, move := range e.candidates {
		if move.Destination() == at {
			return append(events, e.execute(move)...)
		}
	}

	e.absorb(ErrIllegalDestination, at, "Illegal move from "+e.selected.String())
	e.deselect()
	return events
}

func (e *Engine) selectCell(at Coord) []Event {
	cell := e.board.At(at)
	e.phase = PhaseSelected
	e.selected = at
	e.candidates = CandidateMoves(e.board, at, e.active)

	events := []Event{PieceSelected{Coord: at, Piece: cell.Piece, Sample: cell.Piece.Sample()}}
	return append(events, e.highlight(e.candidates, cell.Color)...)
}

func (e *Engine) deselect() {
	e.phase = PhaseIdle
	e.selected = Coord{}
	e.candidates = nil
}

func (e *Engine) execute(move Move) []Event {
	from := e.selected
	to := move.Destination()
	mover := e.board.At(from).Piece
	played := MovePlayed{From: from, To: to, Move: move.Name(), Piece: mover, Sample: mover.Sample()}
	var events []Event
	capturedKing := false

	e.history.Push(e.active, e.board)

	switch m := move.(type) {
	case Step:
	case Capture:
		captured := e.board.At(m.To).Piece
		played.Captured = &captured
		capturedKing = captured.Kind == King
	case EnPassant:
		captured := e.board.At(m.Captured).Piece
		played.Captured = &captured
		e.board.Clear(m.Captured)
		events = append(events, CellRecolored{Coord: m.Captured, Color: 0})
	case Castle:
		rook := e.board.At(m.RookFrom).Piece
		e.board.Clear(m.RookFrom)
		e.board.Place(m.RookTo, rook)
		events = append(events,
			CellRecolored{Coord: m.RookFrom, Color: 0},
			CellRecolored{Coord: m.RookTo, Color: e.board.At(m.RookTo).Color},
		)
	default:
		e.history.Pop()
		e.logger.Error().Str("move", fmt.Sprintf("%T", move)).Msg("Unknown move variant")
		e.deselect()
		return nil
	}

	e.board.Clear(from)
	e.board.Place(to, mover)
	events = append(events,
		CellRecolored{Coord: from, Color: 0},
		CellRecolored{Coord: to, Color: e.board.At(to).Color},
		played,
	)
	e.deselect()

	e.logger.Info().
		Str("player", e.active.String()).
		Str("piece", mover.Kind.String()).
		Str("from", from.String()).
		Str("to", to.String()).
		Str("move", move.Name()).
		Str("placement", e.board.Placement()).
		Msg("Move played")

	if capturedKing {
		e.phase = PhaseGameOver
		e.winner = e.active
		e.logger.Info().Str("winner", e.active.String()).Msg("King captured, game over")
		return append(events, GameEnded{Winner: e.active, Coord: to})
	}

	if mover.Kind == Pawn && to.Rank == PromotionRank(e.active) {
		e.phase = PhasePromotionPending
		e.promotion = to
		colors := make([]Color, 0, len(PromotionChoices))
		for _, kind := range PromotionChoices {
			colors = append(colors, Piece{Kind: kind, Player: e.active}.Color())
		}
		e.logger.Info().Str("cell", to.String()).Msg("Waiting for promotion")
		return append(events, PromotionOffered{
			Coord:   to,
			Choices: append([]Kind(nil), PromotionChoices...),
			Colors:  colors,
		})
	}

	return append(events, e.advanceTurn())
}

func (e *Engine) advanceTurn() Event {
	e.active = e.active.Opponent()
	return turnChanged(e.active)
}

func (e *Engine) highlight(moves []Move, color Color) []Event {
	if len(moves) == 0 {
		return nil
	}
	e.highlighted = Destinations(moves)
	return []Event{CellsHighlighted{Coords: append([]Coord(nil), e.highlighted...), Color: color}}
}

func (e *Engine) clearHighlights() []Event {
	if len(e.highlighted) == 0 {
		return nil
	}
	events := make([]Event, 0, len(e.highlighted))
	for _, c := range e.highlighted {
		events = append(events, CellRecolored{Coord: c, Color: e.board.At(c).Color})
	}
	e.highlighted = nil
	return events
}

func (e *Engine) absorb(err error, at Coord, msg string) {
	e.logger.Debug().
		Err(err).
		Str("cell", at.String()).
		Str("phase", e.phase.String()).
		Str("player", e.active.String()).
		Msg(msg)
}
