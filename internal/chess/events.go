package chess

// EventType names an output event for display and audio layers
type EventType string

const (
	EventCellRecolored     EventType = "cell_recolored"
	EventCellsHighlighted  EventType = "cells_highlighted"
	EventPieceSelected     EventType = "piece_selected"
	EventMovePlayed        EventType = "move_played"
	EventTurnChanged       EventType = "turn_changed"
	EventPromotionOffered  EventType = "promotion_offered"
	EventPromotionResolved EventType = "promotion_resolved"
	EventGameEnded         EventType = "game_ended"
)

// Event is an output notification produced by a completed transition
type Event interface {
	Type() EventType
}

// CellRecolored sets a pad to a steady colour
type CellRecolored struct {
	Coord Coord `json:"coord"`
	Color Color `json:"color"`
}

// CellsHighlighted flashes candidate destinations in the colour of the
// piece that can reach them
type CellsHighlighted struct {
	Coords []Coord `json:"coords"`
	Color  Color   `json:"color"`
}

// PieceSelected is the audio cue for a selection
type PieceSelected struct {
	Coord  Coord  `json:"coord"`
	Piece  Piece  `json:"piece"`
	Sample string `json:"sample"`
}

// MovePlayed is emitted for every committed move
type MovePlayed struct {
	From     Coord  `json:"from"`
	To       Coord  `json:"to"`
	Move     string `json:"move"`
	Piece    Piece  `json:"piece"`
	Captured *Piece `json:"captured,omitempty"`
	Sample   string `json:"sample"`
}

// TurnChanged reports the active player; Color lights the turn indicator
type TurnChanged struct {
	Player Player `json:"player"`
	Color  Color  `json:"color"`
}

type PromotionOffered struct {
	Coord   Coord   `json:"coord"`
	Choices []Kind  `json:"choices"`
	Colors  []Color `json:"colors"`
}

type PromotionResolved struct {
	Coord Coord `json:"coord"`
	Kind  Kind  `json:"kind"`
}

// GameEnded is emitted when a king is captured
type GameEnded struct {
	Winner Player `json:"winner"`
	Coord  Coord  `json:"coord"`
}

func (CellRecolored) Type() EventType     { return EventCellRecolored }
func (CellsHighlighted) Type() EventType  { return EventCellsHighlighted }
func (PieceSelected) Type() EventType     { return EventPieceSelected }
func (MovePlayed) Type() EventType        { return EventMovePlayed }
func (TurnChanged) Type() EventType       { return EventTurnChanged }
func (PromotionOffered) Type() EventType  { return EventPromotionOffered }
func (PromotionResolved) Type() EventType { return EventPromotionResolved }
func (GameEnded) Type() EventType         { return EventGameEnded }

func turnChanged(p Player) TurnChanged {
	return TurnChanged{Player: p, Color: Piece{Kind: Pawn, Player: p}.Color()}
}
