package chess

// Move is a candidate move. The set of variants is closed: Step, Capture,
// EnPassant and Castle.
type Move interface {
	// Destination is the cell the moving piece lands on
	Destination() Coord
	// Name is a stable identifier for the variant, used by display and audio layers
	Name() string
	isMove()
}

// Step moves onto an empty cell
type Step struct {
	To Coord `json:"to"`
}

// Capture moves onto a cell held by an opposing piece
type Capture struct {
	To Coord `json:"to"`
}

// EnPassant moves a pawn diagonally onto an empty cell and removes the
// opposing pawn beside it
type EnPassant struct {
	To       Coord `json:"to"`
	Captured Coord `json:"captured"`
}

// Castle moves the king two cells toward a rook and the rook to the cell
// the king crossed
type Castle struct {
	KingTo   Coord `json:"kingTo"`
	RookFrom Coord `json:"rookFrom"`
	RookTo   Coord `json:"rookTo"`
}

func (m Step) Destination() Coord      { return m.To }
func (m Capture) Destination() Coord   { return m.To }
func (m EnPassant) Destination() Coord { return m.To }
func (m Castle) Destination() Coord    { return m.KingTo }

func (Step) Name() string      { return "step" }
func (Capture) Name() string   { return "capture" }
func (EnPassant) Name() string { return "en_passant" }
func (Castle) Name() string    { return "castle" }

func (Step) isMove()      {}
func (Capture) isMove()   {}
func (EnPassant) isMove() {}
func (Castle) isMove()    {}

// Destinations returns the landing cell of every move, in order
func Destinations(moves []Move) []Coord {
	coords := make([]Coord, 0, len(moves))
	for _, m := range moves {
		coords = append(coords, m.Destination())
	}
	return coords
}
