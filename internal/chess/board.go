package chess

import (
	"fmt"
)

// Size is the number of ranks and files on the board
const Size = 8

// Coord addresses a cell by rank and file, both 0-7
type Coord struct {
	Rank int `json:"rank"`
	File int `json:"file"`
}

func (c Coord) InBounds() bool {
	return c.Rank >= 0 && c.Rank < Size && c.File >= 0 && c.File < Size
}

// Add returns the coordinate displaced by o. The result may be off the board.
func (c Coord) Add(o Offset) Coord {
	return Coord{Rank: c.Rank + o.DRank, File: c.File + o.DFile}
}

// String returns the cell label, "a1" for (0,0) through "h8" for (7,7)
func (c Coord) String() string {
	if !c.InBounds() {
		return fmt.Sprintf("(%d,%d)", c.Rank, c.File)
	}
	return fmt.Sprintf("%c%d", 'a'+c.File, c.Rank+1)
}

// ParseCoord parses a cell label such as "e2"
func ParseCoord(label string) (Coord, bool) {
	if len(label) != 2 {
		return Coord{}, false
	}
	c := Coord{Rank: int(label[1]) - '1', File: int(label[0]) - 'a'}
	if !c.InBounds() {
		return Coord{}, false
	}
	return c, true
}

// MustCoord is ParseCoord for labels known to be valid
func MustCoord(label string) Coord {
	c, ok := ParseCoord(label)
	if !ok {
		panic(fmt.Sprintf("invalid cell label %q", label))
	}
	return c
}

// Cell is one board square. Color always tracks the occupant.
type Cell struct {
	Coord Coord `json:"coord"`
	Piece Piece `json:"piece"`
	Color Color `json:"color"`
}

func (c Cell) Empty() bool {
	return c.Piece.IsZero()
}

// Board is the 8x8 grid. It owns every cell and piece; copying a Board
// value copies all of them.
type Board struct {
	cells [Size][Size]Cell
}

// NewBoard returns an empty board
func NewBoard() *Board {
	b := &Board{}
	for rank := 0; rank < Size; rank++ {
		for file := 0; file < Size; file++ {
			b.cells[rank][file].Coord = Coord{Rank: rank, File: file}
		}
	}
	return b
}

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StandardBoard returns the initial layout
func StandardBoard() *Board {
	b := NewBoard()
	for file := 0; file < Size; file++ {
		b.Place(Coord{Rank: 0, File: file}, Piece{Kind: backRank[file], Player: PlayerOne})
		b.Place(Coord{Rank: 1, File: file}, Piece{Kind: Pawn, Player: PlayerOne})
		b.Place(Coord{Rank: 6, File: file}, Piece{Kind: Pawn, Player: PlayerTwo})
		b.Place(Coord{Rank: 7, File: file}, Piece{Kind: backRank[file], Player: PlayerTwo})
	}
	return b
}

// At returns the cell at c. Off-board coordinates yield an empty cell.
func (b *Board) At(c Coord) Cell {
	if !c.InBounds() {
		return Cell{Coord: c}
	}
	return b.cells[c.Rank][c.File]
}

// Place puts p on c, replacing any occupant
func (b *Board) Place(c Coord, p Piece) {
	if !c.InBounds() {
		return
	}
	b.cells[c.Rank][c.File].Piece = p
	b.cells[c.Rank][c.File].Color = p.Color()
}

// Clear empties c and unlights it
func (b *Board) Clear(c Coord) {
	b.Place(c, Piece{})
}

// Clone returns an independent deep copy
func (b *Board) Clone() *Board {
	clone := *b
	return &clone
}

func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.cells == other.cells
}

// Cells returns all 64 cells, rank 0 first
func (b *Board) Cells() []Cell {
	cells := make([]Cell, 0, Size*Size)
	for rank := 0; rank < Size; rank++ {
		cells = append(cells, b.cells[rank][:]...)
	}
	return cells
}

// Find returns the coordinates holding p
func (b *Board) Find(p Piece) []Coord {
	var found []Coord
	for _, cell := range b.Cells() {
		if cell.Piece == p {
			found = append(found, cell.Coord)
		}
	}
	return found
}

// Grid returns a copy of the cells indexed [rank][file]
func (b *Board) Grid() [Size][Size]Cell {
	return b.cells
}
