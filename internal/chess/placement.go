package chess

import (
	notnil "github.com/notnil/chess"
)

var notnilKinds = map[Kind]notnil.PieceType{
	Pawn:   notnil.Pawn,
	Rook:   notnil.Rook,
	Knight: notnil.Knight,
	Bishop: notnil.Bishop,
	Queen:  notnil.Queen,
	King:   notnil.King,
}

var notnilColors = [2]notnil.Color{notnil.White, notnil.Black}

// Placement renders the board as the piece-placement field of a FEN record,
// player 0 as white. It is meant for logs and snapshots only.
func (b *Board) Placement() string {
	squares := make(map[notnil.Square]notnil.Piece)
	for _, cell := range b.Cells() {
		if cell.Empty() {
			continue
		}
		kind, ok := notnilKinds[cell.Piece.Kind]
		if !ok || cell.Piece.Player < PlayerOne || cell.Piece.Player > PlayerTwo {
			continue
		}
		sq := notnil.NewSquare(notnil.File(cell.Coord.File), notnil.Rank(cell.Coord.Rank))
		squares[sq] = notnil.NewPiece(kind, notnilColors[cell.Piece.Player])
	}
	return notnil.NewBoard(squares).String()
}
