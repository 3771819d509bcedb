package chess

// kingHome is the label of each player's king start square. Castling is
// only offered to a king standing on it; whether the king or rook ever
// moved is not tracked.
var kingHome = [2]string{"e1", "e8"}

type castleSide struct {
	rookFile   int
	between    []int
	kingToFile int
	rookToFile int
}

// queen side first, then king side
var castleSides = []castleSide{
	{rookFile: 0, between: []int{1, 2, 3}, kingToFile: 2, rookToFile: 3},
	{rookFile: 7, between: []int{5, 6}, kingToFile: 6, rookToFile: 5},
}

// pawnDirection is the rank delta of a forward pawn step
func pawnDirection(p Player) int {
	if p == PlayerOne {
		return 1
	}
	return -1
}

func pawnStartRank(p Player) int {
	if p == PlayerOne {
		return 1
	}
	return Size - 2
}

// PromotionRank is the rank on which a pawn of p promotes
func PromotionRank(p Player) int {
	if p == PlayerOne {
		return Size - 1
	}
	return 0
}

// GenerateMoves returns the candidate moves of the piece on from under the
// simplified rules: no check detection, castling keyed off the king's home
// square. The result is ordered by offset index, then distance. It never
// mutates the board and returns nil for an empty or off-board cell.
func GenerateMoves(b *Board, from Coord) []Move {
	if !from.InBounds() {
		return nil
	}
	cell := b.At(from)
	if cell.Empty() {
		return nil
	}
	piece := cell.Piece
	spec, ok := catalog[piece.Kind]
	if !ok {
		return nil
	}

	var moves []Move
	switch spec.Pattern {
	case PatternPawn:
		moves = pawnMoves(b, from, piece.Player)
	case PatternSlide:
		moves = slideMoves(b, from, piece.Player, spec.Offsets)
	case PatternStep:
		moves = stepMoves(b, from, piece.Player, spec.Offsets)
	}
	if piece.Kind == King {
		moves = append(moves, castleMoves(b, from, piece.Player)...)
	}
	return moves
}

// CandidateMoves is GenerateMoves restricted to pieces owned by player.
// A foreign-owned source cell yields nil.
func CandidateMoves(b *Board, from Coord, player Player) []Move {
	cell := b.At(from)
	if cell.Empty() || cell.Piece.Player != player {
		return nil
	}
	return GenerateMoves(b, from)
}

func slideMoves(b *Board, from Coord, player Player, offsets []Offset) []Move {
	var moves []Move
	for _, off := range offsets {
		for to := from.Add(off); to.InBounds(); to = to.Add(off) {
			target := b.At(to)
			if target.Empty() {
				moves = append(moves, Step{To: to})
				continue
			}
			if target.Piece.Player != player {
				moves = append(moves, Capture{To: to})
			}
			break
		}
	}
	return moves
}

func stepMoves(b *Board, from Coord, player Player, offsets []Offset) []Move {
	var moves []Move
	for _, off := range offsets {
		to := from.Add(off)
		if !to.InBounds() {
			continue
		}
		target := b.At(to)
		switch {
		case target.Empty():
			moves = append(moves, Step{To: to})
		case target.Piece.Player != player:
			moves = append(moves, Capture{To: to})
		}
	}
	return moves
}

func pawnMoves(b *Board, from Coord, player Player) []Move {
	var moves []Move
	dir := pawnDirection(player)

	one := Coord{Rank: from.Rank + dir, File: from.File}
	if !one.InBounds() {
		return nil
	}
	if b.At(one).Empty() {
		moves = append(moves, Step{To: one})

		// Both conditions must hold: on the start rank and the path clear.
		two := Coord{Rank: from.Rank + 2*dir, File: from.File}
		if from.Rank == pawnStartRank(player) && two.InBounds() && b.At(two).Empty() {
			moves = append(moves, Step{To: two})
		}
	}

	sides := []int{-1, 1}
	for _, df := range sides {
		diag := Coord{Rank: one.Rank, File: from.File + df}
		if !diag.InBounds() {
			continue
		}
		target := b.At(diag)
		if !target.Empty() && target.Piece.Player != player {
			moves = append(moves, Capture{To: diag})
		}
	}

	for _, df := range sides {
		diag := Coord{Rank: one.Rank, File: from.File + df}
		if !diag.InBounds() || !b.At(diag).Empty() {
			continue
		}
		beside := Coord{Rank: from.Rank, File: diag.File}
		neighbour := b.At(beside).Piece
		if neighbour.Kind == Pawn && neighbour.Player != player {
			moves = append(moves, EnPassant{To: diag, Captured: beside})
		}
	}
	return moves
}

func castleMoves(b *Board, from Coord, player Player) []Move {
	if player != PlayerOne && player != PlayerTwo {
		return nil
	}
	if from.String() != kingHome[player] {
		return nil
	}

	var moves []Move
	for _, side := range castleSides {
		rookFrom := Coord{Rank: from.Rank, File: side.rookFile}
		rook := b.At(rookFrom).Piece
		if rook.Kind != Rook || rook.Player != player {
			continue
		}
		if !pathClear(b, from.Rank, side.between) {
			continue
		}
		moves = append(moves, Castle{
			KingTo:   Coord{Rank: from.Rank, File: side.kingToFile},
			RookFrom: rookFrom,
			RookTo:   Coord{Rank: from.Rank, File: side.rookToFile},
		})
	}
	return moves
}

func pathClear(b *Board, rank int, files []int) bool {
	for _, file := range files {
		if !b.At(Coord{Rank: rank, File: file}).Empty() {
			return false
		}
	}
	return true
}
