package chess

import (
	"math/rand"
	"testing"
)

// randomPlayout drives the engine through random candidate moves and calls
// check after every committed move. It stops when the game ends.
func randomPlayout(t *testing.T, seed int64, plies int, check func(before Snapshot, e *Engine)) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	engine := NewEngine()

	for ply := 0; ply < plies && engine.Phase() != PhaseGameOver; ply++ {
		if engine.Phase() == PhasePromotionPending {
			engine.Promote(PromotionChoices[rng.Intn(len(PromotionChoices))])
			continue
		}

		var movable []Coord
		board := engine.Board()
		for _, cell := range board.Cells() {
			if len(CandidateMoves(board, cell.Coord, engine.ActivePlayer())) > 0 {
				movable = append(movable, cell.Coord)
			}
		}
		if len(movable) == 0 {
			return
		}

		from := movable[rng.Intn(len(movable))]
		engine.ApplyInput(Input{Coord: from})
		candidates := engine.Candidates()
		before := engine.Snapshot()
		to := candidates[rng.Intn(len(candidates))].Destination()
		engine.ApplyInput(Input{Coord: to})

		check(before, engine)
	}
}

func TestUndoIsStrictInverseOfOneMove(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		randomPlayout(t, seed, 120, func(before Snapshot, e *Engine) {
			if e.Phase() == PhaseGameOver || e.Phase() == PhasePromotionPending {
				return
			}
			after := e.Board()
			afterPlayer := e.ActivePlayer()

			e.Undo()
			if !e.Board().Equal(before.Board()) {
				t.Fatalf("seed %d: undo did not restore %s, got %s", seed, before.Placement, e.Board().Placement())
			}
			if e.ActivePlayer() != before.Active {
				t.Fatalf("seed %d: undo restored %s, expected %s", seed, e.ActivePlayer(), before.Active)
			}

			// replay the same move so the playout continues
			restored := NewEngineFromBoard(after, afterPlayer)
			*e = *restored
		})
	}
}

func TestBoardInvariantsHoldDuringPlay(t *testing.T) {
	for seed := int64(100); seed < 120; seed++ {
		randomPlayout(t, seed, 300, func(_ Snapshot, e *Engine) {
			board := e.Board()
			for _, player := range []Player{PlayerOne, PlayerTwo} {
				kings := len(board.Find(Piece{Kind: King, Player: player}))
				if kings > 1 {
					t.Fatalf("seed %d: %s has %d kings", seed, player, kings)
				}
				if kings == 0 && e.Phase() != PhaseGameOver {
					t.Fatalf("seed %d: %s lost its king but the game continues", seed, player)
				}
			}
			for _, cell := range board.Cells() {
				if cell.Color != cell.Piece.Color() {
					t.Fatalf("seed %d: %s colour %d does not track %s", seed, cell.Coord, cell.Color, cell.Piece)
				}
			}
			if e.Phase() == PhaseSelected {
				t.Fatalf("seed %d: selection survived a committed move", seed)
			}
		})
	}
}

func TestCandidatesNeverLeaveTheBoard(t *testing.T) {
	randomPlayout(t, 7, 200, func(_ Snapshot, e *Engine) {
		board := e.Board()
		for _, cell := range board.Cells() {
			for _, m := range GenerateMoves(board, cell.Coord) {
				if !m.Destination().InBounds() {
					t.Fatalf("%s generated off-board move %v", cell.Coord, m)
				}
				if target := board.At(m.Destination()); !target.Empty() && target.Piece.Player == cell.Piece.Player {
					t.Fatalf("%s can land on its own piece at %s", cell.Coord, m.Destination())
				}
			}
		}
	})
}
