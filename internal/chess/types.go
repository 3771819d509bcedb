package chess

import (
	"fmt"
	"strings"
)

// Player identifies a side. Player 0 sets up on ranks 0-1 and moves first.
type Player int

const (
	PlayerOne Player = 0
	PlayerTwo Player = 1
)

// Opponent returns the other player
func (p Player) Opponent() Player {
	return 1 - p
}

func (p Player) String() string {
	return fmt.Sprintf("player%d", int(p))
}

// Kind is the kind of a piece. The zero value marks an empty cell.
type Kind int

const (
	NoKind Kind = iota
	Pawn
	Rook
	Knight
	Bishop
	Queen
	King
)

var kindNames = map[Kind]string{
	NoKind: "none",
	Pawn:   "pawn",
	Rook:   "rook",
	Knight: "knight",
	Bishop: "bishop",
	Queen:  "queen",
	King:   "king",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind accepts the lowercase kind name, or the single-letter
// shorthand used by most chess tooling (n for knight).
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pawn", "p":
		return Pawn, true
	case "rook", "r":
		return Rook, true
	case "knight", "n":
		return Knight, true
	case "bishop", "b":
		return Bishop, true
	case "queen", "q":
		return Queen, true
	case "king", "k":
		return King, true
	default:
		return NoKind, false
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	if string(text) == "none" {
		*k = NoKind
		return nil
	}
	parsed, ok := ParseKind(string(text))
	if !ok {
		return fmt.Errorf("unknown piece kind %q", string(text))
	}
	*k = parsed
	return nil
}

// Color is a pad palette index. 0 means the pad is unlit.
type Color int

// Phase is the state of the turn state machine
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSelected
	PhasePromotionPending
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSelected:
		return "selected"
	case PhasePromotionPending:
		return "promotion_pending"
	case PhaseGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for candidate := PhaseIdle; candidate <= PhaseGameOver; candidate++ {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// Input is a controller touch already translated to a board coordinate.
// Only releases act; presses are ignored.
type Input struct {
	Coord   Coord `json:"coord"`
	Pressed bool  `json:"pressed"`
}
