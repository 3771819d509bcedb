package chess

// Pattern describes how a catalog piece uses its offsets
type Pattern int

const (
	// PatternPawn pieces ignore the offset table and use the pawn rules
	PatternPawn Pattern = iota
	// PatternSlide repeats each offset until blocked or off the board
	PatternSlide
	// PatternStep applies each offset once
	PatternStep
)

// Offset is a (rank, file) displacement
type Offset struct {
	DRank int
	DFile int
}

// PieceSpec is the static definition of a piece kind
type PieceSpec struct {
	Kind    Kind
	Pattern Pattern
	Offsets []Offset
	Colors  [2]Color // indexed by Player
	Sample  string
}

var (
	diagonals   = []Offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	orthogonals = []Offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	hops        = []Offset{{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}, {1, -2}, {2, -1}, {2, 1}, {1, 2}}
	allAround   = append(append([]Offset{}, diagonals...), orthogonals...)
)

var catalog = map[Kind]PieceSpec{
	Pawn:   {Kind: Pawn, Pattern: PatternPawn, Colors: [2]Color{113, 71}, Sample: "tabla_ghe1"},
	Rook:   {Kind: Rook, Pattern: PatternSlide, Offsets: orthogonals, Colors: [2]Color{3, 63}, Sample: "tabla_te_ne"},
	Knight: {Kind: Knight, Pattern: PatternStep, Offsets: hops, Colors: [2]Color{37, 127}, Sample: "tabla_te_ne"},
	Bishop: {Kind: Bishop, Pattern: PatternSlide, Offsets: diagonals, Colors: [2]Color{44, 121}, Sample: "tabla_re"},
	Queen:  {Kind: Queen, Pattern: PatternSlide, Offsets: allAround, Colors: [2]Color{54, 5}, Sample: "tabla_na_s"},
	King:   {Kind: King, Pattern: PatternStep, Offsets: allAround, Colors: [2]Color{45, 13}, Sample: "tabla_ghe8"},
}

// Spec returns the catalog entry for a kind. The returned offsets are a copy.
func Spec(k Kind) (PieceSpec, bool) {
	spec, ok := catalog[k]
	if !ok {
		return PieceSpec{}, false
	}
	spec.Offsets = append([]Offset(nil), spec.Offsets...)
	return spec, true
}

// PromotionChoices lists the kinds a pawn may promote to, in offer order
var PromotionChoices = []Kind{Rook, Knight, Bishop, Queen}

// IsPromotionChoice reports whether a pawn may promote to k
func IsPromotionChoice(k Kind) bool {
	for _, choice := range PromotionChoices {
		if choice == k {
			return true
		}
	}
	return false
}

// Piece is a piece owned by a player. The zero value is "no piece".
type Piece struct {
	Kind   Kind   `json:"kind"`
	Player Player `json:"player"`
}

func (p Piece) IsZero() bool {
	return p.Kind == NoKind
}

// Color is the display colour of the piece for its owner
func (p Piece) Color() Color {
	spec, ok := catalog[p.Kind]
	if !ok || p.Player < PlayerOne || p.Player > PlayerTwo {
		return 0
	}
	return spec.Colors[p.Player]
}

// Sample is the audio tag played for the piece
func (p Piece) Sample() string {
	return catalog[p.Kind].Sample
}

func (p Piece) String() string {
	if p.IsZero() {
		return "empty"
	}
	return p.Player.String() + " " + p.Kind.String()
}
