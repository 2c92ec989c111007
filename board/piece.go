package board

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType uses the same numbering as dragontoothmg.Piece.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
	PieceTypeNB = 8
)

// A Piece is a colored piece type, encoded as color<<3 | type. Zero is
// the empty square. There are PieceNB slots so tables keyed by piece can
// be indexed without translation.
type Piece uint8

const (
	NoPiece Piece = 0
	PieceNB       = 16
)

func MakePiece(c Color, pt PieceType) Piece {
	return Piece(uint8(c)<<3 | uint8(pt))
}

func (p Piece) Type() PieceType {
	return PieceType(p & 7)
}

func (p Piece) Color() Color {
	return Color(p >> 3)
}

const pieceChars = " PNBRQK  pnbrqk"

func (p Piece) String() string {
	if p == NoPiece || int(p) >= len(pieceChars) {
		return "."
	}
	return string(pieceChars[p])
}

// Middlegame material values. The king is worth nothing so that king
// captures score by victim alone.
const (
	PawnValue   = 126
	KnightValue = 781
	BishopValue = 825
	RookValue   = 1276
	QueenValue  = 2538
)

var pieceTypeValues = [PieceTypeNB]int{
	Pawn:   PawnValue,
	Knight: KnightValue,
	Bishop: BishopValue,
	Rook:   RookValue,
	Queen:  QueenValue,
}

func (pt PieceType) Value() int {
	return pieceTypeValues[pt&7]
}

// Value is the middlegame value of the piece; zero for NoPiece.
func (p Piece) Value() int {
	return p.Type().Value()
}
