package board

import (
	"math/bits"
	"strings"
)

// A Square is an index 0-63 using little-endian rank-file mapping;
// a1 is 0, h1 is 7, a8 is 56. This is the same mapping dragontoothmg uses.
type Square uint8

const (
	SquareA1 Square = 0
	SquareH8 Square = 63
	// SquareNone is used where a square is optional, e.g. the recapture
	// square of a quiescence node that has none.
	SquareNone Square = 64
)

func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) & 7 }
func (s Square) Rank() int { return int(s) >> 3 }

func (s Square) String() string {
	if s >= SquareNone {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(str string) (Square, bool) {
	if len(str) != 2 {
		return SquareNone, false
	}
	f, r := int(str[0]-'a'), int(str[1]-'1')
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return SquareNone, false
	}
	return NewSquare(f, r), true
}

// A Bitboard is a set of squares; bit i is set if square i is a member.
type Bitboard uint64

const (
	FileA Bitboard = 0x0101010101010101
	FileH Bitboard = FileA << 7
	Rank1 Bitboard = 0xff
	Rank8 Bitboard = Rank1 << 56
)

func SquareBB(s Square) Bitboard {
	return Bitboard(1) << s
}

func (b Bitboard) Has(s Square) bool {
	return b&SquareBB(s) != 0
}

func (b Bitboard) PopCount() int {
	return bits.OnesCount64(uint64(b))
}

// LSB returns the least significant square of a non-empty bitboard.
func (b Bitboard) LSB() Square {
	return Square(bits.TrailingZeros64(uint64(b)))
}

// Squares lists the members of b in ascending order.
func (b Bitboard) Squares() []Square {
	sqs := make([]Square, 0, b.PopCount())
	for b != 0 {
		sqs = append(sqs, b.LSB())
		b &= b - 1
	}
	return sqs
}

func (b Bitboard) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		for f := 0; f < 8; f++ {
			if b.Has(NewSquare(f, r)) {
				sb.WriteByte('X')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
