package board

import "github.com/dylhunn/dragontoothmg"

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
)

func init() {
	knightSteps := [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps := [][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	for sq := Square(0); sq < 64; sq++ {
		knightAttacks[sq] = stepAttacks(sq, knightSteps)
		kingAttacks[sq] = stepAttacks(sq, kingSteps)
	}
}

func stepAttacks(sq Square, steps [][2]int) Bitboard {
	var bb Bitboard
	for _, st := range steps {
		f, r := sq.File()+st[0], sq.Rank()+st[1]
		if f >= 0 && f < 8 && r >= 0 && r < 8 {
			bb |= SquareBB(NewSquare(f, r))
		}
	}
	return bb
}

// PawnAttacks returns the squares attacked by the given pawns of color c.
func PawnAttacks(pawns Bitboard, c Color) Bitboard {
	if c == White {
		return (pawns<<9)&^FileA | (pawns<<7)&^FileH
	}
	return (pawns>>7)&^FileA | (pawns>>9)&^FileH
}

func KnightAttacks(sq Square) Bitboard { return knightAttacks[sq] }
func KingAttacks(sq Square) Bitboard   { return kingAttacks[sq] }

func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return Bitboard(dragontoothmg.CalculateBishopMoveBitboard(uint8(sq), uint64(occupied)))
}

func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return Bitboard(dragontoothmg.CalculateRookMoveBitboard(uint8(sq), uint64(occupied)))
}

// Attacks returns the attack set of a non-pawn piece type from sq.
func Attacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[sq]
	case Bishop:
		return BishopAttacks(sq, occupied)
	case Rook:
		return RookAttacks(sq, occupied)
	case Queen:
		return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
	case King:
		return kingAttacks[sq]
	}
	return 0
}
