package board

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// A Move uses dragontoothmg's encoding, from the LSB:
// 6 bits destination, 6 bits origin, 3 bits promotion piece type.
// The zero value is NoMove; a1a1 is never a legal move.
type Move uint16

const NoMove Move = 0

func NewMove(from, to Square, promo PieceType) Move {
	return Move(uint16(to) | uint16(from)<<6 | uint16(promo)<<12)
}

func (m Move) To() Square {
	return Square(m & 0x3f)
}

func (m Move) From() Square {
	return Square((m >> 6) & 0x3f)
}

func (m Move) Promotion() PieceType {
	return PieceType((m >> 12) & 7)
}

// FromTo is the compact key used by the butterfly history.
func (m Move) FromTo() int {
	return int(m & 0xfff)
}

func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	dm := dragontoothmg.Move(m)
	return dm.String()
}

// ParseMove parses long algebraic notation such as "e2e4" or "e7e8q".
func ParseMove(s string) (Move, error) {
	dm, err := dragontoothmg.ParseMove(s)
	if err != nil {
		return NoMove, fmt.Errorf("parse move %q: %w", s, err)
	}
	return Move(dm), nil
}

// ScoredMove is a move together with its ordering priority.
type ScoredMove struct {
	Move
	Value int
}

// GenType selects the category of moves Generate produces.
type GenType uint8

const (
	Captures GenType = iota
	Quiets
	Evasions
	QuietChecks
)

func (g GenType) String() string {
	switch g {
	case Captures:
		return "captures"
	case Quiets:
		return "quiets"
	case Evasions:
		return "evasions"
	case QuietChecks:
		return "quiet-checks"
	}
	return "unknown"
}
