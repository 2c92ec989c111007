package board

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

var ErrInvalidFEN = errors.New("invalid FEN")

const StartFEN = dragontoothmg.Startpos

// A Position is an immutable chess position. Everything a move picker
// asks about is computed once at construction, so a Position may be read
// by any number of goroutines without synchronization.
type Position struct {
	b dragontoothmg.Board

	legal        []Move
	inCheck      bool
	checkSquares [PieceTypeNB]Bitboard
}

func newPosition(b dragontoothmg.Board) *Position {
	p := &Position{b: b}
	dms := p.b.GenerateLegalMoves()
	p.legal = make([]Move, len(dms))
	for i, dm := range dms {
		p.legal[i] = Move(dm)
	}
	p.inCheck = p.b.OurKingInCheck()

	them := p.SideToMove().Other()
	ksq := p.pieces(them, King).LSB()
	occ := p.Occupied()
	p.checkSquares[Pawn] = PawnAttacks(SquareBB(ksq), them)
	p.checkSquares[Knight] = KnightAttacks(ksq)
	p.checkSquares[Bishop] = BishopAttacks(ksq, occ)
	p.checkSquares[Rook] = RookAttacks(ksq, occ)
	p.checkSquares[Queen] = p.checkSquares[Bishop] | p.checkSquares[Rook]
	return p
}

func StartPosition() *Position {
	return newPosition(dragontoothmg.ParseFen(StartFEN))
}

// ParseFEN parses a position. dragontoothmg does not validate its input,
// so the piece placement and side to move are checked here first.
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: expected at least 4 fields, got %d", ErrInvalidFEN, len(fields))
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	kings := map[rune]int{}
	for i, rank := range ranks {
		width := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				width += int(c - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", c):
				width++
				if c == 'k' || c == 'K' {
					kings[c]++
				}
			default:
				return nil, fmt.Errorf("%w: bad piece %q in rank %d", ErrInvalidFEN, c, 8-i)
			}
		}
		if width != 8 {
			return nil, fmt.Errorf("%w: rank %d has width %d", ErrInvalidFEN, 8-i, width)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return nil, fmt.Errorf("%w: each side needs exactly one king", ErrInvalidFEN)
	}
	if fields[1] != "w" && fields[1] != "b" {
		return nil, fmt.Errorf("%w: bad side to move %q", ErrInvalidFEN, fields[1])
	}
	// The move counters are optional in the wild; dragontoothmg needs them.
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	} else if len(fields) == 5 {
		fields = append(fields, "1")
	}
	return newPosition(dragontoothmg.ParseFen(strings.Join(fields[:6], " "))), nil
}

func (p *Position) FEN() string {
	return p.b.ToFen()
}

// Hash is the Zobrist key of the position.
func (p *Position) Hash() uint64 {
	return p.b.Hash()
}

func (p *Position) SideToMove() Color {
	if p.b.Wtomove {
		return White
	}
	return Black
}

func (p *Position) InCheck() bool {
	return p.inCheck
}

// LegalMoves returns the legal moves in generation order. The slice is
// shared; callers must not modify it.
func (p *Position) LegalMoves() []Move {
	return p.legal
}

// Apply returns the position after m, which must be legal.
func (p *Position) Apply(m Move) *Position {
	child := p.b
	child.Apply(dragontoothmg.Move(m))
	return newPosition(child)
}

func (p *Position) bitboards(c Color) *dragontoothmg.Bitboards {
	if c == White {
		return &p.b.White
	}
	return &p.b.Black
}

func (p *Position) pieces(c Color, pt PieceType) Bitboard {
	bbs := p.bitboards(c)
	switch pt {
	case Pawn:
		return Bitboard(bbs.Pawns)
	case Knight:
		return Bitboard(bbs.Knights)
	case Bishop:
		return Bitboard(bbs.Bishops)
	case Rook:
		return Bitboard(bbs.Rooks)
	case Queen:
		return Bitboard(bbs.Queens)
	case King:
		return Bitboard(bbs.Kings)
	}
	return Bitboard(bbs.All)
}

// Pieces returns the squares holding pieces of type pt and color c.
func (p *Position) Pieces(c Color, pt PieceType) Bitboard {
	return p.pieces(c, pt)
}

func (p *Position) ByColor(c Color) Bitboard {
	return Bitboard(p.bitboards(c).All)
}

func (p *Position) Occupied() Bitboard {
	return Bitboard(p.b.White.All | p.b.Black.All)
}

func (p *Position) PieceOn(sq Square) Piece {
	for _, c := range [2]Color{White, Black} {
		if !p.ByColor(c).Has(sq) {
			continue
		}
		for pt := Pawn; pt <= King; pt++ {
			if p.pieces(c, pt).Has(sq) {
				return MakePiece(c, pt)
			}
		}
	}
	return NoPiece
}

func (p *Position) MovedPiece(m Move) Piece {
	return p.PieceOn(m.From())
}

// IsCapture reports whether m removes an enemy piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	return p.ByColor(p.SideToMove().Other()).Has(m.To()) || p.isEnPassant(m)
}

// CaptureStage reports whether m belongs with the captures when moves are
// generated by category: captures and queen promotions.
func (p *Position) CaptureStage(m Move) bool {
	return m.Promotion() == Queen || p.IsCapture(m)
}

func (p *Position) isEnPassant(m Move) bool {
	return p.MovedPiece(m).Type() == Pawn && m.From().File() != m.To().File() &&
		!p.Occupied().Has(m.To())
}

func (p *Position) isCastling(m Move) bool {
	if p.MovedPiece(m).Type() != King {
		return false
	}
	d := m.To().File() - m.From().File()
	return d == 2 || d == -2
}

// PseudoLegal reports whether m can be played here. The generator is
// strictly legal, so this is membership in the legal move list.
func (p *Position) PseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	for _, lm := range p.legal {
		if lm == m {
			return true
		}
	}
	return false
}

// GivesCheck reports whether the legal move m checks the enemy king,
// directly or by discovery.
func (p *Position) GivesCheck(m Move) bool {
	child := p.b
	child.Apply(dragontoothmg.Move(m))
	return child.OurKingInCheck()
}

// AttacksBy returns every square attacked by pieces of type pt and color c.
func (p *Position) AttacksBy(pt PieceType, c Color) Bitboard {
	pcs := p.pieces(c, pt)
	if pt == Pawn {
		return PawnAttacks(pcs, c)
	}
	occ := p.Occupied()
	var att Bitboard
	for pcs != 0 {
		att |= Attacks(pt, pcs.LSB(), occ)
		pcs &= pcs - 1
	}
	return att
}

// CheckSquares returns the squares from which a piece of type pt belonging
// to the side to move would attack the enemy king.
func (p *Position) CheckSquares(pt PieceType) Bitboard {
	return p.checkSquares[pt&7]
}

// String draws the board with white at the bottom.
func (p *Position) String() string {
	var sb strings.Builder
	for r := 7; r >= 0; r-- {
		for f := 0; f < 8; f++ {
			sb.WriteString(p.PieceOn(NewSquare(f, r)).String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%s to move\n", p.SideToMove())
	return sb.String()
}
