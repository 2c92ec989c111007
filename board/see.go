package board

// attackersTo returns the pieces of both colors attacking sq given the
// occupancy occ. Pieces outside occ are still reported; callers mask.
func (p *Position) attackersTo(sq Square, occ Bitboard) Bitboard {
	bishops := p.pieces(White, Bishop) | p.pieces(Black, Bishop) |
		p.pieces(White, Queen) | p.pieces(Black, Queen)
	rooks := p.pieces(White, Rook) | p.pieces(Black, Rook) |
		p.pieces(White, Queen) | p.pieces(Black, Queen)
	return PawnAttacks(SquareBB(sq), Black)&p.pieces(White, Pawn) |
		PawnAttacks(SquareBB(sq), White)&p.pieces(Black, Pawn) |
		KnightAttacks(sq)&(p.pieces(White, Knight)|p.pieces(Black, Knight)) |
		BishopAttacks(sq, occ)&bishops |
		RookAttacks(sq, occ)&rooks |
		KingAttacks(sq)&(p.pieces(White, King)|p.pieces(Black, King))
}

func (p *Position) both(pt PieceType) Bitboard {
	return p.pieces(White, pt) | p.pieces(Black, pt)
}

// SeeGE reports whether the static exchange evaluation of m is at least
// threshold: the material balance after the best sequence of captures and
// recaptures on the destination square, each side free to stop. Castling,
// en passant and promotions evaluate as zero. Pins are not considered.
func (p *Position) SeeGE(m Move, threshold int) bool {
	if m.Promotion() != NoPieceType || p.isCastling(m) || p.isEnPassant(m) {
		return 0 >= threshold
	}
	from, to := m.From(), m.To()

	swap := p.PieceOn(to).Value() - threshold
	if swap < 0 {
		return false
	}
	swap = p.PieceOn(from).Value() - swap
	if swap <= 0 {
		return true
	}

	occ := p.Occupied() ^ SquareBB(from) ^ SquareBB(to)
	stm := p.SideToMove()
	attackers := p.attackersTo(to, occ)
	diag := p.both(Bishop) | p.both(Queen)
	straight := p.both(Rook) | p.both(Queen)
	res := 1

	for {
		stm = stm.Other()
		attackers &= occ
		stmAttackers := attackers & p.ByColor(stm)
		if stmAttackers == 0 {
			break
		}
		res ^= 1

		if bb := stmAttackers & p.both(Pawn); bb != 0 {
			if swap = PawnValue - swap; swap < res {
				break
			}
			occ ^= SquareBB(bb.LSB())
			attackers |= BishopAttacks(to, occ) & diag
		} else if bb := stmAttackers & p.both(Knight); bb != 0 {
			if swap = KnightValue - swap; swap < res {
				break
			}
			occ ^= SquareBB(bb.LSB())
		} else if bb := stmAttackers & p.both(Bishop); bb != 0 {
			if swap = BishopValue - swap; swap < res {
				break
			}
			occ ^= SquareBB(bb.LSB())
			attackers |= BishopAttacks(to, occ) & diag
		} else if bb := stmAttackers & p.both(Rook); bb != 0 {
			if swap = RookValue - swap; swap < res {
				break
			}
			occ ^= SquareBB(bb.LSB())
			attackers |= RookAttacks(to, occ) & straight
		} else if bb := stmAttackers & p.both(Queen); bb != 0 {
			if swap = QueenValue - swap; swap < res {
				break
			}
			occ ^= SquareBB(bb.LSB())
			attackers |= BishopAttacks(to, occ)&diag | RookAttacks(to, occ)&straight
		} else {
			// The king may only take last: if the other side still has an
			// attacker the capture is illegal and the result flips back.
			if attackers&^p.ByColor(stm) != 0 {
				return res^1 == 1
			}
			return res == 1
		}
	}
	return res == 1
}
