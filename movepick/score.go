package movepick

import "github.com/domino14/movepicker/board"

const (
	queenEscapeBonus = 50000
	rookEscapeBonus  = 25000
	minorEscapeBonus = 15000
	checkBonus       = 16384

	// Puts every capturing evasion ahead of every quiet one.
	evasionCaptureBonus = 1 << 28
)

func (p *Picker) scoreCaptures(moves []board.ScoredMove) {
	for i := range moves {
		m := &moves[i]
		to := m.To()
		captured := p.pos.PieceOn(to)
		m.Value = (7*captured.Value() +
			p.hist.Capture.At(p.pos.MovedPiece(m.Move), to, captured.Type())) / 16
	}
}

// threats are the squares attacked by the opponent's pieces of at most a
// given value, cumulatively.
type threats struct {
	byPawn, byMinor, byRook board.Bitboard
}

func (p *Picker) threats() threats {
	them := p.pos.SideToMove().Other()
	var t threats
	t.byPawn = p.pos.AttacksBy(board.Pawn, them)
	t.byMinor = p.pos.AttacksBy(board.Knight, them) | p.pos.AttacksBy(board.Bishop, them) | t.byPawn
	t.byRook = p.pos.AttacksBy(board.Rook, them) | t.byMinor
	return t
}

// escapeBonus rewards moving a piece attacked by a cheaper enemy piece.
func (t threats) escapeBonus(pt board.PieceType, from, to board.Square) int {
	var threatened bool
	switch pt {
	case board.Queen:
		threatened = t.byRook.Has(from)
	case board.Rook:
		threatened = t.byMinor.Has(from)
	case board.Knight, board.Bishop:
		threatened = t.byPawn.Has(from)
	}
	if !threatened {
		return 0
	}
	switch {
	case pt == board.Queen && !t.byRook.Has(to):
		return queenEscapeBonus
	case pt == board.Rook && !t.byMinor.Has(to):
		return rookEscapeBonus
	case !t.byPawn.Has(to):
		return minorEscapeBonus
	}
	return 0
}

func (p *Picker) scoreQuiets(moves []board.ScoredMove) {
	t := p.threats()
	us := p.pos.SideToMove()
	ch := p.hist.Continuation
	for i := range moves {
		m := &moves[i]
		pc := p.pos.MovedPiece(m.Move)
		from, to := m.From(), m.To()
		v := 2*p.hist.Main.At(us, m.Move) +
			2*ch[0].At(pc, to) +
			ch[1].At(pc, to) +
			ch[3].At(pc, to) +
			ch[5].At(pc, to)
		v += t.escapeBonus(pc.Type(), from, to)
		if p.pos.CheckSquares(pc.Type()).Has(to) {
			v += checkBonus
		}
		m.Value = v
	}
}

func (p *Picker) scoreEvasions(moves []board.ScoredMove) {
	us := p.pos.SideToMove()
	for i := range moves {
		m := &moves[i]
		pc := p.pos.MovedPiece(m.Move)
		if p.pos.CaptureStage(m.Move) {
			m.Value = p.pos.PieceOn(m.To()).Value() - pc.Value() + evasionCaptureBonus
			continue
		}
		m.Value = p.hist.Main.At(us, m.Move) + p.hist.Continuation[0].At(pc, m.To())
	}
}
