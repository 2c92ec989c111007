package board

import "fmt"

// Generate writes the legal moves of category gt into buf, starting at
// buf[0], and returns how many were written. Values are zeroed. The
// categories partition the legal moves: Captures are the capture-stage
// moves, Quiets all the others, QuietChecks the quiets that give check.
// Evasions are every legal move and may only be asked for in check.
//
// It panics if buf is too short; callers size buf to hold any position.
func (p *Position) Generate(gt GenType, buf []ScoredMove) int {
	if gt == Evasions && !p.inCheck {
		panic("board: evasions requested for a position not in check")
	}
	n := 0
	for _, m := range p.legal {
		var want bool
		switch gt {
		case Captures:
			want = p.CaptureStage(m)
		case Quiets:
			want = !p.CaptureStage(m)
		case Evasions:
			want = true
		case QuietChecks:
			want = !p.CaptureStage(m) && p.GivesCheck(m)
		default:
			panic(fmt.Sprintf("board: unknown generation type %d", gt))
		}
		if !want {
			continue
		}
		if n >= len(buf) {
			panic(fmt.Sprintf("board: %s overflow the move buffer (%d)", gt, len(buf)))
		}
		buf[n] = ScoredMove{Move: m}
		n++
	}
	return n
}
