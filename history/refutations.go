package history

import (
	"lukechampine.com/frand"

	"github.com/domino14/movepicker/board"
)

const (
	MaxPly     = 128
	MaxKillers = 2
)

// Killers keeps, per ply, the last two distinct quiet moves that caused a
// cutoff there.
type Killers [MaxPly][MaxKillers]board.Move

func (k *Killers) At(ply int) [MaxKillers]board.Move {
	if k == nil || ply >= MaxPly {
		return [MaxKillers]board.Move{}
	}
	return k[ply]
}

// Store makes m the first killer at ply, shifting the old first killer
// down. Storing the current first killer again is a no-op.
func (k *Killers) Store(ply int, m board.Move) {
	if ply >= MaxPly || k[ply][0] == m {
		return
	}
	k[ply][1] = k[ply][0]
	k[ply][0] = m
}

func (k *Killers) Clear() {
	*k = Killers{}
}

// CounterMoves maps the previous move's piece and destination to the move
// that last refuted it.
type CounterMoves [board.PieceNB][64]board.Move

func (cm *CounterMoves) At(pc board.Piece, to board.Square) board.Move {
	if cm == nil || to >= board.SquareNone {
		return board.NoMove
	}
	return cm[pc][to]
}

func (cm *CounterMoves) Set(pc board.Piece, to board.Square, m board.Move) {
	cm[pc][to] = m
}

// Tables bundles everything one search worker learns.
type Tables struct {
	Main         Butterfly
	Capture      CapturePieceTo
	Continuation ContinuationTable
	Killers      Killers
	Counters     CounterMoves
}

func NewTables() *Tables {
	return &Tables{}
}

func (t *Tables) Clear() {
	*t = Tables{}
}

// Fill randomizes the statistic tables; refutations are left alone.
func (t *Tables) Fill(rng *frand.RNG) {
	t.Main.Fill(rng)
	t.Capture.Fill(rng)
	t.Continuation.Fill(rng)
}
