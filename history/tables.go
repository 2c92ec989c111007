// Package history holds the statistics a search accumulates about moves
// and that a move picker reads to order them. The tables are plain arrays
// owned by one search worker; nothing here is safe for concurrent writes.
package history

import (
	"lukechampine.com/frand"

	"github.com/domino14/movepicker/board"
)

// Gravity bounds. An entry never leaves [-D, D] for its table's D.
const (
	ButterflyMax      = 7183
	CapturePieceToMax = 10692
	PieceToMax        = 29952
)

// ContinuationPlies is how many earlier moves a quiet is scored against.
const ContinuationPlies = 6

func gravity(e *int16, bonus, d int) {
	if bonus > d {
		bonus = d
	} else if bonus < -d {
		bonus = -d
	}
	abs := bonus
	if abs < 0 {
		abs = -abs
	}
	v := int(*e)
	v += bonus - v*abs/d
	*e = int16(v)
}

// Butterfly is the main history, keyed by the side to move and the move's
// from and to squares.
type Butterfly [2][4096]int16

func (h *Butterfly) At(c board.Color, m board.Move) int {
	if h == nil {
		return 0
	}
	return int(h[c][m.FromTo()])
}

func (h *Butterfly) Update(c board.Color, m board.Move, bonus int) {
	gravity(&h[c][m.FromTo()], bonus, ButterflyMax)
}

// CapturePieceTo is keyed by the moving piece, the destination and the
// type of the captured piece.
type CapturePieceTo [board.PieceNB][64][board.PieceTypeNB]int16

func (h *CapturePieceTo) At(pc board.Piece, to board.Square, captured board.PieceType) int {
	if h == nil {
		return 0
	}
	return int(h[pc][to][captured])
}

func (h *CapturePieceTo) Update(pc board.Piece, to board.Square, captured board.PieceType, bonus int) {
	gravity(&h[pc][to][captured], bonus, CapturePieceToMax)
}

// PieceTo is keyed by the moving piece and its destination.
type PieceTo [board.PieceNB][64]int16

func (h *PieceTo) At(pc board.Piece, to board.Square) int {
	if h == nil {
		return 0
	}
	return int(h[pc][to])
}

func (h *PieceTo) Update(pc board.Piece, to board.Square, bonus int) {
	gravity(&h[pc][to], bonus, PieceToMax)
}

// ContinuationTable holds one PieceTo per (piece, destination) of an
// earlier move.
type ContinuationTable [board.PieceNB][64]PieceTo

// Entry returns the table to consult when the move being scored follows
// a move of pc to sq.
func (ct *ContinuationTable) Entry(pc board.Piece, sq board.Square) *PieceTo {
	return &ct[pc][sq]
}

// Continuation is the set of PieceTo tables for the current node. Index i
// belongs to the move played i+1 plies earlier; nil entries read as zero.
type Continuation [ContinuationPlies]*PieceTo

// Updated plies, as counted from the current node.
var continuationUpdated = [...]int{0, 1, 3, 5}

// Update applies bonus to the entries the quiet scorer reads.
func (c Continuation) Update(pc board.Piece, to board.Square, bonus int) {
	for _, i := range continuationUpdated {
		if c[i] != nil {
			c[i].Update(pc, to, bonus)
		}
	}
}

func fill(rng *frand.RNG, s []int16, d int) {
	for i := range s {
		s[i] = int16(rng.Intn(2*d+1) - d)
	}
}

// Fill sets every entry to a uniformly random in-bounds value.
func (h *Butterfly) Fill(rng *frand.RNG) {
	for c := range h {
		fill(rng, h[c][:], ButterflyMax)
	}
}

func (h *CapturePieceTo) Fill(rng *frand.RNG) {
	for pc := range h {
		for sq := range h[pc] {
			fill(rng, h[pc][sq][:], CapturePieceToMax)
		}
	}
}

func (h *PieceTo) Fill(rng *frand.RNG) {
	for pc := range h {
		fill(rng, h[pc][:], PieceToMax)
	}
}

func (ct *ContinuationTable) Fill(rng *frand.RNG) {
	for pc := range ct {
		for sq := range ct[pc] {
			ct[pc][sq].Fill(rng)
		}
	}
}
