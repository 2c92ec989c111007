package bench

import (
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/movepicker/board"
)

const (
	hashEntrySize = 8
	minTableBits  = 12
	maxTableBits  = 22
)

type hashEntry struct {
	// The top half of the position hash; the bottom bits select the slot.
	key   uint32
	depth uint8
	move  board.Move
}

func (e hashEntry) valid() bool {
	return e.move != board.NoMove
}

// HashStats counts what a HashMoveTable was asked and how it answered.
type HashStats struct {
	Created      uint64 `json:"created" yaml:"created"`
	Lookups      uint64 `json:"lookups" yaml:"lookups"`
	Hits         uint64 `json:"hits" yaml:"hits"`
	T2Collisions uint64 `json:"t2collisions" yaml:"t2collisions"`
}

func (s *HashStats) add(o HashStats) {
	s.Created += o.Created
	s.Lookups += o.Lookups
	s.Hits += o.Hits
	s.T2Collisions += o.T2Collisions
}

// HashMoveTable remembers the best move found for a position, to be tried
// first when the position comes up again. It belongs to one walker.
type HashMoveTable struct {
	table    []hashEntry
	sizeMask uint64
	stats    HashStats
}

// NewHashMoveTable sizes the table to about fractionOfMemory of the
// system's memory, within fixed bounds.
func NewHashMoveTable(fractionOfMemory float64) *HashMoveTable {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * float64(totalMem) / hashEntrySize
	bits := minTableBits
	if desiredNElems > 1 {
		bits = int(math.Log2(desiredNElems))
	}
	bits = min(max(bits, minTableBits), maxTableBits)
	numElems := 1 << bits

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("hash-move-table-size")
	return &HashMoveTable{
		table:    make([]hashEntry, numElems),
		sizeMask: uint64(numElems - 1),
	}
}

// Lookup returns the move stored for key, or board.NoMove.
func (t *HashMoveTable) Lookup(key uint64) board.Move {
	t.stats.Lookups++
	e := t.table[key&t.sizeMask]
	if e.key != uint32(key>>32) {
		if e.valid() {
			t.stats.T2Collisions++
		}
		return board.NoMove
	}
	if e.valid() {
		t.stats.Hits++
	}
	return e.move
}

// Store keeps m for key unless a move found by a deeper walk of the same
// position is already there.
func (t *HashMoveTable) Store(key uint64, m board.Move, depth int) {
	idx := key & t.sizeMask
	old := t.table[idx]
	if old.key == uint32(key>>32) && int(old.depth) > depth {
		return
	}
	t.table[idx] = hashEntry{key: uint32(key >> 32), depth: uint8(min(depth, math.MaxUint8)), move: m}
	t.stats.Created++
}

func (t *HashMoveTable) Reset() {
	clear(t.table)
	t.stats = HashStats{}
}

func (t *HashMoveTable) Stats() HashStats {
	return t.stats
}

func (t *HashMoveTable) Len() int {
	return len(t.table)
}
