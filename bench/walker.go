package bench

import (
	"context"
	"encoding/binary"
	"hash"

	"github.com/cespare/xxhash"

	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/history"
	"github.com/domino14/movepicker/movepick"
)

const ctxCheckInterval = 4096

// Stats are the node counts of a walk.
type Stats struct {
	Nodes     uint64
	QNodes    uint64
	ProbeHits uint64
}

func (s *Stats) add(o Stats) {
	s.Nodes += o.Nodes
	s.QNodes += o.QNodes
	s.ProbeHits += o.ProbeHits
}

type played struct {
	piece board.Piece
	to    board.Square
}

// A Walker enumerates move trees with pickers, the way a search would,
// and does the bookkeeping a search does after each node so later pickers
// see real killers, counter moves and histories. One Walker per goroutine.
type Walker struct {
	ctx       context.Context
	cfg       Config
	tables    *history.Tables
	hashMoves *HashMoveTable
	digest    hash.Hash64
	stack     [history.MaxPly + 1]played
	stats     Stats
	stopped   bool
}

func NewWalker(ctx context.Context, cfg Config) *Walker {
	return &Walker{
		ctx:       ctx,
		cfg:       cfg,
		tables:    history.NewTables(),
		hashMoves: NewHashMoveTable(cfg.HashFraction),
		digest:    xxhash.New(),
	}
}

func (w *Walker) Tables() *history.Tables {
	return w.tables
}

func (w *Walker) Stats() Stats {
	return w.stats
}

// Reset forgets everything learned, as between unrelated positions.
func (w *Walker) Reset() {
	w.tables.Clear()
	w.hashMoves.Reset()
	w.stats = Stats{}
	w.stopped = false
}

func (w *Walker) emit(m board.Move) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(m))
	w.digest.Write(buf[:])
}

func (w *Walker) push(ply int, pos *board.Position, m board.Move) {
	if ply < len(w.stack) {
		w.stack[ply] = played{pos.MovedPiece(m), m.To()}
	}
}

// histories returns the tables a picker at ply reads.
func (w *Walker) histories(ply int) movepick.Histories {
	h := movepick.Histories{Main: &w.tables.Main, Capture: &w.tables.Capture}
	for i := range h.Continuation {
		prev := ply - 1 - i
		if prev < 0 {
			break
		}
		pm := w.stack[prev]
		h.Continuation[i] = w.tables.Continuation.Entry(pm.piece, pm.to)
	}
	return h
}

func (w *Walker) counter(ply int) board.Move {
	if ply == 0 {
		return board.NoMove
	}
	prev := w.stack[ply-1]
	return w.tables.Counters.At(prev.piece, prev.to)
}

func (w *Walker) shouldStop() bool {
	if w.stopped {
		return true
	}
	if w.stats.Nodes%ctxCheckInterval == 0 && w.ctx.Err() != nil {
		w.stopped = true
	}
	return w.stopped
}

// statBonus is the history reward for a best move found at depth.
func statBonus(depth int) int {
	return min(300*depth-250, 1500)
}

// learn records best as the best move of pos.
func (w *Walker) learn(pos *board.Position, best board.Move, depth, ply int) {
	w.hashMoves.Store(pos.Hash(), best, depth)
	bonus := statBonus(depth)
	pc := pos.MovedPiece(best)
	if pos.CaptureStage(best) {
		w.tables.Capture.Update(pc, best.To(), pos.PieceOn(best.To()).Type(), bonus)
		return
	}
	if ply < history.MaxPly {
		w.tables.Killers.Store(ply, best)
	}
	if ply > 0 {
		prev := w.stack[ply-1]
		w.tables.Counters.Set(prev.piece, prev.to, best)
	}
	w.tables.Main.Update(pos.SideToMove(), best, bonus)
	w.histories(ply).Continuation.Update(pc, best.To(), bonus)
}

// Root walks the subtree below root move m of pos to depth plies in
// total and returns its leaf count plus the fingerprint of every move
// the pickers emitted, in order.
func (w *Walker) Root(pos *board.Position, m board.Move, depth int) (int64, uint64) {
	w.digest.Reset()
	w.emit(m)
	w.push(0, pos, m)
	n := w.perft(pos.Apply(m), depth-1, 1)
	return n, w.digest.Sum64()
}

func (w *Walker) perft(pos *board.Position, depth, ply int) int64 {
	w.stats.Nodes++
	if w.shouldStop() {
		return 0
	}
	if depth == 0 {
		w.qsearch(pos, movepick.DepthQSChecks, ply, board.SquareNone)
		return 1
	}
	ttMove := w.hashMoves.Lookup(pos.Hash())
	if depth >= 3 && !pos.InCheck() {
		w.probe(pos, ttMove)
	}
	var killers [2]board.Move
	if ply < history.MaxPly {
		killers = w.tables.Killers.At(ply)
	}
	mp := movepick.NewMain(pos, ttMove, depth, w.histories(ply), killers, w.counter(ply))

	var total, bestCount int64
	best := board.NoMove
	for m := mp.Next(false); m != board.NoMove; m = mp.Next(false) {
		w.emit(m)
		w.push(ply, pos, m)
		n := w.perft(pos.Apply(m), depth-1, ply+1)
		total += n
		if n > bestCount {
			best, bestCount = m, n
		}
	}
	if best != board.NoMove && !w.stopped {
		w.learn(pos, best, depth, ply)
	}
	return total
}

func (w *Walker) probe(pos *board.Position, ttMove board.Move) {
	mp := movepick.NewProbe(pos, ttMove, w.cfg.ProbeThreshold, &w.tables.Capture)
	for m := mp.Next(false); m != board.NoMove; m = mp.Next(false) {
		w.emit(m)
		w.stats.ProbeHits++
	}
}

// qsearch enumerates the quiescence tree below a perft leaf, at most
// QSearchMaxPly plies deep.
func (w *Walker) qsearch(pos *board.Position, depth, ply int, recapture board.Square) {
	if movepick.DepthQSChecks-depth >= w.cfg.QSearchMaxPly || ply >= history.MaxPly {
		return
	}
	mp := movepick.NewQuiescence(pos, board.NoMove, depth, w.histories(ply), recapture)
	for m := mp.Next(false); m != board.NoMove; m = mp.Next(false) {
		w.emit(m)
		w.push(ply, pos, m)
		w.stats.QNodes++
		w.qsearch(pos.Apply(m), depth-1, ply+1, m.To())
	}
}
