// Package movepick orders the moves of one search node. A Picker hands out
// moves one at a time, generating and scoring each category of moves only
// when the previous one runs dry, so a node that cuts off early never pays
// for ordering the moves it did not look at.
package movepick

import (
	"fmt"
	"math"

	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/history"
)

// MaxMoves bounds the number of moves of any one category.
const MaxMoves = 256

// Quiescence depths. At DepthQSChecks quiet checks are tried after the
// captures; at or below DepthQSRecaptures only recaptures are.
const (
	DepthQSChecks     = 0
	DepthQSNoChecks   = -1
	DepthQSRecaptures = -5
)

// Position is what a Picker needs to know about the position it orders
// moves for. It is only read.
type Position interface {
	InCheck() bool
	PseudoLegal(m board.Move) bool
	// CaptureStage reports whether m is generated with the captures.
	CaptureStage(m board.Move) bool
	SeeGE(m board.Move, threshold int) bool
	PieceOn(sq board.Square) board.Piece
	MovedPiece(m board.Move) board.Piece
	SideToMove() board.Color
	AttacksBy(pt board.PieceType, c board.Color) board.Bitboard
	CheckSquares(pt board.PieceType) board.Bitboard
	// Generate writes the moves of category gt to buf and returns the count.
	Generate(gt board.GenType, buf []board.ScoredMove) int
}

// Histories are the statistics tables moves are scored with. Any of them
// may be nil, which reads as all zeroes.
type Histories struct {
	Main         *history.Butterfly
	Capture      *history.CapturePieceTo
	Continuation history.Continuation
}

// variant holds what only one kind of picker needs.
type variant interface {
	isVariant()
}

type mainVariant struct {
	depth       int
	refutations [3]board.ScoredMove
}

type qsearchVariant struct {
	depth     int
	recapture board.Square
}

type probeVariant struct {
	threshold int
}

type evasionVariant struct{}

func (*mainVariant) isVariant()    {}
func (*qsearchVariant) isVariant() {}
func (*probeVariant) isVariant()   {}
func (*evasionVariant) isVariant() {}

// A Picker enumerates the moves of one node, best guesses first. It is
// owned by one goroutine and discarded when the node is done.
type Picker struct {
	pos    Position
	hist   Histories
	ttMove board.Move
	stage  Stage
	v      variant

	moves [MaxMoves]board.ScoredMove
	// list is the move list being consumed: moves, or the refutations of
	// a main search picker. cur, end and endBad index into it.
	list   []board.ScoredMove
	cur    int
	end    int
	endBad int
}

func newPicker(pos Position, ttMove board.Move, hist Histories, first Stage, v variant) *Picker {
	p := &Picker{pos: pos, hist: hist, ttMove: ttMove, stage: first, v: v}
	p.list = p.moves[:0]
	if ttMove == board.NoMove || !pos.PseudoLegal(ttMove) {
		p.stage++
	}
	return p
}

// NewMain returns a picker for a main search node of depth > 0. killers
// and counter are tried right after the winning captures.
func NewMain(pos Position, ttMove board.Move, depth int, hist Histories,
	killers [2]board.Move, counter board.Move) *Picker {

	if depth <= 0 {
		panic(fmt.Sprintf("movepick: main search picker at depth %d", depth))
	}
	if pos.InCheck() {
		return newPicker(pos, ttMove, hist, EvasionTT, &evasionVariant{})
	}
	if killers[1] == killers[0] {
		killers[1] = board.NoMove
	}
	v := &mainVariant{depth: depth}
	v.refutations[0].Move = killers[0]
	v.refutations[1].Move = killers[1]
	v.refutations[2].Move = counter
	return newPicker(pos, ttMove, hist, MainTT, v)
}

// NewQuiescence returns a picker for a quiescence node of depth <= 0.
// Below DepthQSRecaptures only captures on recapture are tried; pass
// board.SquareNone when there is none.
func NewQuiescence(pos Position, ttMove board.Move, depth int, hist Histories,
	recapture board.Square) *Picker {

	if depth > 0 {
		panic(fmt.Sprintf("movepick: quiescence picker at depth %d", depth))
	}
	if pos.InCheck() {
		return newPicker(pos, ttMove, hist, EvasionTT, &evasionVariant{})
	}
	return newPicker(pos, ttMove, hist, QSearchTT,
		&qsearchVariant{depth: depth, recapture: recapture})
}

// NewProbe returns a picker that yields only the captures whose static
// exchange value is at least threshold. The side to move must not be in
// check.
func NewProbe(pos Position, ttMove board.Move, threshold int, capture *history.CapturePieceTo) *Picker {
	if pos.InCheck() {
		panic("movepick: probe picker for a position in check")
	}
	if ttMove != board.NoMove && !(pos.CaptureStage(ttMove) && pos.PseudoLegal(ttMove) &&
		pos.SeeGE(ttMove, threshold)) {
		ttMove = board.NoMove
	}
	return newPicker(pos, ttMove, Histories{Capture: capture}, ProbeTT,
		&probeVariant{threshold: threshold})
}

// Stage reports the stage the next call to Next starts in.
func (p *Picker) Stage() Stage {
	return p.stage
}

type outcome uint8

const (
	yielded outcome = iota
	retry
	exhausted
)

// Next returns the next move, or board.NoMove once the moves are used up;
// every later call returns board.NoMove as well. With skipQuiets set,
// quiet moves that have not been returned yet are passed over. It may
// change from call to call.
func (p *Picker) Next(skipQuiets bool) board.Move {
	for {
		m, o := p.step(skipQuiets)
		switch o {
		case yielded:
			return m
		case exhausted:
			return board.NoMove
		}
	}
}

func (p *Picker) generate(gt board.GenType, at int) int {
	return at + p.pos.Generate(gt, p.moves[at:])
}

type selection uint8

const (
	inOrder selection = iota
	bestFirst
)

// pick advances cur to the next move accepted by filter and returns it.
// The hash move is never returned since its stage already did.
func (p *Picker) pick(sel selection, filter func(sm board.ScoredMove) bool) (board.Move, bool) {
	for ; p.cur < p.end; p.cur++ {
		if sel == bestFirst {
			best := p.cur
			for i := p.cur + 1; i < p.end; i++ {
				if p.list[i].Value > p.list[best].Value {
					best = i
				}
			}
			p.list[p.cur], p.list[best] = p.list[best], p.list[p.cur]
		}
		sm := p.list[p.cur]
		if sm.Move != p.ttMove && filter(sm) {
			p.cur++
			return sm.Move, true
		}
	}
	return board.NoMove, false
}

func acceptAll(board.ScoredMove) bool { return true }

// step runs the current stage once. A stage with nothing left to give
// either moves on and asks to be retried or, at the end of a pipeline,
// reports exhaustion and stays put.
func (p *Picker) step(skipQuiets bool) (board.Move, outcome) {
	switch p.stage {
	case MainTT, EvasionTT, ProbeTT, QSearchTT:
		p.stage++
		return p.ttMove, yielded

	case CaptureInit, ProbeInit, QCaptureInit:
		p.list = p.moves[:]
		p.cur, p.endBad = 0, 0
		p.end = p.generate(board.Captures, 0)
		p.scoreCaptures(p.moves[:p.end])
		partialInsertionSort(p.moves[:p.end], math.MinInt)
		p.stage++
		return board.NoMove, retry

	case GoodCapture:
		m, ok := p.pick(inOrder, func(sm board.ScoredMove) bool {
			if p.pos.SeeGE(sm.Move, -sm.Value) {
				return true
			}
			// Losing captures wait until after the quiets.
			p.moves[p.endBad] = sm
			p.endBad++
			return false
		})
		if ok {
			return m, yielded
		}
		mv := p.v.(*mainVariant)
		p.list = mv.refutations[:]
		p.cur, p.end = 0, len(mv.refutations)
		if r := mv.refutations; r[2].Move == r[0].Move || r[2].Move == r[1].Move {
			p.end--
		}
		p.stage++
		return board.NoMove, retry

	case Refutation:
		m, ok := p.pick(inOrder, func(sm board.ScoredMove) bool {
			return sm.Move != board.NoMove && !p.pos.CaptureStage(sm.Move) &&
				p.pos.PseudoLegal(sm.Move)
		})
		if ok {
			return m, yielded
		}
		p.stage++
		return board.NoMove, retry

	case QuietInit:
		if !skipQuiets {
			mv := p.v.(*mainVariant)
			p.list = p.moves[:]
			p.cur = p.endBad
			p.end = p.generate(board.Quiets, p.cur)
			p.scoreQuiets(p.moves[p.cur:p.end])
			partialInsertionSort(p.moves[p.cur:p.end], -3000*mv.depth)
		}
		p.stage++
		return board.NoMove, retry

	case Quiet:
		if !skipQuiets {
			r := p.v.(*mainVariant).refutations
			m, ok := p.pick(inOrder, func(sm board.ScoredMove) bool {
				return sm.Move != r[0].Move && sm.Move != r[1].Move && sm.Move != r[2].Move
			})
			if ok {
				return m, yielded
			}
		}
		p.list = p.moves[:]
		p.cur, p.end = 0, p.endBad
		p.stage++
		return board.NoMove, retry

	case BadCapture:
		if m, ok := p.pick(inOrder, acceptAll); ok {
			return m, yielded
		}
		return board.NoMove, exhausted

	case EvasionInit:
		p.list = p.moves[:]
		p.cur = 0
		p.end = p.generate(board.Evasions, 0)
		p.scoreEvasions(p.moves[:p.end])
		p.stage++
		return board.NoMove, retry

	case Evasion:
		if m, ok := p.pick(bestFirst, acceptAll); ok {
			return m, yielded
		}
		return board.NoMove, exhausted

	case Probe:
		threshold := p.v.(*probeVariant).threshold
		m, ok := p.pick(inOrder, func(sm board.ScoredMove) bool {
			return p.pos.SeeGE(sm.Move, threshold)
		})
		if ok {
			return m, yielded
		}
		return board.NoMove, exhausted

	case QCapture:
		qv := p.v.(*qsearchVariant)
		m, ok := p.pick(inOrder, func(sm board.ScoredMove) bool {
			return qv.depth > DepthQSRecaptures || sm.To() == qv.recapture
		})
		if ok {
			return m, yielded
		}
		if qv.depth != DepthQSChecks {
			return board.NoMove, exhausted
		}
		p.stage++
		return board.NoMove, retry

	case QCheckInit:
		p.list = p.moves[:]
		p.cur = 0
		p.end = p.generate(board.QuietChecks, 0)
		p.stage++
		return board.NoMove, retry

	case QCheck:
		if m, ok := p.pick(inOrder, acceptAll); ok {
			return m, yielded
		}
		return board.NoMove, exhausted
	}
	panic(fmt.Sprintf("movepick: unknown stage %s", p.stage))
}
