package movepick

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/history"
)

const (
	kiwipeteFEN = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	// Nc3xd5 wins a knight, Qe2xe5 loses the queen.
	exchangeFEN = "4k3/8/3p4/3np3/8/2N5/4Q3/4K3 w - - 0 1"
	// The d8 rook attacks the queen.
	threatFEN = "3r3k/8/8/8/3Q4/8/8/K7 w - - 0 1"
	// The only legal move is Rd1.
	singleEvasionFEN = "3R4/8/7k/8/8/8/5PPP/r5K1 w - - 0 1"
	// Kxd2 or Kf1.
	queenCheckFEN = "4k3/8/8/8/8/8/3q4/4K3 w - - 0 1"
)

var testFENs = []string{
	board.StartFEN,
	kiwipeteFEN,
	exchangeFEN,
	threatFEN,
	singleEvasionFEN,
	queenCheckFEN,
	"8/2P5/8/8/8/8/5k2/K7 w - - 0 1",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
}

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testRNG(seed byte) *frand.RNG {
	s := make([]byte, 32)
	s[0] = seed
	return frand.NewCustom(s, 1024, 12)
}

func mustParse(t testing.TB, fen string) *board.Position {
	t.Helper()
	p, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustMove(t testing.TB, s string) board.Move {
	t.Helper()
	m, err := board.ParseMove(s)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

type yield struct {
	move  board.Move
	stage Stage
}

// drain calls Next until it returns NoMove and records the stage each move
// came from.
func drain(t testing.TB, p *Picker, skipQuiets bool) []yield {
	t.Helper()
	var out []yield
	for i := 0; i <= 2*MaxMoves; i++ {
		m := p.Next(skipQuiets)
		if m == board.NoMove {
			return out
		}
		out = append(out, yield{m, p.Stage()})
	}
	t.Fatal("picker did not terminate")
	return nil
}

func movesOf(ys []yield) []board.Move {
	return lo.Map(ys, func(y yield, _ int) board.Move { return y.move })
}

// positions returns the test positions plus a few positions reached from
// each by random legal moves.
func positions(t testing.TB) []*board.Position {
	rng := testRNG(7)
	var out []*board.Position
	for _, fen := range testFENs {
		p := mustParse(t, fen)
		out = append(out, p)
		for i := 0; i < 6 && len(p.LegalMoves()) > 0; i++ {
			legal := p.LegalMoves()
			p = p.Apply(legal[rng.Intn(len(legal))])
			out = append(out, p)
		}
	}
	return lo.Filter(out, func(p *board.Position, _ int) bool {
		return len(p.LegalMoves()) > 0
	})
}

func filledHistories(rng *frand.RNG, tables *history.Tables) Histories {
	tables.Fill(rng)
	var cont history.Continuation
	for i := range cont {
		pc := board.MakePiece(board.Color(rng.Intn(2)), board.PieceType(1+rng.Intn(6)))
		cont[i] = tables.Continuation.Entry(pc, board.Square(rng.Intn(64)))
	}
	return Histories{Main: &tables.Main, Capture: &tables.Capture, Continuation: cont}
}

func generated(p *board.Position, gt board.GenType) []board.Move {
	var buf [MaxMoves]board.ScoredMove
	n := p.Generate(gt, buf[:])
	return lo.Map(buf[:n], func(sm board.ScoredMove, _ int) board.Move { return sm.Move })
}

func assertPermutation(t *testing.T, got, want []board.Move) {
	t.Helper()
	is := is.NewRelaxed(t)
	is.Equal(len(lo.Uniq(got)), len(got)) // no duplicates
	is.Equal(len(got), len(want))
	is.True(lo.Every(want, got))
}

func TestStartPositionQuiets(t *testing.T) {
	is := is.New(t)
	pos := board.StartPosition()
	p := NewMain(pos, board.NoMove, 4, Histories{}, [2]board.Move{}, board.NoMove)
	is.Equal(p.Stage(), CaptureInit)
	ys := drain(t, p, false)
	is.Equal(len(ys), 20)
	assertPermutation(t, movesOf(ys), pos.LegalMoves())
	for _, y := range ys {
		is.Equal(y.stage, Quiet)
	}
}

func TestMainPermutation(t *testing.T) {
	rng := testRNG(1)
	tables := history.NewTables()
	other := mustParse(t, kiwipeteFEN).LegalMoves()
	for _, pos := range positions(t) {
		legal := pos.LegalMoves()
		for depth := 1; depth <= 6; depth++ {
			hist := filledHistories(rng, tables)
			ttMove := board.NoMove
			switch rng.Intn(3) {
			case 0:
				ttMove = legal[rng.Intn(len(legal))]
			case 1:
				ttMove = other[rng.Intn(len(other))]
			}
			killers := [2]board.Move{legal[rng.Intn(len(legal))], other[rng.Intn(len(other))]}
			counter := legal[rng.Intn(len(legal))]

			got := movesOf(drain(t, NewMain(pos, ttMove, depth, hist, killers, counter), false))
			assertPermutation(t, got, legal)
			if pos.PseudoLegal(ttMove) {
				is.New(t).Equal(got[0], ttMove)
			}
		}
	}
}

func TestQuiescencePermutation(t *testing.T) {
	rng := testRNG(2)
	tables := history.NewTables()
	for _, pos := range positions(t) {
		legal := pos.LegalMoves()
		for _, depth := range []int{DepthQSChecks, DepthQSNoChecks, -3, DepthQSRecaptures, -8} {
			hist := filledHistories(rng, tables)
			ttMove := lo.Ternary(rng.Intn(2) == 0, legal[rng.Intn(len(legal))], board.NoMove)
			recapture := board.Square(rng.Intn(64))

			got := movesOf(drain(t, NewQuiescence(pos, ttMove, depth, hist, recapture), false))

			var want []board.Move
			switch {
			case pos.InCheck():
				want = legal
			case depth == DepthQSChecks:
				want = append(generated(pos, board.Captures), generated(pos, board.QuietChecks)...)
			case depth > DepthQSRecaptures:
				want = generated(pos, board.Captures)
			default:
				want = lo.Filter(generated(pos, board.Captures), func(m board.Move, _ int) bool {
					return m.To() == recapture
				})
			}
			if ttMove != board.NoMove && !lo.Contains(want, ttMove) {
				want = append(want, ttMove)
			}
			assertPermutation(t, got, want)
		}
	}
}

func TestProbePermutation(t *testing.T) {
	rng := testRNG(3)
	tables := history.NewTables()
	for _, pos := range positions(t) {
		if pos.InCheck() {
			continue
		}
		legal := pos.LegalMoves()
		for _, threshold := range []int{-500, 0, 100, board.KnightValue} {
			tables.Capture.Fill(rng)
			ttMove := legal[rng.Intn(len(legal))]
			got := movesOf(drain(t, NewProbe(pos, ttMove, threshold, &tables.Capture), false))
			want := lo.Filter(generated(pos, board.Captures), func(m board.Move, _ int) bool {
				return pos.SeeGE(m, threshold)
			})
			assertPermutation(t, got, want)
			if lo.Contains(want, ttMove) {
				is.New(t).Equal(got[0], ttMove)
			}
		}
	}
}

func TestHashMoveFirstAndOnce(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, kiwipeteFEN)
	for _, tt := range pos.LegalMoves() {
		p := NewMain(pos, tt, 3, Histories{}, [2]board.Move{}, board.NoMove)
		is.Equal(p.Stage(), MainTT)
		got := movesOf(drain(t, p, false))
		is.Equal(got[0], tt)
		is.Equal(lo.Count(got, tt), 1)
	}
}

func TestIllegalHashMoveSkipped(t *testing.T) {
	is := is.New(t)
	pos := board.StartPosition()
	p := NewMain(pos, mustMove(t, "e2e5"), 2, Histories{}, [2]board.Move{}, board.NoMove)
	is.Equal(p.Stage(), CaptureInit)
	p = NewQuiescence(pos, board.NoMove, 0, Histories{}, board.SquareNone)
	is.Equal(p.Stage(), QCaptureInit)
}

func TestGoodCapturesBeforeBad(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, exchangeFEN)
	got := drain(t, NewMain(pos, board.NoMove, 5, Histories{}, [2]board.Move{}, board.NoMove), false)
	is.Equal(got[0], yield{mustMove(t, "c3d5"), GoodCapture})
	is.Equal(got[len(got)-1], yield{mustMove(t, "e2e5"), BadCapture})
}

func TestBadCapturesFailSEE(t *testing.T) {
	is := is.New(t)
	rng := testRNG(4)
	tables := history.NewTables()
	for _, pos := range positions(t) {
		if pos.InCheck() {
			continue
		}
		hist := filledHistories(rng, tables)
		p := NewMain(pos, board.NoMove, 3, hist, [2]board.Move{}, board.NoMove)
		var scored [MaxMoves]board.ScoredMove
		n := pos.Generate(board.Captures, scored[:])
		p.scoreCaptures(scored[:n])
		value := map[board.Move]int{}
		for _, sm := range scored[:n] {
			value[sm.Move] = sm.Value
		}

		got := drain(t, p, false)
		// Stages never go backwards.
		for i := 1; i < len(got); i++ {
			is.True(got[i-1].stage <= got[i].stage)
		}
		for _, y := range got {
			switch y.stage {
			case GoodCapture:
				is.True(pos.SeeGE(y.move, -value[y.move]))
			case BadCapture:
				is.True(!pos.SeeGE(y.move, -value[y.move]))
			}
		}
	}
}

func TestRefutations(t *testing.T) {
	is := is.New(t)
	pos := board.StartPosition()
	k0, k1, cm := mustMove(t, "g1f3"), mustMove(t, "d2d4"), mustMove(t, "b1c3")
	got := drain(t, NewMain(pos, board.NoMove, 4, Histories{}, [2]board.Move{k0, k1}, cm), false)
	is.Equal(len(got), 20)
	is.Equal(got[:3], []yield{{k0, Refutation}, {k1, Refutation}, {cm, Refutation}})
	assertPermutation(t, movesOf(got), pos.LegalMoves())
}

func TestRepeatedRefutationsYieldOnce(t *testing.T) {
	is := is.New(t)
	pos := board.StartPosition()
	k := mustMove(t, "e2e4")
	got := movesOf(drain(t, NewMain(pos, board.NoMove, 2, Histories{}, [2]board.Move{k, k}, k), false))
	is.Equal(got[0], k)
	is.Equal(lo.Count(got, k), 1)
	is.Equal(len(got), 20)
}

func TestRefutationFilters(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, exchangeFEN)
	capture := mustMove(t, "c3d5")
	illegal := mustMove(t, "e2e8")
	quiet := mustMove(t, "e1d1")
	got := drain(t, NewMain(pos, board.NoMove, 2, Histories{}, [2]board.Move{capture, illegal}, quiet), false)
	is.Equal(got[0], yield{capture, GoodCapture})
	is.Equal(got[1], yield{quiet, Refutation})
	is.True(!lo.Contains(movesOf(got), illegal))
	assertPermutation(t, movesOf(got), pos.LegalMoves())
}

// evasionOnly fails the test if anything but evasions is generated.
type evasionOnly struct {
	*board.Position
	t *testing.T
}

func (p evasionOnly) Generate(gt board.GenType, buf []board.ScoredMove) int {
	if gt != board.Evasions {
		p.t.Fatalf("generated %s while in check", gt)
	}
	return p.Position.Generate(gt, buf)
}

func TestEvasionPath(t *testing.T) {
	is := is.New(t)
	for _, fen := range []string{queenCheckFEN, singleEvasionFEN} {
		pos := mustParse(t, fen)
		is.True(pos.InCheck())
		ep := evasionOnly{pos, t}
		for _, p := range []*Picker{
			NewMain(ep, board.NoMove, 3, Histories{}, [2]board.Move{}, board.NoMove),
			NewQuiescence(ep, board.NoMove, -2, Histories{}, board.SquareNone),
		} {
			is.Equal(p.Stage(), EvasionInit)
			got := drain(t, p, false)
			for _, y := range got {
				is.Equal(y.stage, Evasion)
			}
			assertPermutation(t, movesOf(got), pos.LegalMoves())
		}
	}
}

func TestEvasionCapturesFirst(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, queenCheckFEN)
	rng := testRNG(5)
	tables := history.NewTables()
	for i := 0; i < 10; i++ {
		hist := filledHistories(rng, tables)
		got := movesOf(drain(t, NewMain(pos, board.NoMove, 1, hist, [2]board.Move{}, board.NoMove), false))
		is.Equal(got, []board.Move{mustMove(t, "e1d2"), mustMove(t, "e1f1")})
	}
}

func TestSingleEvasion(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, singleEvasionFEN)
	is.Equal(len(pos.LegalMoves()), 1)
	p := NewMain(pos, board.NoMove, 8, Histories{}, [2]board.Move{}, board.NoMove)
	is.Equal(p.Next(false), mustMove(t, "d8d1"))
	for i := 0; i < 5; i++ {
		is.Equal(p.Next(false), board.NoMove)
		is.Equal(p.Next(true), board.NoMove)
	}
}

func TestExhaustedStaysExhausted(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, kiwipeteFEN)
	pickers := []*Picker{
		NewMain(pos, board.NoMove, 3, Histories{}, [2]board.Move{}, board.NoMove),
		NewQuiescence(pos, board.NoMove, DepthQSChecks, Histories{}, board.SquareNone),
		NewQuiescence(pos, board.NoMove, DepthQSNoChecks, Histories{}, board.SquareNone),
		NewProbe(pos, board.NoMove, 0, nil),
	}
	for _, p := range pickers {
		drain(t, p, false)
		stage := p.Stage()
		for i := 0; i < 3; i++ {
			is.Equal(p.Next(false), board.NoMove)
		}
		is.Equal(p.Stage(), stage)
	}
}

func TestIdempotent(t *testing.T) {
	is := is.New(t)
	tables := history.NewTables()
	for _, pos := range positions(t) {
		hist := filledHistories(testRNG(6), tables)
		killers := [2]board.Move{pos.LegalMoves()[0], board.NoMove}
		a := drain(t, NewMain(pos, board.NoMove, 7, hist, killers, board.NoMove), false)
		b := drain(t, NewMain(pos, board.NoMove, 7, hist, killers, board.NoMove), false)
		is.Equal(a, b)
	}
}

func TestSkipQuiets(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, kiwipeteFEN)
	killer := mustMove(t, "a2a3")

	got := movesOf(drain(t, NewMain(pos, board.NoMove, 3, Histories{}, [2]board.Move{killer}, board.NoMove), true))
	// Refutations are not quiets for this purpose.
	want := append(generated(pos, board.Captures), killer)
	assertPermutation(t, got, want)

	// Skipping only after the quiets were generated still yields the bad
	// captures.
	p := NewMain(pos, board.NoMove, 3, Histories{}, [2]board.Move{}, board.NoMove)
	var first []board.Move
	for p.Stage() != Quiet {
		first = append(first, p.Next(false))
	}
	rest := movesOf(drain(t, p, true))
	all := append(first, rest...)
	is.True(lo.Every(all, generated(pos, board.Captures)))
	is.True(len(all) < len(pos.LegalMoves()))
}

func TestQuiescenceRecaptures(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, exchangeFEN)
	d5, _ := board.ParseSquare("d5")

	got := movesOf(drain(t, NewQuiescence(pos, board.NoMove, DepthQSRecaptures, Histories{}, d5), false))
	is.Equal(got, []board.Move{mustMove(t, "c3d5")})

	p := NewQuiescence(pos, board.NoMove, DepthQSRecaptures, Histories{}, board.SquareNone)
	is.Equal(p.Next(false), board.NoMove)
	is.Equal(p.Stage(), QCapture)

	got = movesOf(drain(t, NewQuiescence(pos, board.NoMove, DepthQSRecaptures+1, Histories{}, board.SquareNone), false))
	is.Equal(got, []board.Move{mustMove(t, "c3d5"), mustMove(t, "e2e5")})
}

func TestQuiescenceChecks(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, exchangeFEN)
	checks := generated(pos, board.QuietChecks)
	is.True(len(checks) > 0)

	got := drain(t, NewQuiescence(pos, board.NoMove, DepthQSChecks, Histories{}, board.SquareNone), false)
	is.Equal(len(got), 2+len(checks))
	for _, y := range got[2:] {
		is.Equal(y.stage, QCheck)
		is.True(pos.GivesCheck(y.move))
	}

	got = drain(t, NewQuiescence(pos, board.NoMove, DepthQSNoChecks, Histories{}, board.SquareNone), false)
	is.Equal(len(got), 2)
}

func TestProbe(t *testing.T) {
	is := is.New(t)
	pos := mustParse(t, exchangeFEN)
	nxd5, qxe5 := mustMove(t, "c3d5"), mustMove(t, "e2e5")

	p := NewProbe(pos, qxe5, 0, nil)
	is.Equal(p.Stage(), ProbeInit)
	is.Equal(movesOf(drain(t, p, false)), []board.Move{nxd5})

	p = NewProbe(pos, nxd5, 0, nil)
	is.Equal(p.Stage(), ProbeTT)
	is.Equal(movesOf(drain(t, p, false)), []board.Move{nxd5})

	// Quiet hash moves are never probed.
	p = NewProbe(pos, mustMove(t, "e1d1"), -1000, nil)
	is.Equal(p.Stage(), ProbeInit)
}

func TestConstructorPanics(t *testing.T) {
	is := is.New(t)
	pos := board.StartPosition()
	panics := func(f func()) (ok bool) {
		defer func() { ok = recover() != nil }()
		f()
		return false
	}
	is.True(panics(func() { NewMain(pos, board.NoMove, 0, Histories{}, [2]board.Move{}, board.NoMove) }))
	is.True(panics(func() { NewQuiescence(pos, board.NoMove, 1, Histories{}, board.SquareNone) }))
	is.True(panics(func() { NewProbe(mustParse(t, queenCheckFEN), board.NoMove, 0, nil) }))
	is.True(!panics(func() { NewMain(pos, board.NoMove, 1, Histories{}, [2]board.Move{}, board.NoMove) }))
}

func TestUnknownStagePanics(t *testing.T) {
	is := is.New(t)
	p := NewMain(board.StartPosition(), board.NoMove, 1, Histories{}, [2]board.Move{}, board.NoMove)
	p.stage = QCheck + 1
	defer func() {
		is.True(recover() != nil)
	}()
	p.Next(false)
}
