package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/movepicker/bench"
	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/config"
	"github.com/domino14/movepicker/history"
	"github.com/domino14/movepicker/movepick"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c CmdOptions) Int(key string) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v := c[key]
	if len(v) == 0 {
		return defaultI, nil
	}
	return strconv.Atoi(v[0])
}

func (c CmdOptions) Bool(key string) bool {
	v := c[key]
	if len(v) == 0 {
		return false
	}
	return strings.ToLower(v[0]) == "true"
}

func (c CmdOptions) StringArray(key string) []string {
	return c[key]
}

// Move parses the option as a move; a missing option is board.NoMove.
func (c CmdOptions) Move(key string) (board.Move, error) {
	v := c.String(key)
	if v == "" {
		return board.NoMove, nil
	}
	return board.ParseMove(v)
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) positionText() string {
	var sb strings.Builder
	sb.WriteString(sc.pos.String())
	fmt.Fprintf(&sb, "fen: %s\n", sc.pos.FEN())
	if sc.pos.InCheck() {
		sb.WriteString("in check\n")
	}
	if len(sc.played) > 0 {
		sb.WriteString("moves:")
		for _, pm := range sc.played {
			sb.WriteString(" " + pm.move.String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// applyMoves plays each move in turn from the current position.
func (sc *ShellController) applyMoves(moves []string) error {
	for _, s := range moves {
		m, err := board.ParseMove(s)
		if err != nil {
			return err
		}
		if !sc.pos.PseudoLegal(m) {
			return fmt.Errorf("%s is not legal in %s", s, sc.pos.FEN())
		}
		sc.played = append(sc.played, playedMove{sc.pos.MovedPiece(m), m})
		sc.pos = sc.pos.Apply(m)
	}
	return nil
}

// position startpos [moves ...] | position fen <fen> [moves ...]
func (sc *ShellController) position(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: position startpos|fen <fen> [moves m1 m2 ...]")
	}
	rest := cmd.args[1:]
	movesAt := lo.IndexOf(rest, "moves")
	var moves []string
	if movesAt >= 0 {
		moves = rest[movesAt+1:]
		rest = rest[:movesAt]
	}
	var pos *board.Position
	switch cmd.args[0] {
	case "startpos":
		pos = board.StartPosition()
	case "fen":
		var err error
		pos, err = board.ParseFEN(strings.Join(rest, " "))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown position kind %q", cmd.args[0])
	}
	sc.base, sc.pos, sc.played = pos, pos, nil
	if err := sc.applyMoves(moves); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play m1 [m2 ...]")
	}
	if err := sc.applyMoves(cmd.args); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n, err := strconv.Atoi(lo.FirstOr(cmd.args, "1"))
	if err != nil {
		return nil, err
	}
	if n < 1 || n > len(sc.played) {
		return nil, fmt.Errorf("can only undo between 1 and %d moves", len(sc.played))
	}
	moves := lo.Map(sc.played[:len(sc.played)-n], func(pm playedMove, _ int) string {
		return pm.move.String()
	})
	sc.pos, sc.played = sc.base, nil
	if err := sc.applyMoves(moves); err != nil {
		return nil, err
	}
	return msg(sc.positionText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.positionText()), nil
}

// moves lists the legal moves by generation category.
func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	gts := []board.GenType{board.Captures, board.Quiets, board.QuietChecks}
	if sc.pos.InCheck() {
		gts = []board.GenType{board.Evasions}
	}
	var buf [movepick.MaxMoves]board.ScoredMove
	var sb strings.Builder
	for _, gt := range gts {
		n := sc.pos.Generate(gt, buf[:])
		names := lo.Map(buf[:n], func(sm board.ScoredMove, _ int) string {
			return sm.Move.String()
		})
		fmt.Fprintf(&sb, "%s (%d): %s\n", gt, n, strings.Join(names, " "))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// histories returns the tables a picker at the current position reads,
// with the continuation entries taken from the moves played so far.
func (sc *ShellController) histories() movepick.Histories {
	h := movepick.Histories{Main: &sc.tables.Main, Capture: &sc.tables.Capture}
	for i := range h.Continuation {
		prev := len(sc.played) - 1 - i
		if prev < 0 {
			break
		}
		pm := sc.played[prev]
		h.Continuation[i] = sc.tables.Continuation.Entry(pm.piece, pm.move.To())
	}
	return h
}

func (sc *ShellController) lastCounter() board.Move {
	if len(sc.played) == 0 {
		return board.NoMove
	}
	pm := sc.played[len(sc.played)-1]
	return sc.tables.Counters.At(pm.piece, pm.move.To())
}

type pickParams struct {
	mode       string
	depth      int
	threshold  int
	ttMove     board.Move
	killers    [history.MaxKillers]board.Move
	counter    board.Move
	recapture  board.Square
	skipQuiets bool
}

func (sc *ShellController) pickPrepare(cmd *shellcmd) (*pickParams, error) {
	p := &pickParams{
		mode:       cmd.options.String("mode"),
		skipQuiets: cmd.options.Bool("skipquiets"),
		recapture:  board.SquareNone,
		killers:    sc.tables.Killers.At(0),
		counter:    sc.lastCounter(),
	}
	if p.mode == "" {
		p.mode = "main"
	}
	defaultDepth := 1
	if p.mode == "qsearch" {
		defaultDepth = movepick.DepthQSChecks
	}
	var err error
	if p.depth, err = cmd.options.IntDefault("depth", defaultDepth); err != nil {
		return nil, err
	}
	if p.threshold, err = cmd.options.IntDefault("threshold",
		sc.config.GetInt(config.ConfigProbeThreshold)); err != nil {
		return nil, err
	}
	if p.ttMove, err = cmd.options.Move("tt"); err != nil {
		return nil, err
	}
	if ks := cmd.options.StringArray("killers"); len(ks) > 0 {
		ks = lo.FlatMap(ks, func(s string, _ int) []string { return strings.Split(s, ",") })
		if len(ks) > history.MaxKillers {
			return nil, fmt.Errorf("at most %d killers", history.MaxKillers)
		}
		p.killers = [history.MaxKillers]board.Move{}
		for i, k := range ks {
			if p.killers[i], err = board.ParseMove(k); err != nil {
				return nil, err
			}
		}
	}
	if cmd.options.String("counter") != "" {
		if p.counter, err = cmd.options.Move("counter"); err != nil {
			return nil, err
		}
	}
	if r := cmd.options.String("recapture"); r != "" {
		sq, ok := board.ParseSquare(r)
		if !ok {
			return nil, fmt.Errorf("bad recapture square %q", r)
		}
		p.recapture = sq
	}
	return p, nil
}

func (sc *ShellController) newPicker(p *pickParams) (picker *movepick.Picker, err error) {
	// The constructors panic on arguments that make no sense for them.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	switch p.mode {
	case "main":
		return movepick.NewMain(sc.pos, p.ttMove, p.depth, sc.histories(), p.killers, p.counter), nil
	case "qsearch":
		return movepick.NewQuiescence(sc.pos, p.ttMove, p.depth, sc.histories(), p.recapture), nil
	case "probe":
		return movepick.NewProbe(sc.pos, p.ttMove, p.threshold, &sc.tables.Capture), nil
	}
	return nil, fmt.Errorf("unknown pick mode %q; use main, qsearch or probe", p.mode)
}

type pickedMove struct {
	Move  string `json:"move"`
	Stage string `json:"stage"`
}

func (sc *ShellController) pickAll(cmd *shellcmd) ([]pickedMove, error) {
	params, err := sc.pickPrepare(cmd)
	if err != nil {
		return nil, err
	}
	picker, err := sc.newPicker(params)
	if err != nil {
		return nil, err
	}
	var out []pickedMove
	for {
		m := picker.Next(params.skipQuiets)
		if m == board.NoMove {
			break
		}
		// Only the hash move stages yield params.ttMove, and they have
		// already advanced past themselves when they do.
		stage := picker.Stage().String()
		if m == params.ttMove {
			stage = "tt"
		}
		out = append(out, pickedMove{m.String(), stage})
	}
	return out, nil
}

// pick prints the moves a picker yields, in order, with the stage each
// came from.
func (sc *ShellController) pick(cmd *shellcmd) (*Response, error) {
	picked, err := sc.pickAll(cmd)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return msg("no moves"), nil
	}
	var sb strings.Builder
	for i, pm := range picked {
		fmt.Fprintf(&sb, "%3d. %-6s %s\n", i+1, pm.Move, pm.Stage)
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// history clear | history fill <seed> | history reward <move> <bonus>
func (sc *ShellController) history(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: history clear|fill <seed>|reward <move> <bonus>")
	}
	switch cmd.args[0] {
	case "clear":
		sc.tables.Clear()
		return msg("history cleared"), nil
	case "fill":
		if len(cmd.args) < 2 {
			return nil, errors.New("usage: history fill <seed>")
		}
		seed, err := strconv.ParseUint(cmd.args[1], 10, 64)
		if err != nil {
			return nil, err
		}
		cfg := bench.Config{Seed: seed}
		sc.tables.Fill(cfg.RNG(0, 0))
		return msg("history filled with seed " + cmd.args[1]), nil
	case "reward":
		if len(cmd.args) < 3 {
			return nil, errors.New("usage: history reward <move> <bonus>")
		}
		m, err := board.ParseMove(cmd.args[1])
		if err != nil {
			return nil, err
		}
		if !sc.pos.PseudoLegal(m) {
			return nil, fmt.Errorf("%s is not legal here", cmd.args[1])
		}
		bonus, err := strconv.Atoi(cmd.args[2])
		if err != nil {
			return nil, err
		}
		sc.reward(m, bonus)
		return msg(fmt.Sprintf("rewarded %s with %d", m, bonus)), nil
	}
	return nil, fmt.Errorf("unknown history subcommand %q", cmd.args[0])
}

// reward updates the tables as if m had been the best move here.
func (sc *ShellController) reward(m board.Move, bonus int) {
	pc := sc.pos.MovedPiece(m)
	if sc.pos.CaptureStage(m) {
		sc.tables.Capture.Update(pc, m.To(), sc.pos.PieceOn(m.To()).Type(), bonus)
		return
	}
	if bonus > 0 {
		sc.tables.Killers.Store(0, m)
		if len(sc.played) > 0 {
			last := sc.played[len(sc.played)-1]
			sc.tables.Counters.Set(last.piece, last.move.To(), m)
		}
	}
	sc.tables.Main.Update(sc.pos.SideToMove(), m, bonus)
	sc.histories().Continuation.Update(pc, m.To(), bonus)
}

func (sc *ShellController) benchConfig(cmd *shellcmd) (bench.Config, error) {
	cfg := bench.ConfigFrom(sc.config)
	var err error
	if cfg.Depth, err = cmd.options.IntDefault("depth", cfg.Depth); err != nil {
		return cfg, err
	}
	if cfg.Threads, err = cmd.options.IntDefault("threads", cfg.Threads); err != nil {
		return cfg, err
	}
	if s := cmd.options.String("seed"); s != "" {
		if cfg.Seed, err = strconv.ParseUint(s, 10, 64); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

func (sc *ShellController) perft(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: perft <depth>")
	}
	depth, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	cfg, err := sc.benchConfig(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Depth = depth
	res, err := bench.Run(context.Background(), cfg, []string{sc.pos.FEN()})
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for i, n := range res.Positions[0].Perft {
		fmt.Fprintf(&sb, "perft(%d) = %d\n", i+1, n)
	}
	fmt.Fprintf(&sb, "nodes %d, qnodes %d, probe hits %d, %.0f nps",
		res.Nodes, res.QNodes, res.ProbeHits, res.NPS())
	return msg(sb.String()), nil
}

func (sc *ShellController) runBench(cmd *shellcmd) (bench.Report, error) {
	cfg, err := sc.benchConfig(cmd)
	if err != nil {
		return bench.Report{}, err
	}
	runs, err := cmd.options.IntDefault("runs", 1)
	if err != nil {
		return bench.Report{}, err
	}
	fens := cmd.args
	if len(fens) == 0 {
		fens = bench.DefaultPositions
	}
	log.Debug().Interface("config", cfg).Int("positions", len(fens)).Int("runs", runs).
		Msg("bench-starting")
	if runs == 1 {
		res, err := bench.Run(context.Background(), cfg, fens)
		if err != nil {
			return bench.Report{}, err
		}
		return res.Report(), nil
	}
	res, timing, err := bench.Repeat(context.Background(), cfg, fens, runs)
	if err != nil {
		return bench.Report{}, err
	}
	rep := res.Report()
	rep.Timing = timing
	return rep, nil
}

// bench [-depth n] [-threads n] [-seed n] [-runs n] [-yaml file|-] [fen ...]
func (sc *ShellController) bench(cmd *shellcmd) (*Response, error) {
	rep, err := sc.runBench(cmd)
	if err != nil {
		return nil, err
	}
	if out := cmd.options.String("yaml"); out != "" {
		if out == "-" {
			var sb strings.Builder
			if err := rep.WriteYAML(&sb); err != nil {
				return nil, err
			}
			return msg(strings.TrimRight(sb.String(), "\n")), nil
		}
		f, err := os.Create(out)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := rep.WriteYAML(f); err != nil {
			return nil, err
		}
	}
	var sb strings.Builder
	for i, p := range rep.Positions {
		fmt.Fprintf(&sb, "%d. %v %s\n", i+1, p.Perft, p.Fingerprint)
	}
	fmt.Fprintf(&sb, "nodes %d, qnodes %d, probe hits %d, %.2fs, %.0f nps, fingerprint %s",
		rep.Nodes, rep.QNodes, rep.ProbeHits, rep.ElapsedSec, rep.NPS, rep.Fingerprint)
	if rep.Timing != nil {
		fmt.Fprintf(&sb, "\n%d runs: %.0f nps +/- %.0f (95%%)",
			rep.Timing.Runs, rep.Timing.MeanNPS, rep.Timing.CI95)
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		settings := sc.config.SanitizedSettings()
		keys := lo.Keys(settings)
		sort.Strings(keys)
		lines := lo.Map(keys, func(k string, _ int) string {
			return fmt.Sprintf("%-18s %v", k, settings[k])
		})
		return msg(strings.Join(lines, "\n")), nil
	}
	opt := cmd.args[0]
	if !lo.Contains(sc.config.AllKeys(), opt) {
		return nil, fmt.Errorf("unknown setting %q", opt)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(opt))), nil
	}
	val := strings.Join(cmd.args[1:], " ")
	sc.config.Set(opt, val)
	return msg("set " + opt + " to " + val), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}
