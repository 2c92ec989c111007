// Package bench drives move pickers over whole move trees. Its perft
// counts double as a correctness check of the pickers: every legal move
// must come out exactly once at every node.
package bench

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/movepicker/board"
	"github.com/domino14/movepicker/config"
	"github.com/domino14/movepicker/movepick"
)

var ErrNoPositions = errors.New("no bench positions")

// DefaultPositions are the usual perft test positions.
var DefaultPositions = []string{
	board.StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
}

type Config struct {
	Depth   int
	Threads int
	// Seed fills the starting histories with random values. Zero starts
	// them empty.
	Seed           uint64
	ProbeThreshold int
	QSearchMaxPly  int
	HashFraction   float64
}

func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Depth:          cfg.GetInt(config.ConfigBenchDepth),
		Threads:        cfg.GetInt(config.ConfigBenchThreads),
		Seed:           cfg.GetUint64(config.ConfigBenchSeed),
		ProbeThreshold: cfg.GetInt(config.ConfigProbeThreshold),
		QSearchMaxPly:  cfg.GetInt(config.ConfigQSearchMaxPly),
		HashFraction:   cfg.GetFloat64(config.ConfigHashFraction),
	}
}

type PositionResult struct {
	FEN string
	// Perft holds the leaf count of each depth from 1.
	Perft []int64
	Stats
	// HashMoves sums the hash move table counters of every walker.
	HashMoves   HashStats
	Fingerprint uint64
}

type Result struct {
	Positions []PositionResult
	Stats
	Elapsed     time.Duration
	Fingerprint uint64
}

// NPS is the number of main and quiescence nodes visited per second.
func (r *Result) NPS() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Nodes+r.QNodes) / r.Elapsed.Seconds()
}

// RNG returns the generator that seeds the tables of one worker at one
// position.
func (c Config) RNG(position, worker int) *frand.RNG {
	seed := make([]byte, 32)
	binary.LittleEndian.PutUint64(seed, c.Seed)
	binary.LittleEndian.PutUint64(seed[8:], uint64(position))
	binary.LittleEndian.PutUint64(seed[16:], uint64(worker))
	return frand.NewCustom(seed, 1024, 12)
}

// Run walks every position to each depth from 1 to cfg.Depth. The root
// moves of a position are dealt out to cfg.Threads walkers, each with its
// own tables; the walkers keep what they learned from one depth to the
// next. Identical inputs give identical results.
func Run(ctx context.Context, cfg Config, fens []string) (*Result, error) {
	if len(fens) == 0 {
		return nil, ErrNoPositions
	}
	if cfg.Depth < 1 {
		return nil, fmt.Errorf("bench depth must be positive, got %d", cfg.Depth)
	}
	cfg.Threads = max(cfg.Threads, 1)

	positions := make([]*board.Position, len(fens))
	for i, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			return nil, fmt.Errorf("bench position %d: %w", i+1, err)
		}
		positions[i] = pos
	}

	walkers := make([]*Walker, cfg.Threads)
	for i := range walkers {
		walkers[i] = NewWalker(ctx, cfg)
	}

	tstart := time.Now()
	res := &Result{}
	fp := xxhash.New()
	for i, pos := range positions {
		pr, err := runPosition(ctx, cfg, i, pos, walkers)
		if err != nil {
			return nil, err
		}
		pr.FEN = fens[i]
		res.Positions = append(res.Positions, *pr)
		res.Stats.add(pr.Stats)
		fp.Write(binary.LittleEndian.AppendUint64(nil, pr.Fingerprint))
		log.Info().Int("position", i+1).
			Ints64("perft", pr.Perft).
			Uint64("nodes", pr.Nodes).
			Uint64("qnodes", pr.QNodes).
			Uint64("probe-hits", pr.ProbeHits).
			Uint64("ttable-created", pr.HashMoves.Created).
			Uint64("ttable-lookups", pr.HashMoves.Lookups).
			Uint64("ttable-hits", pr.HashMoves.Hits).
			Uint64("ttable-t2collisions", pr.HashMoves.T2Collisions).
			Msg("bench-position-done")
	}
	res.Elapsed = time.Since(tstart)
	res.Fingerprint = fp.Sum64()
	log.Info().Uint64("nodes", res.Nodes).
		Uint64("qnodes", res.QNodes).
		Float64("time-elapsed-sec", res.Elapsed.Seconds()).
		Float64("nps", res.NPS()).
		Str("fingerprint", fingerprint(res.Fingerprint)).
		Msg("bench-done")
	return res, nil
}

func runPosition(ctx context.Context, cfg Config, idx int, pos *board.Position, walkers []*Walker) (*PositionResult, error) {
	for i, w := range walkers {
		w.Reset()
		if cfg.Seed != 0 {
			w.Tables().Fill(cfg.RNG(idx, i))
		}
	}
	pr := &PositionResult{}
	fp := xxhash.New()
	lead := walkers[0]

	for depth := 1; depth <= cfg.Depth; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The root is ordered by the first walker, like any other node.
		var roots []board.Move
		rootTT := lead.hashMoves.Lookup(pos.Hash())
		mp := movepick.NewMain(pos, rootTT, depth, lead.histories(0), lead.tables.Killers.At(0), board.NoMove)
		for m := mp.Next(false); m != board.NoMove; m = mp.Next(false) {
			roots = append(roots, m)
		}

		counts := make([]int64, len(roots))
		digests := make([]uint64, len(roots))
		g, gctx := errgroup.WithContext(ctx)
		for t, w := range walkers {
			w.ctx = gctx
			g.Go(func() error {
				for i := t; i < len(roots); i += len(walkers) {
					counts[i], digests[i] = w.Root(pos, roots[i], depth)
				}
				if w.stopped {
					return gctx.Err()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		// The context may have been cancelled after the last check.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pr.Perft = append(pr.Perft, lo.Sum(counts))
		for _, d := range digests {
			fp.Write(binary.LittleEndian.AppendUint64(nil, d))
		}
		if len(roots) > 0 {
			best := roots[lo.IndexOf(counts, lo.Max(counts))]
			lead.learn(pos, best, depth, 0)
		}
		log.Debug().Int("depth", depth).Int64("perft", pr.Perft[depth-1]).
			Int("root-moves", len(roots)).Msg("bench-depth-done")
	}
	for _, w := range walkers {
		pr.Stats.add(w.Stats())
		pr.HashMoves.add(w.hashMoves.Stats())
	}
	pr.Fingerprint = fp.Sum64()
	return pr, nil
}
