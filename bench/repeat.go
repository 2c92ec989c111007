package bench

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/domino14/movepicker/stats"
)

var ErrNondeterministic = errors.New("bench runs disagree")

// Timing summarizes the speed of repeated identical runs.
type Timing struct {
	Runs     int     `json:"runs" yaml:"runs"`
	MeanNPS  float64 `json:"mean_nps" yaml:"mean_nps"`
	StdevNPS float64 `json:"stdev_nps" yaml:"stdev_nps"`
	// CI95 is the half width of the 95% confidence interval of MeanNPS.
	CI95 float64 `json:"ci95" yaml:"ci95"`
}

// Repeat performs Run runs times. Every run must produce the same
// counts and fingerprint; the result is the last run.
func Repeat(ctx context.Context, cfg Config, fens []string, runs int) (*Result, *Timing, error) {
	if runs < 1 {
		return nil, nil, fmt.Errorf("bench runs must be positive, got %d", runs)
	}
	var nps stats.Running
	var first, res *Result
	for i := 0; i < runs; i++ {
		var err error
		res, err = Run(ctx, cfg, fens)
		if err != nil {
			return nil, nil, err
		}
		if first == nil {
			first = res
		} else if res.Fingerprint != first.Fingerprint || res.Nodes != first.Nodes {
			return nil, nil, fmt.Errorf("%w: run %d fingerprint %s, run 1 %s", ErrNondeterministic,
				i+1, fingerprint(res.Fingerprint), fingerprint(first.Fingerprint))
		}
		nps.Push(res.NPS())
		log.Debug().Int("run", i+1).Float64("nps", res.NPS()).Msg("bench-run-done")
	}
	t := &Timing{
		Runs:     nps.Count(),
		MeanNPS:  nps.Mean(),
		StdevNPS: nps.Stdev(),
		CI95:     nps.HalfWidth(95),
	}
	log.Info().Int("runs", t.Runs).Float64("mean-nps", t.MeanNPS).
		Float64("ci95", t.CI95).Msg("bench-repeat-done")
	return res, t, nil
}
