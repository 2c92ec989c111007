package bench

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Report is a Result laid out for serializing.
type Report struct {
	Positions   []PositionReport `json:"positions" yaml:"positions"`
	Nodes       uint64           `json:"nodes" yaml:"nodes"`
	QNodes      uint64           `json:"qnodes" yaml:"qnodes"`
	ProbeHits   uint64           `json:"probe_hits" yaml:"probe_hits"`
	ElapsedSec  float64          `json:"elapsed_sec" yaml:"elapsed_sec"`
	NPS         float64          `json:"nps" yaml:"nps"`
	Fingerprint string           `json:"fingerprint" yaml:"fingerprint"`
	Timing      *Timing          `json:"timing,omitempty" yaml:"timing,omitempty"`
}

type PositionReport struct {
	FEN         string  `json:"fen" yaml:"fen"`
	Perft       []int64 `json:"perft" yaml:"perft,flow"`
	Nodes       uint64  `json:"nodes" yaml:"nodes"`
	QNodes      uint64  `json:"qnodes,omitempty" yaml:"qnodes,omitempty"`
	ProbeHits   uint64    `json:"probe_hits,omitempty" yaml:"probe_hits,omitempty"`
	HashMoves   HashStats `json:"hash_moves" yaml:"hash_moves"`
	Fingerprint string    `json:"fingerprint" yaml:"fingerprint"`
}

func fingerprint(f uint64) string {
	return fmt.Sprintf("%016x", f)
}

func (r *Result) Report() Report {
	rep := Report{
		Nodes:       r.Nodes,
		QNodes:      r.QNodes,
		ProbeHits:   r.ProbeHits,
		ElapsedSec:  r.Elapsed.Seconds(),
		NPS:         r.NPS(),
		Fingerprint: fingerprint(r.Fingerprint),
	}
	for _, p := range r.Positions {
		rep.Positions = append(rep.Positions, PositionReport{
			FEN:         p.FEN,
			Perft:       p.Perft,
			Nodes:       p.Nodes,
			QNodes:      p.QNodes,
			ProbeHits:   p.ProbeHits,
			HashMoves:   p.HashMoves,
			Fingerprint: fingerprint(p.Fingerprint),
		})
	}
	return rep
}

func (r *Result) WriteYAML(w io.Writer) error {
	return r.Report().WriteYAML(w)
}

func (rep Report) WriteYAML(w io.Writer) error {
	out, err := yaml.Marshal(rep)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
