// Package stats keeps running statistics of timing samples.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Running accumulates the mean and variance of a stream of samples with
// Welford's algorithm.
type Running struct {
	n    int
	mean float64
	m2   float64
}

func (s *Running) Push(val float64) {
	s.n++
	delta := val - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (val - s.mean)
}

func (s *Running) Count() int {
	return s.n
}

func (s *Running) Mean() float64 {
	return s.mean
}

// Variance is the sample variance; it is zero below two samples.
func (s *Running) Variance() float64 {
	if s.n <= 1 {
		return 0
	}
	return s.m2 / float64(s.n-1)
}

func (s *Running) Stdev() float64 {
	return math.Sqrt(s.Variance())
}

// ZVal returns the two-tailed Z-value associated with a specific confidence interval.
// The interval is a number from 0 to 100 percent.
func ZVal(confidenceInterval float64) float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
	}
	return dist.Quantile((1 + confidenceInterval/100) / 2)
}

// HalfWidth is the half width of the confidence interval of the mean at
// the given percentage.
func (s *Running) HalfWidth(confidenceInterval float64) float64 {
	if s.n == 0 {
		return 0
	}
	return ZVal(confidenceInterval) * s.Stdev() / math.Sqrt(float64(s.n))
}
