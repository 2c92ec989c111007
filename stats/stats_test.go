package stats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

const epsilon = 1e-6

func fuzzyEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestRunning(t *testing.T) {
	is := is.New(t)
	type tc struct {
		samples []float64
		mean    float64
		stdev   float64
	}
	cases := []tc{
		{[]float64{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]float64{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]float64{1}, 1, 0},
		{[]float64{}, 0, 0},
		{[]float64{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Running{}
		for _, v := range c.samples {
			s.Push(v)
		}
		is.Equal(s.Count(), len(c.samples))
		is.True(fuzzyEqual(s.Mean(), c.mean))
		is.True(fuzzyEqual(s.Stdev(), c.stdev))
	}
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(math.Abs(ZVal(95)-1.959964) < 1e-5)
	is.True(math.Abs(ZVal(99)-2.575829) < 1e-5)
}

func TestHalfWidth(t *testing.T) {
	is := is.New(t)
	s := &Running{}
	is.Equal(s.HalfWidth(95), 0.0)
	for _, v := range []float64{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(v)
	}
	want := ZVal(95) * 5.2372293656638 / math.Sqrt(8)
	is.True(math.Abs(s.HalfWidth(95)-want) < 1e-6)
}
