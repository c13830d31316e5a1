package fn

import (
	"fmt"
	"math"
)

// Box is a per-coordinate [Lower, Upper] constraint set. Bounds are fixed
// for the duration of a solve; solvers only read them.
type Box struct {
	Lower []float64
	Upper []float64
}

// NewBox creates a box from lower and upper bound vectors.
// Returns an error if lengths differ or any lower bound exceeds its upper.
func NewBox(lower, upper []float64) (*Box, error) {
	if len(lower) != len(upper) {
		return nil, &DimensionError{Want: len(lower), Got: len(upper)}
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, fmt.Errorf("invalid bounds at coordinate %d: lower %g > upper %g", i, lower[i], upper[i])
		}
	}
	return &Box{
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
	}, nil
}

// UnitBox returns the box [0,1]^n.
func UnitBox(n int) *Box {
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := range upper {
		upper[i] = 1
	}
	b, _ := NewBox(lower, upper)
	return b
}

// Dim returns the box dimension.
func (b *Box) Dim() int { return len(b.Lower) }

// Contains reports whether x lies inside the box (bounds inclusive).
func (b *Box) Contains(x []float64) bool {
	if len(x) != len(b.Lower) {
		return false
	}
	for i, v := range x {
		if v < b.Lower[i] || v > b.Upper[i] {
			return false
		}
	}
	return true
}

// Clip projects x onto the box componentwise and returns a new vector.
func (b *Box) Clip(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Min(math.Max(v, b.Lower[i]), b.Upper[i])
	}
	return out
}

// Center returns the midpoint of the box.
func (b *Box) Center() []float64 {
	c := make([]float64, len(b.Lower))
	for i := range c {
		c[i] = 0.5 * (b.Lower[i] + b.Upper[i])
	}
	return c
}

// Vertex returns the box vertex minimizing the linear form g.x, i.e. the
// solution of the Frank-Wolfe linearized subproblem. Coordinates with zero
// gradient stay at the lower bound.
func (b *Box) Vertex(g []float64) []float64 {
	v := make([]float64, len(g))
	for i, gi := range g {
		if gi < 0 {
			v[i] = b.Upper[i]
		} else {
			v[i] = b.Lower[i]
		}
	}
	return v
}

// MaxStep returns the largest t >= 0 such that x + t*d stays inside the box.
// Returns +Inf when d never hits a bound.
func (b *Box) MaxStep(x, d []float64) float64 {
	t := math.Inf(1)
	for i, di := range d {
		switch {
		case di > 0:
			t = math.Min(t, (b.Upper[i]-x[i])/di)
		case di < 0:
			t = math.Min(t, (b.Lower[i]-x[i])/di)
		}
	}
	if t < 0 {
		t = 0
	}
	return t
}
