package control

import (
	"fmt"

	"gonum.org/v1/gonum/interp"
)

// Table is a piecewise linear curve held constant beyond its end points.
type Table struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

func NewTable(xs, ys []float64) (*Table, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("table: %d breakpoints but %d values", len(xs), len(ys))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("table: breakpoints not strictly increasing at %d", i)
		}
	}
	if len(xs) == 1 {
		xs = []float64{xs[0], xs[0] + 1}
		ys = []float64{ys[0], ys[0]}
	}
	t := &Table{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	if err := t.pl.Fit(t.xs, t.ys); err != nil {
		return nil, fmt.Errorf("table: %w", err)
	}
	return t, nil
}

// MustTable is NewTable for package-level curves known to be valid.
func MustTable(xs, ys []float64) *Table {
	t, err := NewTable(xs, ys)
	if err != nil {
		panic(err)
	}
	return t
}

// Constant returns a table that evaluates to v everywhere.
func Constant(v float64) *Table {
	return MustTable([]float64{0, 1}, []float64{v, v})
}

func (t *Table) At(x float64) float64 {
	switch {
	case x <= t.xs[0]:
		return t.ys[0]
	case x >= t.xs[len(t.xs)-1]:
		return t.ys[len(t.ys)-1]
	}
	return t.pl.Predict(x)
}
