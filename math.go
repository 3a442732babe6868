package pika

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// norm returns the 2-norm of a vector of any length.
func norm(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// unit returns the unit vector of a given vector.
func unit(a []float64) (b []float64) {
	n := norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return make([]float64, len(a))
	}
	b = make([]float64, len(a))
	for i, val := range a {
		b[i] = val / n
	}
	return
}

// concatFloats concatenates slices, skipping empty ones.
func concatFloats(slices ...[]float64) []float64 {
	out := []float64{}
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}

// stackDense stacks matrices vertically, skipping nil blocks. All non-nil
// blocks must share a column count.
func stackDense(blocks ...*mat64.Dense) *mat64.Dense {
	var rows, cols int
	for _, b := range blocks {
		if b == nil {
			continue
		}
		r, c := b.Dims()
		if rows > 0 && c != cols {
			panic(dimErrorf("cannot stack %d-column block onto %d-column stack", c, cols))
		}
		rows += r
		cols = c
	}
	if rows == 0 {
		return nil
	}
	out := mat64.NewDense(rows, cols, nil)
	ix := 0
	for _, b := range blocks {
		if b == nil {
			continue
		}
		r, _ := b.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				out.Set(ix+i, j, b.At(i, j))
			}
		}
		ix += r
	}
	return out
}

// scaledDense returns s*m as a new matrix, or nil for a nil input.
func scaledDense(s float64, m *mat64.Dense) *mat64.Dense {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	out := mat64.NewDense(r, c, nil)
	out.Scale(s, m)
	return out
}
