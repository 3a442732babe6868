package pika

import "fmt"

// Variable is a named vector of real values, each either free or fixed. Free
// values are decision variables for the corrector; fixed values participate
// in propagation and constraint evaluation but never change. Variables are
// identified by pointer: two Variables with identical data are still distinct
// entries in a corrections problem.
type Variable struct {
	vals []float64
	mask []bool // true = fixed, false = free
	name string
}

// NewVariable returns a variable over vals with the given mask, where a true
// mask entry marks the value as fixed. The mask and value lengths must agree.
func NewVariable(vals []float64, mask []bool, name string) (*Variable, error) {
	if len(vals) != len(mask) {
		return nil, configErrorf("variable %s has %d values but %d mask entries", name, len(vals), len(mask))
	}
	v := &Variable{vals: make([]float64, len(vals)), mask: make([]bool, len(mask)), name: name}
	copy(v.vals, vals)
	copy(v.mask, mask)
	return v, nil
}

// NewFreeVariable returns a variable with every value free.
func NewFreeVariable(vals []float64, name string) *Variable {
	v, _ := NewVariable(vals, make([]bool, len(vals)), name)
	return v
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// String implements the Stringer interface.
func (v *Variable) String() string {
	return fmt.Sprintf("%s %v (%d free)", v.name, v.vals, v.NumFree())
}

// Size returns the total number of values, fixed and free.
func (v *Variable) Size() int { return len(v.vals) }

// NumFree returns the number of free values.
func (v *Variable) NumFree() int {
	n := 0
	for _, fixed := range v.mask {
		if !fixed {
			n++
		}
	}
	return n
}

// AllVals returns a copy of every value, fixed and free.
func (v *Variable) AllVals() []float64 {
	cp := make([]float64, len(v.vals))
	copy(cp, v.vals)
	return cp
}

// Mask returns a copy of the mask; true entries are fixed.
func (v *Variable) Mask() []bool {
	cp := make([]bool, len(v.mask))
	copy(cp, v.mask)
	return cp
}

// FreeVals returns the free values in index order.
func (v *Variable) FreeVals() []float64 {
	out := make([]float64, 0, v.NumFree())
	for i, fixed := range v.mask {
		if !fixed {
			out = append(out, v.vals[i])
		}
	}
	return out
}

// UnmaskedIndices maps raw element positions onto their ordinals within the
// free subsequence, dropping positions whose values are fixed. Constraints
// use it to select specific coordinates out of a partially fixed variable.
func (v *Variable) UnmaskedIndices(indices []int) []int {
	out := []int{}
	for _, ix := range indices {
		if ix < 0 || ix >= len(v.mask) || v.mask[ix] {
			continue
		}
		ord := 0
		for i := 0; i < ix; i++ {
			if !v.mask[i] {
				ord++
			}
		}
		out = append(out, ord)
	}
	return out
}

// freeRawIndices returns the raw positions of the free values, in order.
func (v *Variable) freeRawIndices() []int {
	out := make([]int, 0, v.NumFree())
	for i, fixed := range v.mask {
		if !fixed {
			out = append(out, i)
		}
	}
	return out
}

// SetFreeVals overwrites the free values in index order, leaving the fixed
// values untouched. The input length must match NumFree.
func (v *Variable) SetFreeVals(vals []float64) error {
	if len(vals) != v.NumFree() {
		return dimErrorf("variable %s has %d free values, cannot assign %d", v.name, v.NumFree(), len(vals))
	}
	ix := 0
	for i, fixed := range v.mask {
		if !fixed {
			v.vals[i] = vals[ix]
			ix++
		}
	}
	return nil
}
