package pika

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// Unset marks a constraint target as unconstrained. Comparisons against it
// always use math.IsNaN, never equality.
var Unset = math.NaN()

// Constraint is a vector-valued equality constraint F(X) = 0 over the free
// variables of a corrections problem.
//
// Partials returns, per variable, a Size×NumFree block of partials with
// respect to that variable's free values. A variable with zero contribution
// must be absent from the map, not present with a zero block; the Jacobian
// assembly relies on that sparsity.
type Constraint interface {
	// Size returns the number of scalar equations.
	Size() int
	// Vars returns the variables the constraint depends on.
	Vars() []*Variable
	// Evaluate returns the constraint residual F(X).
	Evaluate() ([]float64, error)
	// Partials returns ∂F/∂(free values) per dependent variable. The index
	// map tells the constraint which variables the problem has registered.
	Partials(ixMap FreeVarIndexMap) (map[*Variable]*mat64.Dense, error)
}

// VariableValueConstraint pins free values of a variable to target values.
// The targets align with the variable's free values, one per free value, and
// any target set to Unset leaves that value unconstrained.
type VariableValueConstraint struct {
	variable *Variable
	values   []float64
	rows     []int // free-value ordinals with a finite target
}

// NewVariableValueConstraint returns a constraint pinning the variable's free
// values to values, which must have one entry per free value.
func NewVariableValueConstraint(variable *Variable, values []float64) (*VariableValueConstraint, error) {
	if len(values) != variable.NumFree() {
		return nil, configErrorf("variable %s has %d free values but %d targets were given", variable.Name(), variable.NumFree(), len(values))
	}
	con := &VariableValueConstraint{variable: variable, values: make([]float64, len(values))}
	copy(con.values, values)
	for i, v := range values {
		if !math.IsNaN(v) {
			con.rows = append(con.rows, i)
		}
	}
	return con, nil
}

// Size implements the Constraint interface.
func (con *VariableValueConstraint) Size() int { return len(con.rows) }

// Vars implements the Constraint interface.
func (con *VariableValueConstraint) Vars() []*Variable { return []*Variable{con.variable} }

// Evaluate implements the Constraint interface.
func (con *VariableValueConstraint) Evaluate() ([]float64, error) {
	free := con.variable.FreeVals()
	out := make([]float64, len(con.rows))
	for k, i := range con.rows {
		out[k] = free[i] - con.values[i]
	}
	return out, nil
}

// Partials implements the Constraint interface; the block is the identity
// restricted to the constrained rows.
func (con *VariableValueConstraint) Partials(ixMap FreeVarIndexMap) (map[*Variable]*mat64.Dense, error) {
	if con.Size() == 0 {
		return map[*Variable]*mat64.Dense{}, nil
	}
	p := mat64.NewDense(con.Size(), con.variable.NumFree(), nil)
	for k, i := range con.rows {
		p.Set(k, i, 1)
	}
	return map[*Variable]*mat64.Dense{con.variable: p}, nil
}

// StateContinuityConstraint enforces continuity between a segment's
// propagated final state and its terminus state on a set of coordinate
// indices. Coordinates fixed in the terminus are excluded from the residual,
// since a fixed value cannot be driven anywhere; a coordinate fixed in the
// terminus while free in the origin would make the pair unsolvable and is
// rejected at construction.
type StateContinuityConstraint struct {
	segment *Segment
	indices []int // coordinates with a free terminus value, in ascending order
}

// NewStateContinuityConstraint returns a continuity constraint on the given
// coordinate indices, or on every state coordinate when indices is nil. The
// segment must have a terminus.
func NewStateContinuityConstraint(seg *Segment, indices []int) (*StateContinuityConstraint, error) {
	if seg.Terminus() == nil {
		return nil, configErrorf("state continuity requires a segment with a terminus")
	}
	n := seg.Origin().Model().StateSize(State)
	if indices == nil {
		indices = make([]int, n)
		for i := range indices {
			indices[i] = i
		}
	}
	termMask := seg.Terminus().State().Mask()
	origMask := seg.Origin().State().Mask()
	con := &StateContinuityConstraint{segment: seg}
	for _, ix := range indices {
		if ix < 0 || ix >= n {
			return nil, lookupErrorf("coordinate index %d is outside the %d-element state", ix, n)
		}
		if termMask[ix] {
			if !origMask[ix] {
				return nil, configErrorf("coordinate %d is fixed in the terminus but free in the origin", ix)
			}
			continue // both fixed, nothing to enforce
		}
		con.indices = append(con.indices, ix)
	}
	return con, nil
}

// Size implements the Constraint interface.
func (con *StateContinuityConstraint) Size() int { return len(con.indices) }

// Vars implements the Constraint interface.
func (con *StateContinuityConstraint) Vars() []*Variable {
	return []*Variable{con.segment.Terminus().State(), con.segment.Origin().State(),
		con.segment.Origin().Epoch(), con.segment.TOF()}
}

// Evaluate implements the Constraint interface; the residual is the
// propagated final state minus the terminus state on the constrained
// coordinates.
func (con *StateContinuityConstraint) Evaluate() ([]float64, error) {
	final, err := con.segment.FinalState()
	if err != nil {
		return nil, err
	}
	term := con.segment.Terminus().State().AllVals()
	out := make([]float64, len(con.indices))
	for k, ix := range con.indices {
		out[k] = final[ix] - term[ix]
	}
	return out, nil
}

// Partials implements the Constraint interface. The terminus contributes a
// negated identity, the origin state the relevant STM columns, the time of
// flight the state derivatives, and the origin epoch the epoch sensitivity
// when the model is epoch-dependent. Unregistered variables are omitted, so
// the constraint degrades to a one-sided form when only one end is free to
// move.
func (con *StateContinuityConstraint) Partials(ixMap FreeVarIndexMap) (map[*Variable]*mat64.Dense, error) {
	seg := con.segment
	partials := make(map[*Variable]*mat64.Dense)
	registered := func(v *Variable) bool {
		_, ok := ixMap[v]
		return ok && v.NumFree() > 0
	}

	if termState := seg.Terminus().State(); registered(termState) {
		// every constrained row is free in the terminus by construction
		cols := termState.UnmaskedIndices(con.indices)
		dTerm := mat64.NewDense(con.Size(), termState.NumFree(), nil)
		for k, c := range cols {
			dTerm.Set(k, c, -1)
		}
		partials[termState] = dTerm
	}

	if origState := seg.Origin().State(); registered(origState) {
		stm, err := seg.PartialsFinalStateWrtInitialState()
		if err != nil {
			return nil, err
		}
		raw := origState.freeRawIndices()
		dOrig := mat64.NewDense(con.Size(), origState.NumFree(), nil)
		for k, ix := range con.indices {
			for c, r := range raw {
				dOrig.Set(k, c, stm.At(ix, r))
			}
		}
		partials[origState] = dOrig
	}

	if tof := seg.TOF(); registered(tof) {
		qdot, err := seg.PartialsFinalStateWrtTime()
		if err != nil {
			return nil, err
		}
		dTOF := mat64.NewDense(con.Size(), 1, nil)
		for k, ix := range con.indices {
			dTOF.Set(k, 0, qdot[ix])
		}
		partials[tof] = dTOF
	}

	if epoch := seg.Origin().Epoch(); registered(epoch) && !seg.Origin().Model().EpochIndependent() {
		dEpoch, err := seg.PartialsFinalStateWrtEpoch()
		if err != nil {
			return nil, err
		}
		dT0 := mat64.NewDense(con.Size(), 1, nil)
		for k, ix := range con.indices {
			dT0.Set(k, 0, dEpoch.At(ix, 0))
		}
		partials[epoch] = dT0
	}
	return partials, nil
}
