package pika

import "github.com/gonum/matrix/mat64"

// Segment is a propagated arc from an origin control point for a time of
// flight, optionally linked to a terminus control point that some constraint
// compares against the propagated end. The terminus state is never
// propagated; constraints decide what to do with it.
//
// The propagation is lazy and cached: the first accessor that needs the arc
// runs it, and the cache is reused as long as it covers the variable groups
// an accessor asks for. Mutating the origin or time-of-flight variables does
// NOT invalidate the cache; callers drive invalidation through ResetProp,
// as the shooting loop does after every Newton update.
type Segment struct {
	origin     *ControlPoint
	terminus   *ControlPoint
	tof        *Variable
	prop       *Propagator
	propParams []float64
	propSol    *PropSolution
}

// NewSegment returns a segment from origin for the time of flight held in
// tof, which must be a single-value variable. The terminus may be nil; when
// given, its model must equal the origin's. A nil prop gets a default
// propagator.
func NewSegment(origin *ControlPoint, tof *Variable, terminus *ControlPoint, prop *Propagator, propParams []float64) (*Segment, error) {
	if origin == nil {
		return nil, configErrorf("segment requires an origin control point")
	}
	if tof.Size() != 1 {
		return nil, configErrorf("time-of-flight variable %s must hold exactly one value, not %d", tof.Name(), tof.Size())
	}
	if terminus != nil && !ModelsEqual(origin.Model(), terminus.Model()) {
		return nil, configErrorf("origin and terminus must share a dynamics model")
	}
	if prop == nil {
		var err error
		if prop, err = NewPropagator(1e-3); err != nil {
			return nil, err
		}
	}
	return &Segment{origin: origin, terminus: terminus, tof: tof, prop: prop, propParams: propParams}, nil
}

// Origin returns the origin control point.
func (seg *Segment) Origin() *ControlPoint { return seg.origin }

// Terminus returns the terminus control point, or nil.
func (seg *Segment) Terminus() *ControlPoint { return seg.terminus }

// TOF returns the time-of-flight variable.
func (seg *Segment) TOF() *Variable { return seg.tof }

// Vars returns the variables this segment owns or references: the time of
// flight, then the origin's variables, then the terminus's when one exists.
func (seg *Segment) Vars() []*Variable {
	vars := append([]*Variable{seg.tof}, seg.origin.Vars()...)
	if seg.terminus != nil {
		vars = append(vars, seg.terminus.Vars()...)
	}
	return vars
}

// ResetProp discards the cached propagation.
func (seg *Segment) ResetProp() {
	seg.propSol = nil
}

// propagate returns a propagation covering at least the requested groups,
// reusing the cache when it suffices.
func (seg *Segment) propagate(groups ...VarGroup) (*PropSolution, error) {
	groups = sortGroups(groups)
	if seg.propSol != nil && coversGroups(seg.propSol.Groups, groups) {
		return seg.propSol, nil
	}
	sol, err := seg.prop.Propagate(seg.origin.Model(), seg.origin.State().AllVals(),
		seg.origin.Epoch().AllVals()[0], seg.tof.AllVals()[0], groups, seg.propParams)
	if err != nil {
		return nil, err
	}
	seg.propSol = sol
	return sol, nil
}

// FinalState returns the propagated STATE variables at the end of the arc.
func (seg *Segment) FinalState() ([]float64, error) {
	sol, err := seg.propagate(State)
	if err != nil {
		return nil, err
	}
	return ExtractVars(sol.Model, sol.FinalY(), State, sol.Groups)
}

// PartialsFinalStateWrtInitialState returns the STM at the end of the arc.
func (seg *Segment) PartialsFinalStateWrtInitialState() (*mat64.Dense, error) {
	sol, err := seg.propagate(State, STM)
	if err != nil {
		return nil, err
	}
	return ExtractMatrix(sol.Model, sol.FinalY(), STM, sol.Groups)
}

// PartialsFinalStateWrtTime returns the time derivative of the propagated
// state at the end of the arc, i.e. the state differential equations there.
func (seg *Segment) PartialsFinalStateWrtTime() ([]float64, error) {
	sol, err := seg.propagate(State)
	if err != nil {
		return nil, err
	}
	q, err := ExtractVars(sol.Model, sol.FinalY(), State, sol.Groups)
	if err != nil {
		return nil, err
	}
	return sol.Model.DiffEqs(sol.FinalTime(), q, []VarGroup{State}, sol.Params), nil
}

// PartialsFinalStateWrtEpoch returns the sensitivity of the propagated state
// to the origin epoch as a column, or nil for epoch-independent models.
func (seg *Segment) PartialsFinalStateWrtEpoch() (*mat64.Dense, error) {
	if seg.origin.Model().EpochIndependent() {
		return nil, nil
	}
	sol, err := seg.propagate(State, EpochPartials)
	if err != nil {
		return nil, err
	}
	flat, err := ExtractVars(sol.Model, sol.FinalY(), EpochPartials, sol.Groups)
	if err != nil {
		return nil, err
	}
	return mat64.NewDense(len(flat), 1, flat), nil
}

// PartialsFinalStateWrtParams returns the sensitivity of the propagated state
// to the propagation parameters, or nil when the model defines none.
func (seg *Segment) PartialsFinalStateWrtParams() (*mat64.Dense, error) {
	if seg.origin.Model().StateSize(ParamPartials) == 0 {
		return nil, nil
	}
	sol, err := seg.propagate(State, ParamPartials)
	if err != nil {
		return nil, err
	}
	return ExtractMatrix(sol.Model, sol.FinalY(), ParamPartials, sol.Groups)
}
