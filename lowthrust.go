package pika

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"
)

/* Low-thrust control is applied to dynamical models whose first six state
variables are the Cartesian position and velocity. A ControlLaw computes an
acceleration vector that is added to the velocity derivatives, may define its
own state variables and their derivatives, and supplies all of the partial
derivatives needed to propagate the STM and the epoch and parameter partials
alongside the state. Empty partial blocks are represented by nil matrices. */

// ControlTerm represents one term in a control parameterization. A term owns
// zero or more extra state variables and zero or more parameters; it must be
// registered with the core state size and the index of its first parameter
// within the full parameter vector before evaluation.
type ControlTerm interface {
	// Register fixes the number of core states and the index of the first
	// parameter owned by this term within the full parameter vector. It must
	// be re-done whenever the term is attached to a model with a different
	// core size or parameter offset.
	Register(nCore, paramIx0 int)
	// EpochIndependent returns whether the term has no epoch dependency.
	EpochIndependent() bool
	// Params returns the default parameter values this term owns.
	Params() []float64
	// NumStates returns the number of extra state variables this term defines.
	NumStates() int
	// StateNames describes the extra state variables.
	StateNames() []string
	// StateICs returns initial conditions for the extra state variables.
	StateICs() []float64
	// StateDiffEqs returns the time derivatives of the extra state variables.
	StateDiffEqs(t float64, w []float64, groups []VarGroup, params []float64) []float64
	// EvalTerm evaluates the term as a column vector (1×1 for scalar terms).
	EvalTerm(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsTermWrtCoreState returns ∂(term)/∂(core state); rows are the
	// term elements, columns the core states.
	PartialsTermWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsTermWrtCtrlState returns ∂(term)/∂(control states this term defines).
	PartialsTermWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsTermWrtEpoch returns ∂(term)/∂(epoch) as a single column.
	PartialsTermWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsTermWrtParams returns ∂(term)/∂(params); columns span the full
	// parameter vector.
	PartialsTermWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCoreStateDEQsWrtCtrlState returns the partials of the core
	// state differential equations with respect to this term's control states.
	PartialsCoreStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtCoreState returns ∂(StateDiffEqs)/∂(core state).
	PartialsCtrlStateDEQsWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtCtrlState returns ∂(StateDiffEqs)/∂(control states).
	PartialsCtrlStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtEpoch returns ∂(StateDiffEqs)/∂(epoch).
	PartialsCtrlStateDEQsWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtParams returns ∂(StateDiffEqs)/∂(params).
	PartialsCtrlStateDEQsWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
}

// GenericTerm partially defines a ControlTerm with no extra states, no
// parameters, and no epoch dependency. Concrete terms embed it and override
// what they own.
type GenericTerm struct {
	coreStateSize int
	paramIx0      int
}

// Register implements the ControlTerm interface.
func (tm *GenericTerm) Register(nCore, paramIx0 int) {
	tm.coreStateSize = nCore
	tm.paramIx0 = paramIx0
}

// CoreStateSize returns the registered number of core states.
func (tm *GenericTerm) CoreStateSize() int { return tm.coreStateSize }

// ParamIx0 returns the registered index of the first owned parameter.
func (tm *GenericTerm) ParamIx0() int { return tm.paramIx0 }

// EpochIndependent implements the ControlTerm interface.
func (tm *GenericTerm) EpochIndependent() bool { return true }

// Params implements the ControlTerm interface.
func (tm *GenericTerm) Params() []float64 { return nil }

// NumStates implements the ControlTerm interface.
func (tm *GenericTerm) NumStates() int { return 0 }

// StateNames implements the ControlTerm interface.
func (tm *GenericTerm) StateNames() []string { return nil }

// StateICs implements the ControlTerm interface.
func (tm *GenericTerm) StateICs() []float64 { return nil }

// StateDiffEqs implements the ControlTerm interface.
func (tm *GenericTerm) StateDiffEqs(t float64, w []float64, groups []VarGroup, params []float64) []float64 {
	return nil
}

// PartialsCoreStateDEQsWrtCtrlState implements the ControlTerm interface.
func (tm *GenericTerm) PartialsCoreStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil
}

// PartialsCtrlStateDEQsWrtCoreState implements the ControlTerm interface.
func (tm *GenericTerm) PartialsCtrlStateDEQsWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil
}

// PartialsCtrlStateDEQsWrtCtrlState implements the ControlTerm interface.
func (tm *GenericTerm) PartialsCtrlStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil
}

// PartialsCtrlStateDEQsWrtEpoch implements the ControlTerm interface.
func (tm *GenericTerm) PartialsCtrlStateDEQsWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil
}

// PartialsCtrlStateDEQsWrtParams implements the ControlTerm interface.
func (tm *GenericTerm) PartialsCtrlStateDEQsWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil
}

/* Available control terms */

// ConstThrustTerm defines a constant thrust force, stored as a parameter.
// The value must be consistent with the model's nondimensionalization.
type ConstThrustTerm struct {
	GenericTerm
	Thrust float64
}

// NewConstThrustTerm returns a constant thrust term.
func NewConstThrustTerm(thrust float64) *ConstThrustTerm {
	return &ConstThrustTerm{Thrust: thrust}
}

// Params implements the ControlTerm interface.
func (tm *ConstThrustTerm) Params() []float64 { return []float64{tm.Thrust} }

// EvalTerm implements the ControlTerm interface.
func (tm *ConstThrustTerm) EvalTerm(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, 1, []float64{params[tm.paramIx0]})
}

// PartialsTermWrtCoreState implements the ControlTerm interface.
func (tm *ConstThrustTerm) PartialsTermWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, tm.coreStateSize, nil)
}

// PartialsTermWrtCtrlState implements the ControlTerm interface.
func (tm *ConstThrustTerm) PartialsTermWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil // no control states
}

// PartialsTermWrtEpoch implements the ControlTerm interface.
func (tm *ConstThrustTerm) PartialsTermWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, 1, nil)
}

// PartialsTermWrtParams implements the ControlTerm interface.
func (tm *ConstThrustTerm) PartialsTermWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	partials := mat64.NewDense(1, len(params), nil)
	partials.Set(0, tm.paramIx0, 1)
	return partials
}

// ConstMassTerm defines a constant mass, stored as a parameter. The value
// must be consistent with the model's nondimensionalization.
type ConstMassTerm struct {
	GenericTerm
	Mass float64
}

// NewConstMassTerm returns a constant mass term.
func NewConstMassTerm(mass float64) *ConstMassTerm {
	return &ConstMassTerm{Mass: mass}
}

// Params implements the ControlTerm interface.
func (tm *ConstMassTerm) Params() []float64 { return []float64{tm.Mass} }

// EvalTerm implements the ControlTerm interface.
func (tm *ConstMassTerm) EvalTerm(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, 1, []float64{params[tm.paramIx0]})
}

// PartialsTermWrtCoreState implements the ControlTerm interface.
func (tm *ConstMassTerm) PartialsTermWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, tm.coreStateSize, nil)
}

// PartialsTermWrtCtrlState implements the ControlTerm interface.
func (tm *ConstMassTerm) PartialsTermWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil // no control states
}

// PartialsTermWrtEpoch implements the ControlTerm interface.
func (tm *ConstMassTerm) PartialsTermWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(1, 1, nil)
}

// PartialsTermWrtParams implements the ControlTerm interface.
func (tm *ConstMassTerm) PartialsTermWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	partials := mat64.NewDense(1, len(params), nil)
	partials.Set(0, tm.paramIx0, 1)
	return partials
}

// ConstOrientTerm defines a constant thrust orientation in the working frame,
// parameterized by the spherical angles alpha (about the z-axis from the
// x-axis, radians) and beta (elevation out of the xy-plane, radians), both
// stored as parameters.
type ConstOrientTerm struct {
	GenericTerm
	Alpha float64
	Beta  float64
}

// NewConstOrientTerm returns a constant orientation term.
func NewConstOrientTerm(alpha, beta float64) *ConstOrientTerm {
	return &ConstOrientTerm{Alpha: alpha, Beta: beta}
}

// Params implements the ControlTerm interface.
func (tm *ConstOrientTerm) Params() []float64 { return []float64{tm.Alpha, tm.Beta} }

func (tm *ConstOrientTerm) angles(params []float64) (alpha, beta float64) {
	return params[tm.paramIx0], params[tm.paramIx0+1]
}

// EvalTerm implements the ControlTerm interface; it returns the 3×1 unit
// vector that orients the thrust.
func (tm *ConstOrientTerm) EvalTerm(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	alpha, beta := tm.angles(params)
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	return mat64.NewDense(3, 1, []float64{cb * ca, cb * sa, sb})
}

// PartialsTermWrtCoreState implements the ControlTerm interface.
func (tm *ConstOrientTerm) PartialsTermWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(3, tm.coreStateSize, nil)
}

// PartialsTermWrtCtrlState implements the ControlTerm interface.
func (tm *ConstOrientTerm) PartialsTermWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return nil // no control states
}

// PartialsTermWrtEpoch implements the ControlTerm interface.
func (tm *ConstOrientTerm) PartialsTermWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return mat64.NewDense(3, 1, nil)
}

// PartialsTermWrtParams implements the ControlTerm interface.
func (tm *ConstOrientTerm) PartialsTermWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	partials := mat64.NewDense(3, len(params), nil)
	alpha, beta := tm.angles(params)
	sa, ca := math.Sincos(alpha)
	sb, cb := math.Sincos(beta)
	partials.Set(0, tm.paramIx0, -cb*sa)
	partials.Set(1, tm.paramIx0, cb*ca)
	partials.Set(0, tm.paramIx0+1, -sb*ca)
	partials.Set(1, tm.paramIx0+1, -sb*sa)
	partials.Set(2, tm.paramIx0+1, cb)
	return partials
}

/* Control laws */

// ControlLaw defines a low-thrust control law: an acceleration vector added
// to the velocity derivatives of a dynamics model, optional control state
// variables with their own differential equations, and the partial
// derivatives that chain both into the model's variational equations.
type ControlLaw interface {
	// Register fixes the core state size and the index of the law's first
	// parameter within the full parameter vector.
	Register(nCore, paramIx0 int)
	// EpochIndependent returns whether the parameterization is epoch-independent.
	EpochIndependent() bool
	// NumStates returns the number of state variables the law defines.
	NumStates() int
	// StateNames describes the law's state variables.
	StateNames() []string
	// Params returns the law's default parameter values.
	Params() []float64
	// StateICs returns initial conditions for the law's state variables.
	StateICs() []float64
	// StateDiffEqs returns the time derivatives of the law's state variables.
	StateDiffEqs(t float64, w []float64, groups []VarGroup, params []float64) []float64
	// AccelVec computes the 3×1 Cartesian acceleration vector.
	AccelVec(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsAccelWrtCoreState returns ∂(accel)/∂(core state).
	PartialsAccelWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsAccelWrtCtrlState returns ∂(accel)/∂(control states).
	PartialsAccelWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsAccelWrtEpoch returns ∂(accel)/∂(epoch) as a single column.
	PartialsAccelWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsAccelWrtParams returns ∂(accel)/∂(params).
	PartialsAccelWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtCoreState returns ∂(StateDiffEqs)/∂(core state).
	PartialsCtrlStateDEQsWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtCtrlState returns ∂(StateDiffEqs)/∂(control states).
	PartialsCtrlStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtEpoch returns ∂(StateDiffEqs)/∂(epoch).
	PartialsCtrlStateDEQsWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
	// PartialsCtrlStateDEQsWrtParams returns ∂(StateDiffEqs)/∂(params).
	PartialsCtrlStateDEQsWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense
}

// SeparableControlLaw composes one or more terms whose states and parameters
// are independent of each other, so the control state differential equations
// and their partials are the ordered concatenation of the per-term values
// with no additional calculus. It does not define an acceleration; concrete
// laws embed it and add the acceleration and its partials.
type SeparableControlLaw struct {
	terms []ControlTerm
}

// NewSeparableControlLaw composes the provided terms, in order.
func NewSeparableControlLaw(terms ...ControlTerm) *SeparableControlLaw {
	return &SeparableControlLaw{terms: terms}
}

// Terms returns the composed terms in order.
func (law *SeparableControlLaw) Terms() []ControlTerm { return law.terms }

// Register registers every term, advancing the running parameter offset by
// each term's own parameter count, in term order.
func (law *SeparableControlLaw) Register(nCore, paramIx0 int) {
	for _, tm := range law.terms {
		tm.Register(nCore, paramIx0)
		paramIx0 += len(tm.Params())
	}
}

// EpochIndependent implements the ControlLaw interface.
func (law *SeparableControlLaw) EpochIndependent() bool {
	for _, tm := range law.terms {
		if !tm.EpochIndependent() {
			return false
		}
	}
	return true
}

// NumStates implements the ControlLaw interface.
func (law *SeparableControlLaw) NumStates() int {
	n := 0
	for _, tm := range law.terms {
		n += tm.NumStates()
	}
	return n
}

// StateNames implements the ControlLaw interface.
func (law *SeparableControlLaw) StateNames() []string {
	names := []string{}
	for _, tm := range law.terms {
		names = append(names, tm.StateNames()...)
	}
	return names
}

// Params implements the ControlLaw interface.
func (law *SeparableControlLaw) Params() []float64 {
	params := []float64{}
	for _, tm := range law.terms {
		params = append(params, tm.Params()...)
	}
	return params
}

// StateICs implements the ControlLaw interface.
func (law *SeparableControlLaw) StateICs() []float64 {
	ics := []float64{}
	for _, tm := range law.terms {
		ics = append(ics, tm.StateICs()...)
	}
	return ics
}

// StateDiffEqs implements the ControlLaw interface.
func (law *SeparableControlLaw) StateDiffEqs(t float64, w []float64, groups []VarGroup, params []float64) []float64 {
	eqs := []float64{}
	for _, tm := range law.terms {
		eqs = append(eqs, tm.StateDiffEqs(t, w, groups, params)...)
	}
	return eqs
}

// The terms are independent, so the partials of the control state diff eqs
// concatenate without cross terms.

// PartialsCtrlStateDEQsWrtCoreState implements the ControlLaw interface.
func (law *SeparableControlLaw) PartialsCtrlStateDEQsWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	blocks := make([]*mat64.Dense, len(law.terms))
	for i, tm := range law.terms {
		blocks[i] = tm.PartialsCtrlStateDEQsWrtCoreState(t, w, groups, params)
	}
	return stackDense(blocks...)
}

// PartialsCtrlStateDEQsWrtCtrlState implements the ControlLaw interface.
func (law *SeparableControlLaw) PartialsCtrlStateDEQsWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	blocks := make([]*mat64.Dense, len(law.terms))
	for i, tm := range law.terms {
		blocks[i] = tm.PartialsCtrlStateDEQsWrtCtrlState(t, w, groups, params)
	}
	return stackDense(blocks...)
}

// PartialsCtrlStateDEQsWrtEpoch implements the ControlLaw interface.
func (law *SeparableControlLaw) PartialsCtrlStateDEQsWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	blocks := make([]*mat64.Dense, len(law.terms))
	for i, tm := range law.terms {
		blocks[i] = tm.PartialsCtrlStateDEQsWrtEpoch(t, w, groups, params)
	}
	return stackDense(blocks...)
}

// PartialsCtrlStateDEQsWrtParams implements the ControlLaw interface.
func (law *SeparableControlLaw) PartialsCtrlStateDEQsWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	blocks := make([]*mat64.Dense, len(law.terms))
	for i, tm := range law.terms {
		blocks[i] = tm.PartialsCtrlStateDEQsWrtParams(t, w, groups, params)
	}
	return stackDense(blocks...)
}

// ForceMassOrientLaw is a separable control law with exactly three terms:
// thrust force, mass, and thrust orientation. The acceleration is
// a = (f/m)·û where f is the force, m the mass, and û the orientation unit
// vector.
type ForceMassOrientLaw struct {
	SeparableControlLaw
}

// NewForceMassOrientLaw composes the force, mass, and orientation terms.
func NewForceMassOrientLaw(force, mass, orient ControlTerm) *ForceMassOrientLaw {
	return &ForceMassOrientLaw{SeparableControlLaw{terms: []ControlTerm{force, mass, orient}}}
}

// AccelVec implements the ControlLaw interface.
func (law *ForceMassOrientLaw) AccelVec(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	force := law.terms[0].EvalTerm(t, w, groups, params).At(0, 0)
	mass := law.terms[1].EvalTerm(t, w, groups, params).At(0, 0)
	vec := law.terms[2].EvalTerm(t, w, groups, params)
	return scaledDense(force/mass, vec)
}

// accelPartials combines the per-term partials with respect to a common
// driving quantity X via the product rule:
//
//	∂a/∂X = (û/m)·∂f/∂X − (f·û/m²)·∂m/∂X + (f/m)·∂û/∂X
//
// A term with an empty partial block contributes nothing.
func (law *ForceMassOrientLaw) accelPartials(t float64, w []float64, groups []VarGroup, params []float64,
	partialFcn func(ControlTerm) *mat64.Dense) *mat64.Dense {

	f := law.terms[0].EvalTerm(t, w, groups, params).At(0, 0)
	m := law.terms[1].EvalTerm(t, w, groups, params).At(0, 0)
	vec := law.terms[2].EvalTerm(t, w, groups, params)

	dfdX := partialFcn(law.terms[0])
	dmdX := partialFcn(law.terms[1])
	dodX := partialFcn(law.terms[2])

	var partials *mat64.Dense
	accumulate := func(block *mat64.Dense) {
		if block == nil {
			return
		}
		if partials == nil {
			partials = block
			return
		}
		partials.Add(partials, block)
	}

	if dfdX != nil {
		_, k := dfdX.Dims()
		term := mat64.NewDense(3, k, nil)
		term.Mul(vec, dfdX)
		term.Scale(1/m, term)
		accumulate(term)
	}
	if dmdX != nil {
		_, k := dmdX.Dims()
		term := mat64.NewDense(3, k, nil)
		term.Mul(vec, dmdX)
		term.Scale(-f/(m*m), term)
		accumulate(term)
	}
	if dodX != nil {
		accumulate(scaledDense(f/m, dodX))
	}
	return partials
}

// PartialsAccelWrtCoreState implements the ControlLaw interface.
func (law *ForceMassOrientLaw) PartialsAccelWrtCoreState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return law.accelPartials(t, w, groups, params, func(tm ControlTerm) *mat64.Dense {
		return tm.PartialsTermWrtCoreState(t, w, groups, params)
	})
}

// PartialsAccelWrtCtrlState implements the ControlLaw interface.
func (law *ForceMassOrientLaw) PartialsAccelWrtCtrlState(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return law.accelPartials(t, w, groups, params, func(tm ControlTerm) *mat64.Dense {
		return tm.PartialsTermWrtCtrlState(t, w, groups, params)
	})
}

// PartialsAccelWrtEpoch implements the ControlLaw interface.
func (law *ForceMassOrientLaw) PartialsAccelWrtEpoch(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return law.accelPartials(t, w, groups, params, func(tm ControlTerm) *mat64.Dense {
		return tm.PartialsTermWrtEpoch(t, w, groups, params)
	})
}

// PartialsAccelWrtParams implements the ControlLaw interface.
func (law *ForceMassOrientLaw) PartialsAccelWrtParams(t float64, w []float64, groups []VarGroup, params []float64) *mat64.Dense {
	return law.accelPartials(t, w, groups, params, func(tm ControlTerm) *mat64.Dense {
		return tm.PartialsTermWrtParams(t, w, groups, params)
	})
}

// String implements the Stringer interface.
func (law *ForceMassOrientLaw) String() string {
	return fmt.Sprintf("force-mass-orient law (%d params)", len(law.Params()))
}
