// Package pika designs spacecraft trajectories in multi-body gravitational
// models by solving boundary-value problems with a multiple-shooting
// differential corrector.
package pika

import (
	"fmt"
	"reflect"

	"github.com/ChristopherRabotin/gokalman"
	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// DynamicsModel contains the mathematics that define a dynamical model.
// Models are immutable after construction; Segments and ControlPoints hold
// non-owning references to a shared model.
//
// DiffEqs evaluates the differential equations that govern the variable
// vector: STATE rows use the physical equations of motion, STM rows satisfy
// dΦ/dt = A(t)Φ, and epoch/parameter-partial rows follow the analogous
// sensitivity equations. The returned vector has the same length as y.
// DiffEqs panics with a DimensionError when len(y) does not match
// StateSize(groups...) since the integrator inner loop has no error channel.
type DynamicsModel interface {
	// Bodies returns copies of the primary bodies, in order of decreasing mass.
	Bodies() []Body
	// Properties returns a copy of the constant model properties, e.g. a mass ratio.
	Properties() map[string]float64
	// CharL is the characteristic length (km) used to nondimensionalize lengths.
	CharL() float64
	// CharT is the characteristic time (sec) used to nondimensionalize times.
	CharT() float64
	// CharM is the characteristic mass (kg) used to nondimensionalize masses.
	CharM() float64
	// EpochIndependent returns whether the dynamics have no epoch dependency.
	EpochIndependent() bool
	// StateSize returns the number of elements spanned by the requested groups.
	StateSize(groups ...VarGroup) int
	DiffEqs(t float64, y []float64, groups []VarGroup, params []float64) []float64
	// BodyState returns the closed-form state of primary body ix at time t;
	// an unknown index is a LookupError.
	BodyState(ix int, t float64, params []float64) ([]float64, error)
}

// stateNamer is implemented by models that provide descriptive names for
// their STATE variables.
type stateNamer interface {
	StateNames() []string
}

// modelBase carries the data every dynamics model shares.
type modelBase struct {
	bodies     []Body
	properties map[string]float64
	charL      float64 // km
	charT      float64 // sec
	charM      float64 // kg
}

func newModelBase(bodies ...Body) modelBase {
	cp := make([]Body, len(bodies))
	copy(cp, bodies)
	return modelBase{bodies: cp, properties: make(map[string]float64), charL: 1, charT: 1, charM: 1}
}

// Bodies returns copies of the primary bodies.
func (m modelBase) Bodies() []Body {
	cp := make([]Body, len(m.bodies))
	copy(cp, m.bodies)
	return cp
}

// Properties returns a copy of the model properties.
func (m modelBase) Properties() map[string]float64 {
	cp := make(map[string]float64, len(m.properties))
	for k, v := range m.properties {
		cp[k] = v
	}
	return cp
}

// CharL implements the DynamicsModel interface.
func (m modelBase) CharL() float64 { return m.charL }

// CharT implements the DynamicsModel interface.
func (m modelBase) CharT() float64 { return m.charT }

// CharM implements the DynamicsModel interface.
func (m modelBase) CharM() float64 { return m.charM }

// ModelsEqual compares two models by concrete type, bodies (in order),
// properties, and characteristic quantities.
func ModelsEqual(a, b DynamicsModel) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	aBodies, bBodies := a.Bodies(), b.Bodies()
	if len(aBodies) != len(bBodies) {
		return false
	}
	for i, body := range aBodies {
		if !body.Equals(bBodies[i]) {
			return false
		}
	}
	aProps, bProps := a.Properties(), b.Properties()
	if len(aProps) != len(bProps) {
		return false
	}
	for k, v := range aProps {
		o, ok := bProps[k]
		if !ok || !floats.EqualWithinAbs(v, o, 1e-12) {
			return false
		}
	}
	return floats.EqualWithinAbs(a.CharL(), b.CharL(), 1e-12) &&
		floats.EqualWithinAbs(a.CharT(), b.CharT(), 1e-12) &&
		floats.EqualWithinAbs(a.CharM(), b.CharM(), 1e-12)
}

// ValidForPropagation checks that the set of variable groups can be
// propagated. The STM, epoch, and parameter partial equations all require the
// state variables alongside them, so STATE must always be included.
func ValidForPropagation(m DynamicsModel, groups []VarGroup) bool {
	return containsGroup(groups, State)
}

// DefaultICs returns the default initial conditions for a variable group: a
// flattened identity matrix for the STM and zeros for the other groups.
func DefaultICs(m DynamicsModel, group VarGroup) []float64 {
	if group == STM {
		n := m.StateSize(State)
		ident := gokalman.DenseIdentity(n)
		out := make([]float64, n*n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out[i*n+j] = ident.At(i, j)
			}
		}
		return out
	}
	return make([]float64, m.StateSize(group))
}

// AppendICs extends y0 with the model's default initial conditions for each
// requested group, in ascending group order. A new vector is returned; y0 is
// never mutated.
func AppendICs(m DynamicsModel, y0 []float64, groups ...VarGroup) []float64 {
	out := make([]float64, len(y0), len(y0)+m.StateSize(groups...))
	copy(out, y0)
	for _, g := range sortGroups(groups) {
		out = append(out, DefaultICs(m, g)...)
	}
	return out
}

// ExtractVars returns a copy of the contiguous slice of y that belongs to the
// requested group, given that y holds the groupsIn groups. A DimensionError
// is returned when y is too short, and a LookupError when group is not a
// member of groupsIn.
func ExtractVars(m DynamicsModel, y []float64, group VarGroup, groupsIn []VarGroup) ([]float64, error) {
	if !containsGroup(groupsIn, group) {
		return nil, lookupErrorf("requested variable group %s is not part of input set %v", group, groupsIn)
	}
	nPre := 0
	for _, g := range groupsIn {
		if g < group {
			nPre += m.StateSize(g)
		}
	}
	sz := m.StateSize(group)
	if len(y) < nPre+sz {
		return nil, dimErrorf("need %d vector elements to extract %s but y has size %d", nPre+sz, group, len(y))
	}
	out := make([]float64, sz)
	copy(out, y[nPre:nPre+sz])
	return out, nil
}

// ExtractMatrix extracts a matrix-valued group (STM, parameter partials) from
// y, reshaped to stateSize(STATE) rows in row-major order.
func ExtractMatrix(m DynamicsModel, y []float64, group VarGroup, groupsIn []VarGroup) (*mat64.Dense, error) {
	flat, err := ExtractVars(m, y, group, groupsIn)
	if err != nil {
		return nil, err
	}
	if len(flat) == 0 {
		return nil, nil
	}
	nState := m.StateSize(State)
	nCol := len(flat) / nState
	return mat64.NewDense(nState, nCol, flat), nil
}

// VarNames returns names for the variables in a group. Models implementing
// stateNamer provide their own STATE names; the rest use basic representations.
func VarNames(m DynamicsModel, group VarGroup) []string {
	n := m.StateSize(State)
	switch group {
	case State:
		if namer, ok := m.(stateNamer); ok {
			return namer.StateNames()
		}
		names := make([]string, n)
		for i := range names {
			names[i] = fmt.Sprintf("State %d", i)
		}
		return names
	case STM:
		names := make([]string, 0, n*n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				names = append(names, fmt.Sprintf("STM(%d,%d)", r, c))
			}
		}
		return names
	case EpochPartials:
		names := make([]string, m.StateSize(EpochPartials))
		for i := range names {
			names[i] = fmt.Sprintf("Epoch Dep %d", i)
		}
		return names
	case ParamPartials:
		names := make([]string, 0, m.StateSize(ParamPartials))
		for r := 0; r < n; r++ {
			for c := 0; c < m.StateSize(ParamPartials)/n; c++ {
				names = append(names, fmt.Sprintf("Param Dep(%d,%d)", r, c))
			}
		}
		return names
	}
	panic(fmt.Errorf("unrecognized variable group %d", group))
}
