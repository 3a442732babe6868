package pika

import (
	"os"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"
)

// FreeVarIndexMap maps a registered variable to the index of its first free
// value within the concatenated free variable vector. Variables are keyed by
// pointer: two variables with identical data are distinct decision variables.
type FreeVarIndexMap map[*Variable]int

// CorrectionsProblem collects free variables, constraints, and segments for a
// differential corrections process. Variables and constraints keep their
// insertion order, which fixes the layout of the free variable vector, the
// constraint vector, and the Jacobian.
type CorrectionsProblem struct {
	freeVars    []*Variable
	constraints []Constraint
	segments    []*Segment

	// index maps are built lazily and dropped on any mutation
	freeVarIx FreeVarIndexMap
	conIx     map[Constraint]int

	logger kitlog.Logger
}

// NewCorrectionsProblem returns an empty problem.
func NewCorrectionsProblem() *CorrectionsProblem {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "pika", "CorrectionsProblem")
	return &CorrectionsProblem{logger: logger}
}

// AddVariable registers a variable. A variable with no free values
// contributes nothing and is never stored; adding one is a logged no-op.
// Registering the same variable twice is an error.
func (prob *CorrectionsProblem) AddVariable(v *Variable) error {
	if v.NumFree() == 0 {
		prob.logger.Log("warning", "variable has no free values", "name", v.Name())
		return nil
	}
	for _, reg := range prob.freeVars {
		if reg == v {
			return configErrorf("variable %s is already registered", v.Name())
		}
	}
	prob.freeVars = append(prob.freeVars, v)
	prob.freeVarIx = nil
	return nil
}

// ImportVariables registers the given variables, silently skipping those with
// no free values and those already registered. Segments and control points
// share variables, so re-imports are routine.
func (prob *CorrectionsProblem) ImportVariables(vars ...*Variable) {
	for _, v := range vars {
		if v.NumFree() == 0 {
			continue
		}
		dup := false
		for _, reg := range prob.freeVars {
			if reg == v {
				dup = true
				break
			}
		}
		if !dup {
			prob.freeVars = append(prob.freeVars, v)
		}
	}
	prob.freeVarIx = nil
}

// RemoveVariable drops a registered variable. Removing one that was never
// registered is a logged no-op.
func (prob *CorrectionsProblem) RemoveVariable(v *Variable) {
	for i, reg := range prob.freeVars {
		if reg == v {
			prob.freeVars = append(prob.freeVars[:i], prob.freeVars[i+1:]...)
			prob.freeVarIx = nil
			return
		}
	}
	prob.logger.Log("warning", "variable not registered", "name", v.Name())
}

// FreeVars returns the registered variables in insertion order.
func (prob *CorrectionsProblem) FreeVars() []*Variable {
	cp := make([]*Variable, len(prob.freeVars))
	copy(cp, prob.freeVars)
	return cp
}

// NumFreeVars returns the length of the free variable vector.
func (prob *CorrectionsProblem) NumFreeVars() int {
	n := 0
	for _, v := range prob.freeVars {
		n += v.NumFree()
	}
	return n
}

// FreeVarIndexMap returns the variable-to-offset map, building it on demand.
func (prob *CorrectionsProblem) FreeVarIndexMap() FreeVarIndexMap {
	if prob.freeVarIx == nil {
		prob.freeVarIx = make(FreeVarIndexMap, len(prob.freeVars))
		ix := 0
		for _, v := range prob.freeVars {
			prob.freeVarIx[v] = ix
			ix += v.NumFree()
		}
	}
	return prob.freeVarIx
}

// FreeVarVec returns the concatenated free values in insertion order.
func (prob *CorrectionsProblem) FreeVarVec() []float64 {
	out := make([]float64, 0, prob.NumFreeVars())
	for _, v := range prob.freeVars {
		out = append(out, v.FreeVals()...)
	}
	return out
}

// ApplyFreeVarVec distributes a free variable vector back onto the registered
// variables, leaving fixed values untouched.
func (prob *CorrectionsProblem) ApplyFreeVarVec(vec []float64) error {
	if len(vec) != prob.NumFreeVars() {
		return dimErrorf("free variable vector has %d elements, expected %d", len(vec), prob.NumFreeVars())
	}
	ix := 0
	for _, v := range prob.freeVars {
		if err := v.SetFreeVals(vec[ix : ix+v.NumFree()]); err != nil {
			return err
		}
		ix += v.NumFree()
	}
	return nil
}

// AddConstraint registers a constraint. A zero-size constraint contributes
// no rows and is never stored; adding one is a logged no-op. Registering the
// same constraint twice is an error.
func (prob *CorrectionsProblem) AddConstraint(c Constraint) error {
	if c.Size() == 0 {
		prob.logger.Log("warning", "constraint has no rows")
		return nil
	}
	for _, reg := range prob.constraints {
		if reg == c {
			return configErrorf("constraint is already registered")
		}
	}
	prob.constraints = append(prob.constraints, c)
	prob.conIx = nil
	return nil
}

// RemoveConstraint drops a registered constraint; removing one that was
// never registered is a logged no-op. The constraint itself is not mutated.
func (prob *CorrectionsProblem) RemoveConstraint(c Constraint) {
	for i, reg := range prob.constraints {
		if reg == c {
			prob.constraints = append(prob.constraints[:i], prob.constraints[i+1:]...)
			prob.conIx = nil
			return
		}
	}
	prob.logger.Log("warning", "constraint not registered")
}

// ClearVariables drops every registered variable without mutating them.
func (prob *CorrectionsProblem) ClearVariables() {
	prob.freeVars = nil
	prob.freeVarIx = nil
}

// ClearConstraints drops every registered constraint without mutating them.
func (prob *CorrectionsProblem) ClearConstraints() {
	prob.constraints = nil
	prob.conIx = nil
}

// Constraints returns the registered constraints in insertion order.
func (prob *CorrectionsProblem) Constraints() []Constraint {
	cp := make([]Constraint, len(prob.constraints))
	copy(cp, prob.constraints)
	return cp
}

// NumConstraints returns the length of the constraint vector.
func (prob *CorrectionsProblem) NumConstraints() int {
	n := 0
	for _, c := range prob.constraints {
		n += c.Size()
	}
	return n
}

// ConstraintIndexMap maps each constraint to its first row, building the map
// on demand.
func (prob *CorrectionsProblem) ConstraintIndexMap() map[Constraint]int {
	if prob.conIx == nil {
		prob.conIx = make(map[Constraint]int, len(prob.constraints))
		ix := 0
		for _, c := range prob.constraints {
			prob.conIx[c] = ix
			ix += c.Size()
		}
	}
	return prob.conIx
}

// AddSegment registers a segment and imports its variables, skipping the
// fully fixed ones.
func (prob *CorrectionsProblem) AddSegment(seg *Segment) {
	prob.segments = append(prob.segments, seg)
	prob.ImportVariables(seg.Vars()...)
}

// Segments returns the registered segments in insertion order.
func (prob *CorrectionsProblem) Segments() []*Segment {
	cp := make([]*Segment, len(prob.segments))
	copy(cp, prob.segments)
	return cp
}

// ResetProp discards every registered segment's cached propagation. The
// shooting loop calls this after updating the free variables.
func (prob *CorrectionsProblem) ResetProp() {
	for _, seg := range prob.segments {
		seg.ResetProp()
	}
}

// ConstraintVec evaluates every constraint and concatenates the residuals in
// insertion order.
func (prob *CorrectionsProblem) ConstraintVec() ([]float64, error) {
	out := make([]float64, 0, prob.NumConstraints())
	for _, c := range prob.constraints {
		vals, err := c.Evaluate()
		if err != nil {
			return nil, err
		}
		if len(vals) != c.Size() {
			return nil, dimErrorf("constraint evaluated to %d values, expected %d", len(vals), c.Size())
		}
		out = append(out, vals...)
	}
	return out, nil
}

// Jacobian assembles the partials of the constraint vector with respect to
// the free variable vector. Row and column ranges come strictly from the
// index maps; a partial block keyed on a variable the problem never
// registered is a LookupError, since the placement has nowhere to go.
func (prob *CorrectionsProblem) Jacobian() (*mat64.Dense, error) {
	nR, nC := prob.NumConstraints(), prob.NumFreeVars()
	if nR == 0 || nC == 0 {
		return nil, configErrorf("cannot assemble a %dx%d Jacobian", nR, nC)
	}
	varIx := prob.FreeVarIndexMap()
	J := mat64.NewDense(nR, nC, nil)
	row := 0
	for _, c := range prob.constraints {
		partials, err := c.Partials(varIx)
		if err != nil {
			return nil, err
		}
		for v, p := range partials {
			col0, ok := varIx[v]
			if !ok {
				return nil, lookupErrorf("constraint partials reference unregistered variable %s", v.Name())
			}
			pr, pc := p.Dims()
			if pr != c.Size() || pc != v.NumFree() {
				return nil, dimErrorf("partials for %s are %dx%d, expected %dx%d", v.Name(), pr, pc, c.Size(), v.NumFree())
			}
			for r := 0; r < pr; r++ {
				for k := 0; k < pc; k++ {
					J.Set(row+r, col0+k, p.At(r, k))
				}
			}
		}
		row += c.Size()
	}
	return J, nil
}
