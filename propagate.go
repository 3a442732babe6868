package pika

import (
	"math"
	"os"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

// paramsHolder is implemented by models whose propagation is driven by
// parameters with model-defined defaults, e.g. a control law's.
type paramsHolder interface {
	Params() []float64
}

// PropSolution stores the time and variable-vector history of a propagation,
// along with everything needed to interpret it later.
type PropSolution struct {
	Model  DynamicsModel
	Groups []VarGroup // sorted, the groups each Y row holds
	Params []float64
	T      []float64
	Y      [][]float64
}

// FinalTime returns the time of the last step.
func (sol *PropSolution) FinalTime() float64 { return sol.T[len(sol.T)-1] }

// FinalY returns a copy of the variable vector at the last step.
func (sol *PropSolution) FinalY() []float64 {
	cp := make([]float64, len(sol.Y[len(sol.Y)-1]))
	copy(cp, sol.Y[len(sol.Y)-1])
	return cp
}

// Propagator integrates a dynamics model with a fixed-step RK4 scheme. The
// step size is in nondimensional time; the final internal step is shrunk so
// the arc lands exactly on the requested time of flight.
type Propagator struct {
	StepSize float64
	logger   kitlog.Logger
}

// NewPropagator returns a propagator with the given step size.
func NewPropagator(stepSize float64) (*Propagator, error) {
	if stepSize <= 0 {
		return nil, configErrorf("propagator step size must be positive, not %f", stepSize)
	}
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	logger = kitlog.With(logger, "pika", "Propagator")
	return &Propagator{StepSize: stepSize, logger: logger}, nil
}

// Propagate integrates y0 from t0 for a (possibly negative) time of flight.
// The y0 vector must span either the full requested group set or just the
// STATE variables, in which case default initial conditions are appended for
// the remaining groups. A nil params uses the model defaults when the model
// defines any.
func (p *Propagator) Propagate(m DynamicsModel, y0 []float64, t0, tof float64, groups []VarGroup, params []float64) (*PropSolution, error) {
	groups = sortGroups(groups)
	if !ValidForPropagation(m, groups) {
		return nil, configErrorf("group set %v cannot be propagated without STATE", groups)
	}
	if params == nil {
		if holder, ok := m.(paramsHolder); ok {
			params = holder.Params()
		}
	}
	full := m.StateSize(groups...)
	switch len(y0) {
	case full:
		// ready to go
	case m.StateSize(State):
		rest := make([]VarGroup, 0, len(groups))
		for _, g := range groups {
			if g != State {
				rest = append(rest, g)
			}
		}
		y0 = AppendICs(m, y0, rest...)
	default:
		return nil, dimErrorf("y0 has %d elements; need %d for %v or %d for STATE alone", len(y0), full, groups, m.StateSize(State))
	}

	sol := &PropSolution{Model: m, Groups: groups, Params: params}
	sol.T = append(sol.T, t0)
	ic := make([]float64, len(y0))
	copy(ic, y0)
	sol.Y = append(sol.Y, ic)
	if tof == 0 {
		return sol, nil
	}

	span := math.Abs(tof)
	nSteps := uint64(math.Ceil(span / p.StepSize))
	arc := &propArc{
		model:  m,
		groups: groups,
		params: params,
		sol:    sol,
		t0:     t0,
		sign:   math.Copysign(1, tof),
		tof:    tof,
		step:   span / float64(nSteps),
		nSteps: nSteps,
		state:  ic,
	}
	p.logger.Log("state", "propagating", "t0", t0, "tof", tof, "steps", nSteps)
	if _, _, err := ode.NewRK4(0, arc.step, arc).Solve(); err != nil {
		return nil, err
	}
	return sol, nil
}

// propArc folds a possibly backward propagation into the positive internal
// time τ of the RK4 scheme via y' = sign·f(t0 + sign·τ, y).
type propArc struct {
	model  DynamicsModel
	groups []VarGroup
	params []float64
	sol    *PropSolution
	t0     float64
	sign   float64
	tof    float64
	step   float64
	nSteps uint64
	state  []float64
}

// GetState implements the ode.Integrable interface.
func (a *propArc) GetState() []float64 {
	return a.state
}

// SetState implements the ode.Integrable interface.
func (a *propArc) SetState(i uint64, s []float64) {
	a.state = s
	t := a.t0 + a.sign*float64(i+1)*a.step
	if i+1 == a.nSteps {
		// land exactly on the requested endpoint
		t = a.t0 + a.tof
	}
	cp := make([]float64, len(s))
	copy(cp, s)
	a.sol.T = append(a.sol.T, t)
	a.sol.Y = append(a.sol.Y, cp)
}

// Stop implements the ode.Integrable interface.
func (a *propArc) Stop(i uint64) bool {
	return i >= a.nSteps
}

// Func implements the ode.Integrable interface.
func (a *propArc) Func(τ float64, s []float64) []float64 {
	ydot := a.model.DiffEqs(a.t0+a.sign*τ, s, a.groups, a.params)
	if a.sign < 0 {
		for i := range ydot {
			ydot[i] = -ydot[i]
		}
	}
	return ydot
}
