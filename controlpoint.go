package pika

// ControlPoint pairs an epoch and a state within a dynamics model. The epoch
// and state are Variables, so any subset of their values can be freed for a
// corrections process. The model is shared by reference and never copied.
type ControlPoint struct {
	model DynamicsModel
	epoch *Variable
	state *Variable
}

// NewControlPoint returns a control point over existing variables. The epoch
// variable must hold exactly one value and the state variable must match the
// model's STATE size.
func NewControlPoint(model DynamicsModel, epoch, state *Variable) (*ControlPoint, error) {
	if model == nil {
		return nil, configErrorf("control point requires a dynamics model")
	}
	if epoch.Size() != 1 {
		return nil, configErrorf("epoch variable %s must hold exactly one value, not %d", epoch.Name(), epoch.Size())
	}
	if n := model.StateSize(State); state.Size() != n {
		return nil, configErrorf("state variable %s has %d values but the model state has %d", state.Name(), state.Size(), n)
	}
	return &ControlPoint{model: model, epoch: epoch, state: state}, nil
}

// NewControlPointFromState returns a control point with fully free epoch and
// state variables built from raw values.
func NewControlPointFromState(model DynamicsModel, epoch float64, state []float64) (*ControlPoint, error) {
	return NewControlPoint(model,
		NewFreeVariable([]float64{epoch}, "Epoch"),
		NewFreeVariable(state, "State"))
}

// ControlPointFromProp returns a control point at step ix of a propagation
// solution, with fully free variables. A negative ix counts back from the
// final step, so -1 is the end of the arc.
func ControlPointFromProp(sol *PropSolution, ix int) (*ControlPoint, error) {
	if ix < 0 {
		ix += len(sol.T)
	}
	if ix < 0 || ix >= len(sol.T) {
		return nil, lookupErrorf("step %d is outside the %d-step propagation", ix, len(sol.T))
	}
	state, err := ExtractVars(sol.Model, sol.Y[ix], State, sol.Groups)
	if err != nil {
		return nil, err
	}
	return NewControlPointFromState(sol.Model, sol.T[ix], state)
}

// Model returns the shared dynamics model.
func (cp *ControlPoint) Model() DynamicsModel { return cp.model }

// Epoch returns the epoch variable.
func (cp *ControlPoint) Epoch() *Variable { return cp.epoch }

// State returns the state variable.
func (cp *ControlPoint) State() *Variable { return cp.state }

// Vars returns the variables this point owns, epoch first.
func (cp *ControlPoint) Vars() []*Variable { return []*Variable{cp.epoch, cp.state} }
