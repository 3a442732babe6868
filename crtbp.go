package pika

import "math"

// CRTBP is the Circular Restricted Three Body Problem dynamics model. States
// are nondimensional position and velocity in the rotating frame; the mass
// ratio μ = m2/(m1+m2) is the only model property. The two primaries are
// stored in order of decreasing mass.
type CRTBP struct {
	modelBase
	μ float64
}

// NewCRTBP returns a CRTBP model for the two primary bodies, in either order.
func NewCRTBP(body1, body2 Body) *CRTBP {
	primary, secondary := body1, body2
	if body2.GM > body1.GM {
		primary, secondary = body2, body1
	}
	totalGM := primary.GM + secondary.GM
	m := &CRTBP{modelBase: newModelBase(primary, secondary), μ: secondary.GM / totalGM}
	m.properties["mu"] = m.μ
	m.charL = secondary.SMA
	m.charM = totalGM / GravParam
	m.charT = math.Sqrt(math.Pow(m.charL, 3) / totalGM)
	return m
}

// MassRatio returns μ.
func (m *CRTBP) MassRatio() float64 { return m.μ }

// EpochIndependent implements the DynamicsModel interface; the rotating-frame
// CRTBP has no epoch dependency.
func (m *CRTBP) EpochIndependent() bool { return true }

// StateSize implements the DynamicsModel interface. The CRTBP carries no
// epoch or parameter partials.
func (m *CRTBP) StateSize(groups ...VarGroup) int {
	size := 0
	for _, g := range sortGroups(groups) {
		switch g {
		case State:
			size += 6
		case STM:
			size += 36
		}
	}
	return size
}

// StateNames returns the rotating-frame coordinate names.
func (m *CRTBP) StateNames() []string {
	return []string{"x", "y", "z", "dx", "dy", "dz"}
}

// BodyState implements the DynamicsModel interface. The primaries are fixed
// on the rotating-frame x-axis.
func (m *CRTBP) BodyState(ix int, t float64, params []float64) ([]float64, error) {
	switch ix {
	case 0:
		return []float64{-m.μ, 0, 0, 0, 0, 0}, nil
	case 1:
		return []float64{1 - m.μ, 0, 0, 0, 0, 0}, nil
	}
	return nil, lookupErrorf("body index %d must be zero or one", ix)
}

// DiffEqs implements the DynamicsModel interface.
func (m *CRTBP) DiffEqs(t float64, y []float64, groups []VarGroup, params []float64) []float64 {
	groups = sortGroups(groups)
	if len(y) != m.StateSize(groups...) {
		panic(dimErrorf("y has %d elements but groups %v span %d", len(y), groups, m.StateSize(groups...)))
	}
	ydot := make([]float64, len(y))

	ydot[0], ydot[1], ydot[2] = y[3], y[4], y[5]
	accel := crtbpAccel(m.μ, y)
	ydot[3], ydot[4], ydot[5] = accel[0], accel[1], accel[2]

	if containsGroup(groups, STM) {
		// PhiDot = A*Phi with y[6:42] holding Phi in row-major order.
		U := crtbpPseudoPotentialHessian(m.μ, y)
		// The first three rows of PhiDot are the last three rows of Phi.
		for r := 0; r < 3; r++ {
			for c := 0; c < 6; c++ {
				ydot[6+6*r+c] = y[6+6*(r+3)+c]
			}
		}
		for c := 0; c < 6; c++ {
			ydot[6+6*3+c] = U[0]*y[6+6*0+c] + U[3]*y[6+6*1+c] + U[4]*y[6+6*2+c] + 2*y[6+6*4+c]
			ydot[6+6*4+c] = U[3]*y[6+6*0+c] + U[1]*y[6+6*1+c] + U[5]*y[6+6*2+c] - 2*y[6+6*3+c]
			ydot[6+6*5+c] = U[4]*y[6+6*0+c] + U[5]*y[6+6*1+c] + U[2]*y[6+6*2+c]
		}
	}
	// There are no epoch or parameter partials.
	return ydot
}

// crtbpAccel evaluates the rotating-frame velocity derivatives, including the
// Coriolis and centripetal terms, from the first six elements of q.
func crtbpAccel(μ float64, q []float64) [3]float64 {
	// Multiplication is faster than exponents.
	r13 := math.Sqrt((q[0]+μ)*(q[0]+μ) + q[1]*q[1] + q[2]*q[2])
	r23 := math.Sqrt((q[0]-1+μ)*(q[0]-1+μ) + q[1]*q[1] + q[2]*q[2])
	omm := 1 - μ
	r13_3 := r13 * r13 * r13
	r23_3 := r23 * r23 * r23
	var accel [3]float64
	accel[0] = 2*q[4] + q[0] - omm*(q[0]+μ)/r13_3 - μ*(q[0]-omm)/r23_3
	accel[1] = q[1] - 2*q[3] - omm*q[1]/r13_3 - μ*q[1]/r23_3
	accel[2] = -omm*q[2]/r13_3 - μ*q[2]/r23_3
	return accel
}

// crtbpPseudoPotentialHessian evaluates the second partials of the CRTBP
// pseudopotential, U = [Uxx, Uyy, Uzz, Uxy, Uxz, Uyz].
func crtbpPseudoPotentialHessian(μ float64, q []float64) [6]float64 {
	r13 := math.Sqrt((q[0]+μ)*(q[0]+μ) + q[1]*q[1] + q[2]*q[2])
	r23 := math.Sqrt((q[0]-1+μ)*(q[0]-1+μ) + q[1]*q[1] + q[2]*q[2])
	omm := 1 - μ
	r13_3 := r13 * r13 * r13
	r23_3 := r23 * r23 * r23
	r13_5 := r13_3 * r13 * r13
	r23_5 := r23_3 * r23 * r23

	var U [6]float64
	U[0] = 1 - omm/r13_3 - μ/r23_3 + 3*omm*(q[0]+μ)*(q[0]+μ)/r13_5 + 3*μ*(q[0]-omm)*(q[0]-omm)/r23_5
	U[1] = 1 - omm/r13_3 - μ/r23_3 + 3*omm*q[1]*q[1]/r13_5 + 3*μ*q[1]*q[1]/r23_5
	U[2] = -omm/r13_3 - μ/r23_3 + 3*omm*q[2]*q[2]/r13_5 + 3*μ*q[2]*q[2]/r23_5
	U[3] = 3*omm*(q[0]+μ)*q[1]/r13_5 + 3*μ*(q[0]-omm)*q[1]/r23_5
	U[4] = 3*omm*(q[0]+μ)*q[2]/r13_5 + 3*μ*(q[0]-omm)*q[2]/r23_5
	U[5] = 3*omm*q[1]*q[2]/r13_5 + 3*μ*q[1]*q[2]/r23_5
	return U
}
