package pika

import "github.com/gonum/matrix/mat64"

// LTCRTBP augments the CRTBP with a low-thrust control law. The state vector
// holds the six rotating-frame core states followed by the control states the
// law defines; the law's parameters become the model's propagation
// parameters, so the parameter partials measure the sensitivity of the
// propagated state to the control parameterization.
type LTCRTBP struct {
	modelBase
	μ   float64
	law ControlLaw
}

// NewLTCRTBP returns a CRTBP model with the control law's acceleration added
// to the velocity derivatives. The law is registered against the six core
// states with its parameters starting at index zero.
func NewLTCRTBP(body1, body2 Body, law ControlLaw) (*LTCRTBP, error) {
	if law == nil {
		return nil, configErrorf("low-thrust model requires a control law")
	}
	base := NewCRTBP(body1, body2)
	m := &LTCRTBP{modelBase: base.modelBase, μ: base.μ, law: law}
	law.Register(6, 0)
	return m, nil
}

// MassRatio returns μ.
func (m *LTCRTBP) MassRatio() float64 { return m.μ }

// Law returns the control law.
func (m *LTCRTBP) Law() ControlLaw { return m.law }

// EpochIndependent implements the DynamicsModel interface; the dynamics are
// epoch-independent exactly when the control parameterization is.
func (m *LTCRTBP) EpochIndependent() bool { return m.law.EpochIndependent() }

// Params returns the default propagation parameters, i.e. the law's.
func (m *LTCRTBP) Params() []float64 { return m.law.Params() }

// StateSize implements the DynamicsModel interface.
func (m *LTCRTBP) StateSize(groups ...VarGroup) int {
	n := 6 + m.law.NumStates()
	size := 0
	for _, g := range sortGroups(groups) {
		switch g {
		case State:
			size += n
		case STM:
			size += n * n
		case EpochPartials:
			if !m.EpochIndependent() {
				size += n
			}
		case ParamPartials:
			size += n * len(m.law.Params())
		}
	}
	return size
}

// StateNames returns the core coordinate names followed by the law's.
func (m *LTCRTBP) StateNames() []string {
	return append([]string{"x", "y", "z", "dx", "dy", "dz"}, m.law.StateNames()...)
}

// BodyState implements the DynamicsModel interface.
func (m *LTCRTBP) BodyState(ix int, t float64, params []float64) ([]float64, error) {
	switch ix {
	case 0:
		return []float64{-m.μ, 0, 0, 0, 0, 0}, nil
	case 1:
		return []float64{1 - m.μ, 0, 0, 0, 0, 0}, nil
	}
	return nil, lookupErrorf("body index %d must be zero or one", ix)
}

// DiffEqs implements the DynamicsModel interface. A nil params uses the law's
// default parameter values.
func (m *LTCRTBP) DiffEqs(t float64, y []float64, groups []VarGroup, params []float64) []float64 {
	groups = sortGroups(groups)
	if len(y) != m.StateSize(groups...) {
		panic(dimErrorf("y has %d elements but groups %v span %d", len(y), groups, m.StateSize(groups...)))
	}
	if params == nil {
		params = m.law.Params()
	}
	if len(params) != len(m.law.Params()) {
		panic(dimErrorf("law defines %d parameters, got %d", len(m.law.Params()), len(params)))
	}
	n := 6 + m.law.NumStates()
	ydot := make([]float64, len(y))

	ydot[0], ydot[1], ydot[2] = y[3], y[4], y[5]
	accel := crtbpAccel(m.μ, y)
	aCtrl := m.law.AccelVec(t, y, groups, params)
	for i := 0; i < 3; i++ {
		ydot[3+i] = accel[i] + aCtrl.At(i, 0)
	}
	copy(ydot[6:n], m.law.StateDiffEqs(t, y, groups, params))

	needA := containsGroup(groups, STM) ||
		(containsGroup(groups, EpochPartials) && !m.EpochIndependent()) ||
		containsGroup(groups, ParamPartials)
	if !needA {
		return ydot
	}
	A := m.aMatrix(t, y, groups, params)
	ix := n

	if containsGroup(groups, STM) {
		// PhiDot = A*Phi with the STM stored row-major.
		Φ := mat64.NewDense(n, n, y[ix:ix+n*n])
		ΦDot := mat64.NewDense(n, n, nil)
		ΦDot.Mul(A, Φ)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				ydot[ix+n*r+c] = ΦDot.At(r, c)
			}
		}
		ix += n * n
	}

	if containsGroup(groups, EpochPartials) && !m.EpochIndependent() {
		// dq_T' = A*q_T + ∂f/∂T
		qT := mat64.NewVector(n, y[ix:ix+n])
		qTDot := mat64.NewVector(n, nil)
		qTDot.MulVec(A, qT)
		dadT := m.law.PartialsAccelWrtEpoch(t, y, groups, params)
		dgdT := m.law.PartialsCtrlStateDEQsWrtEpoch(t, y, groups, params)
		for r := 0; r < n; r++ {
			ydot[ix+r] = qTDot.At(r, 0)
		}
		if dadT != nil {
			for r := 0; r < 3; r++ {
				ydot[ix+3+r] += dadT.At(r, 0)
			}
		}
		if dgdT != nil {
			for r := 0; r < n-6; r++ {
				ydot[ix+6+r] += dgdT.At(r, 0)
			}
		}
		ix += n
	}

	if nP := len(params); containsGroup(groups, ParamPartials) && nP > 0 {
		// dQ_p' = A*Q_p + B where B holds the explicit parameter partials.
		Qp := mat64.NewDense(n, nP, y[ix:ix+n*nP])
		QpDot := mat64.NewDense(n, nP, nil)
		QpDot.Mul(A, Qp)
		dadP := m.law.PartialsAccelWrtParams(t, y, groups, params)
		dgdP := m.law.PartialsCtrlStateDEQsWrtParams(t, y, groups, params)
		for r := 0; r < n; r++ {
			for c := 0; c < nP; c++ {
				ydot[ix+nP*r+c] = QpDot.At(r, c)
			}
		}
		if dadP != nil {
			for r := 0; r < 3; r++ {
				for c := 0; c < nP; c++ {
					ydot[ix+nP*(3+r)+c] += dadP.At(r, c)
				}
			}
		}
		if dgdP != nil {
			for r := 0; r < n-6; r++ {
				for c := 0; c < nP; c++ {
					ydot[ix+nP*(6+r)+c] += dgdP.At(r, c)
				}
			}
		}
	}
	return ydot
}

// aMatrix assembles the N×N linearization of the full differential equations,
// natural dynamics plus control, about the current state.
func (m *LTCRTBP) aMatrix(t float64, y []float64, groups []VarGroup, params []float64) *mat64.Dense {
	n := 6 + m.law.NumStates()
	A := mat64.NewDense(n, n, nil)
	for i := 0; i < 3; i++ {
		A.Set(i, 3+i, 1)
	}
	U := crtbpPseudoPotentialHessian(m.μ, y)
	A.Set(3, 0, U[0])
	A.Set(3, 1, U[3])
	A.Set(3, 2, U[4])
	A.Set(4, 0, U[3])
	A.Set(4, 1, U[1])
	A.Set(4, 2, U[5])
	A.Set(5, 0, U[4])
	A.Set(5, 1, U[5])
	A.Set(5, 2, U[2])
	A.Set(3, 4, 2)
	A.Set(4, 3, -2)

	if dadQ := m.law.PartialsAccelWrtCoreState(t, y, groups, params); dadQ != nil {
		for r := 0; r < 3; r++ {
			for c := 0; c < 6; c++ {
				A.Set(3+r, c, A.At(3+r, c)+dadQ.At(r, c))
			}
		}
	}
	if dadW := m.law.PartialsAccelWrtCtrlState(t, y, groups, params); dadW != nil {
		_, nW := dadW.Dims()
		for r := 0; r < 3; r++ {
			for c := 0; c < nW; c++ {
				A.Set(3+r, 6+c, dadW.At(r, c))
			}
		}
	}
	if dgdQ := m.law.PartialsCtrlStateDEQsWrtCoreState(t, y, groups, params); dgdQ != nil {
		nG, _ := dgdQ.Dims()
		for r := 0; r < nG; r++ {
			for c := 0; c < 6; c++ {
				A.Set(6+r, c, dgdQ.At(r, c))
			}
		}
	}
	if dgdW := m.law.PartialsCtrlStateDEQsWrtCtrlState(t, y, groups, params); dgdW != nil {
		nG, nW := dgdW.Dims()
		for r := 0; r < nG; r++ {
			for c := 0; c < nW; c++ {
				A.Set(6+r, 6+c, dgdW.At(r, c))
			}
		}
	}
	return A
}
