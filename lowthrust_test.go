package pika

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func emLTLaw() *ForceMassOrientLaw {
	law := NewForceMassOrientLaw(NewConstThrustTerm(0.011), NewConstMassTerm(1.0),
		NewConstOrientTerm(math.Pi/2, 0.02))
	law.Register(6, 0)
	return law
}

func TestSeparableLawComposition(t *testing.T) {
	law := emLTLaw()
	if !floats.Equal(law.Params(), []float64{0.011, 1.0, math.Pi / 2, 0.02}) {
		t.Fatalf("wrong parameter concatenation: %v", law.Params())
	}
	if law.NumStates() != 0 || len(law.StateICs()) != 0 || len(law.StateNames()) != 0 {
		t.Fatal("constant terms define no control states")
	}
	if !law.EpochIndependent() {
		t.Fatal("constant terms are epoch independent")
	}
	// registration walks the parameter offsets in term order
	terms := law.Terms()
	if terms[0].(*ConstThrustTerm).ParamIx0() != 0 ||
		terms[1].(*ConstMassTerm).ParamIx0() != 1 ||
		terms[2].(*ConstOrientTerm).ParamIx0() != 2 {
		t.Fatal("wrong parameter offsets after registration")
	}
}

func TestForceMassOrientAccel(t *testing.T) {
	law := emLTLaw()
	params := law.Params()
	q := []float64{0.8213, 0, 0.5690, 0, -1.8214, 0}
	a := law.AccelVec(0.1, q, []VarGroup{State}, params)

	mag := math.Sqrt(a.At(0, 0)*a.At(0, 0) + a.At(1, 0)*a.At(1, 0) + a.At(2, 0)*a.At(2, 0))
	if !floats.EqualWithinAbs(mag, 0.011, 1e-14) {
		t.Fatalf("wrong acceleration magnitude %e", mag)
	}
	exp := []float64{
		0.011 * math.Cos(0.02) * math.Cos(math.Pi/2),
		0.011 * math.Cos(0.02) * math.Sin(math.Pi/2),
		0.011 * math.Sin(0.02),
	}
	for i := 0; i < 3; i++ {
		if !floats.EqualWithinAbs(a.At(i, 0), exp[i], 1e-14) {
			t.Fatalf("wrong acceleration component %d: %e != %e", i, a.At(i, 0), exp[i])
		}
	}
}

func TestForceMassOrientPartials(t *testing.T) {
	law := emLTLaw()
	params := law.Params()
	q := []float64{0.8213, 0, 0.5690, 0, -1.8214, 0}
	groups := []VarGroup{State}

	if law.PartialsAccelWrtCtrlState(0, q, groups, params) != nil {
		t.Fatal("no control states, so no control state partials")
	}
	dadQ := law.PartialsAccelWrtCoreState(0, q, groups, params)
	if r, c := dadQ.Dims(); r != 3 || c != 6 {
		t.Fatalf("wrong core state partials shape %dx%d", r, c)
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 6; c++ {
			if dadQ.At(r, c) != 0 {
				t.Fatal("constant terms must not depend on the core state")
			}
		}
	}

	dadP := law.PartialsAccelWrtParams(0, q, groups, params)
	if r, c := dadP.Dims(); r != 3 || c != 4 {
		t.Fatalf("wrong parameter partials shape %dx%d", r, c)
	}
	const ε = 1e-7
	for j := 0; j < 4; j++ {
		plus := make([]float64, 4)
		minus := make([]float64, 4)
		copy(plus, params)
		copy(minus, params)
		plus[j] += ε
		minus[j] -= ε
		ap := law.AccelVec(0, q, groups, plus)
		am := law.AccelVec(0, q, groups, minus)
		for i := 0; i < 3; i++ {
			fd := (ap.At(i, 0) - am.At(i, 0)) / (2 * ε)
			if !floats.EqualWithinAbs(dadP.At(i, j), fd, 1e-6) {
				t.Fatalf("∂a%d/∂p%d = %e but finite differences give %e", i, j, dadP.At(i, j), fd)
			}
		}
	}
}

func TestSeparableLawCtrlStatePartials(t *testing.T) {
	law := emLTLaw()
	params := law.Params()
	q := []float64{0.8213, 0, 0.5690, 0, -1.8214, 0}
	groups := []VarGroup{State}
	var block *mat64.Dense
	if block = law.PartialsCtrlStateDEQsWrtCoreState(0, q, groups, params); block != nil {
		t.Fatal("no control states, so the concatenated partials must be empty")
	}
	if block = law.PartialsCtrlStateDEQsWrtParams(0, q, groups, params); block != nil {
		t.Fatal("no control states, so the concatenated partials must be empty")
	}
	if len(law.StateDiffEqs(0, q, groups, params)) != 0 {
		t.Fatal("no control states, so no differential equations")
	}
}
