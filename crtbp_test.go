package pika

import (
	"math"
	"testing"

	"github.com/gonum/floats"
)

func TestCRTBPConstruction(t *testing.T) {
	m := NewCRTBP(Moon, Earth)
	if !floats.EqualWithinAbs(m.MassRatio(), 0.012150585, 1e-8) {
		t.Fatalf("wrong Earth-Moon mass ratio %.10f", m.MassRatio())
	}
	bodies := m.Bodies()
	if bodies[0].Name != "Earth" || bodies[1].Name != "Moon" {
		t.Fatal("primaries must be sorted by decreasing mass")
	}
	if m.CharL() != Moon.SMA {
		t.Fatal("characteristic length must be the secondary SMA")
	}
	expT := math.Sqrt(math.Pow(Moon.SMA, 3) / (Earth.GM + Moon.GM))
	if !floats.EqualWithinAbs(m.CharT(), expT, 1e-6) {
		t.Fatalf("wrong characteristic time %f", m.CharT())
	}
	if !m.EpochIndependent() {
		t.Fatal("the CRTBP is epoch independent")
	}
	if m.StateSize(State) != 6 || m.StateSize(State, STM) != 42 || m.StateSize(EpochPartials) != 0 {
		t.Fatal("wrong state sizes")
	}
}

func TestCRTBPBodyState(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	μ := m.MassRatio()
	q1, err := m.BodyState(0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	q2, err := m.BodyState(1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(q1, []float64{-μ, 0, 0, 0, 0, 0}) || !floats.Equal(q2, []float64{1 - μ, 0, 0, 0, 0, 0}) {
		t.Fatal("primaries must sit on the rotating x-axis")
	}
	if _, err = m.BodyState(2, 0, nil); err == nil {
		t.Fatal("body index 2 must fail")
	}
}

func TestCRTBPDiffEqs(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	q := []float64{0.5, 0.1, 0.2, 0.01, -0.02, 0.03}
	ydot := m.DiffEqs(0, q, []VarGroup{State}, nil)
	if !floats.Equal(ydot[:3], q[3:]) {
		t.Fatal("position derivatives must equal the velocities")
	}

	// With zero velocity the gravity terms are even in y for ax and az and
	// odd in y for ay.
	qp := []float64{0.5, 0.1, 0.2, 0, 0, 0}
	qm := []float64{0.5, -0.1, 0.2, 0, 0, 0}
	pdot := m.DiffEqs(0, qp, []VarGroup{State}, nil)
	mdot := m.DiffEqs(0, qm, []VarGroup{State}, nil)
	if !floats.EqualWithinAbs(mdot[3], pdot[3], 1e-12) ||
		!floats.EqualWithinAbs(mdot[4], -pdot[4], 1e-12) ||
		!floats.EqualWithinAbs(mdot[5], pdot[5], 1e-12) {
		t.Fatal("accelerations must respect the xz-plane symmetry")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("a mis-sized vector must panic")
		} else if _, ok := r.(DimensionError); !ok {
			t.Fatalf("expected a DimensionError, got %v", r)
		}
	}()
	m.DiffEqs(0, q[:4], []VarGroup{State}, nil)
}

// The pseudopotential Hessian must match central differences of the
// gravitational acceleration.
func TestCRTBPHessian(t *testing.T) {
	μ := NewCRTBP(Earth, Moon).MassRatio()
	q := []float64{0.5, 0.1, 0.2, 0, 0, 0}
	U := crtbpPseudoPotentialHessian(μ, q)

	const ε = 1e-6
	fd := func(row, col int) float64 {
		plus := make([]float64, 6)
		minus := make([]float64, 6)
		copy(plus, q)
		copy(minus, q)
		plus[col] += ε
		minus[col] -= ε
		return (crtbpAccel(μ, plus)[row] - crtbpAccel(μ, minus)[row]) / (2 * ε)
	}
	checks := []struct {
		row, col int
		exp      float64
	}{
		{0, 0, U[0]}, {1, 1, U[1]}, {2, 2, U[2]},
		{0, 1, U[3]}, {0, 2, U[4]}, {1, 2, U[5]},
		{1, 0, U[3]}, {2, 0, U[4]}, {2, 1, U[5]},
	}
	for _, c := range checks {
		if got := fd(c.row, c.col); !floats.EqualWithinAbs(got, c.exp, 1e-6) {
			t.Fatalf("U(%d,%d) = %e but finite differences give %e", c.row, c.col, c.exp, got)
		}
	}
}
