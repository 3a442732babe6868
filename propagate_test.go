package pika

import (
	"testing"

	"github.com/gonum/floats"
)

// emVerticalIC is a state near a vertical orbit about Earth-Moon L3.
var emVerticalIC = []float64{0.8213, 0, 0.5690, 0, -1.8214, 0}

func TestPropagatorConfig(t *testing.T) {
	if _, err := NewPropagator(0); err == nil {
		t.Fatal("a zero step size must be rejected")
	}
	m := NewCRTBP(Earth, Moon)
	prop, err := NewPropagator(1e-3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = prop.Propagate(m, emVerticalIC, 0, 1, []VarGroup{STM}, nil); err == nil {
		t.Fatal("propagating without STATE must fail")
	}
	if _, err = prop.Propagate(m, emVerticalIC[:4], 0, 1, []VarGroup{State}, nil); err == nil {
		t.Fatal("a mis-sized initial vector must fail")
	}
}

func TestPropagateZeroTOF(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	prop, _ := NewPropagator(1e-3)
	sol, err := prop.Propagate(m, emVerticalIC, 0.1, 0, []VarGroup{State}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(sol.T) != 1 || sol.T[0] != 0.1 {
		t.Fatal("a zero time of flight must return only the initial state")
	}
	if !floats.Equal(sol.FinalY(), emVerticalIC) {
		t.Fatal("wrong initial sample")
	}
}

func TestPropagateEndpoint(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	prop, _ := NewPropagator(1e-3)
	// a time of flight that is not a multiple of the step size
	sol, err := prop.Propagate(m, emVerticalIC, 0.1, 0.2505, []VarGroup{State}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sol.FinalTime() != 0.1+0.2505 {
		t.Fatalf("the arc must land exactly on the endpoint, not %f", sol.FinalTime())
	}
	// appending default ICs must match passing the full vector
	full, err := prop.Propagate(m, AppendICs(m, emVerticalIC, STM), 0, 0.25, []VarGroup{State, STM}, nil)
	if err != nil {
		t.Fatal(err)
	}
	short, err := prop.Propagate(m, emVerticalIC, 0, 0.25, []VarGroup{State, STM}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(full.FinalY(), short.FinalY()) {
		t.Fatal("STATE-only initial conditions must be padded with defaults")
	}
}

func TestPropagateBackward(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	prop, _ := NewPropagator(1e-3)
	fwd, err := prop.Propagate(m, emVerticalIC, 0, 0.5, []VarGroup{State}, nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := prop.Propagate(m, fwd.FinalY(), fwd.FinalTime(), -0.5, []VarGroup{State}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if back.FinalTime() != 0 {
		t.Fatalf("backward arc must land on the origin time, not %f", back.FinalTime())
	}
	for i, v := range back.FinalY() {
		if !floats.EqualWithinAbs(v, emVerticalIC[i], 1e-8) {
			t.Fatalf("there-and-back mismatch at %d: %e != %e", i, v, emVerticalIC[i])
		}
	}
}

// The propagated STM must match central differences of the propagated state
// with respect to the initial state.
func TestPropagateSTM(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	prop, _ := NewPropagator(1e-3)
	sol, err := prop.Propagate(m, emVerticalIC, 0, 0.5, []VarGroup{State, STM}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stm, err := ExtractMatrix(m, sol.FinalY(), STM, sol.Groups)
	if err != nil {
		t.Fatal(err)
	}

	const ε = 1e-6
	for c := 0; c < 6; c++ {
		plus := make([]float64, 6)
		minus := make([]float64, 6)
		copy(plus, emVerticalIC)
		copy(minus, emVerticalIC)
		plus[c] += ε
		minus[c] -= ε
		solP, err := prop.Propagate(m, plus, 0, 0.5, []VarGroup{State}, nil)
		if err != nil {
			t.Fatal(err)
		}
		solM, err := prop.Propagate(m, minus, 0, 0.5, []VarGroup{State}, nil)
		if err != nil {
			t.Fatal(err)
		}
		qP, qM := solP.FinalY(), solM.FinalY()
		for r := 0; r < 6; r++ {
			fd := (qP[r] - qM[r]) / (2 * ε)
			if !floats.EqualWithinAbs(stm.At(r, c), fd, 1e-4) {
				t.Fatalf("STM(%d,%d) = %e but finite differences give %e", r, c, stm.At(r, c), fd)
			}
		}
	}
}
