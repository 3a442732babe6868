package pika

import (
	"testing"

	"github.com/gonum/floats"
)

func TestVarGroupOrder(t *testing.T) {
	groups := sortGroups([]VarGroup{ParamPartials, State, STM, State})
	if len(groups) != 3 {
		t.Fatalf("duplicates must collapse: %v", groups)
	}
	if groups[0] != State || groups[1] != STM || groups[2] != ParamPartials {
		t.Fatalf("wrong canonical order: %v", groups)
	}
	if State.String() != "STATE" || STM.String() != "STM" {
		t.Fatal("wrong group names")
	}
}

func TestValidForPropagation(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	if ValidForPropagation(m, []VarGroup{STM}) {
		t.Fatal("STM alone must not be propagatable")
	}
	if !ValidForPropagation(m, []VarGroup{State, STM}) {
		t.Fatal("STATE plus STM must be propagatable")
	}
}

func TestDefaultAndAppendICs(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	stm := DefaultICs(m, STM)
	if len(stm) != 36 {
		t.Fatalf("wrong STM IC size %d", len(stm))
	}
	for r := 0; r < 6; r++ {
		for c := 0; c < 6; c++ {
			exp := 0.0
			if r == c {
				exp = 1
			}
			if stm[6*r+c] != exp {
				t.Fatalf("STM ICs must be identity, got %f at (%d,%d)", stm[6*r+c], r, c)
			}
		}
	}
	q0 := []float64{1, 2, 3, 4, 5, 6}
	y0 := AppendICs(m, q0, STM)
	if len(y0) != 42 {
		t.Fatalf("wrong appended size %d", len(y0))
	}
	if !floats.Equal(y0[:6], q0) {
		t.Fatal("state must lead the vector")
	}
	if !floats.Equal(q0, []float64{1, 2, 3, 4, 5, 6}) {
		t.Fatal("AppendICs must not mutate its input")
	}
}

func TestExtractVars(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	y := make([]float64, 42)
	for i := range y {
		y[i] = float64(i)
	}
	groups := []VarGroup{State, STM}
	q, err := ExtractVars(m, y, State, groups)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(q, []float64{0, 1, 2, 3, 4, 5}) {
		t.Fatalf("wrong STATE slice: %v", q)
	}
	stm, err := ExtractMatrix(m, y, STM, groups)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := stm.Dims(); r != 6 || c != 6 {
		t.Fatalf("wrong STM shape %dx%d", r, c)
	}
	if stm.At(0, 0) != 6 || stm.At(1, 0) != 12 {
		t.Fatal("STM must be reshaped row-major")
	}
	if _, err = ExtractVars(m, y, EpochPartials, groups); err == nil {
		t.Fatal("extracting a group outside the input set must fail")
	}
	if _, ok := err.(LookupError); !ok {
		t.Fatalf("expected a LookupError, got %T", err)
	}
	if _, err = ExtractVars(m, y[:20], STM, groups); err == nil {
		t.Fatal("a short vector must fail")
	}
}

func TestVarNames(t *testing.T) {
	m := NewCRTBP(Earth, Moon)
	names := VarNames(m, State)
	if len(names) != 6 || names[0] != "x" || names[5] != "dz" {
		t.Fatalf("wrong state names: %v", names)
	}
	if len(VarNames(m, STM)) != 36 {
		t.Fatal("wrong STM name count")
	}
}

func TestModelsEqual(t *testing.T) {
	a := NewCRTBP(Earth, Moon)
	b := NewCRTBP(Moon, Earth)
	if !ModelsEqual(a, b) {
		t.Fatal("body order must not matter")
	}
	c := NewCRTBP(Sun, Earth)
	if ModelsEqual(a, c) {
		t.Fatal("different primaries must differ")
	}
	law := NewForceMassOrientLaw(NewConstThrustTerm(1e-2), NewConstMassTerm(1), NewConstOrientTerm(0, 0))
	d, err := NewLTCRTBP(Earth, Moon, law)
	if err != nil {
		t.Fatal(err)
	}
	if ModelsEqual(a, d) {
		t.Fatal("different concrete types must differ")
	}
}
