package pika

import (
	"testing"

	"github.com/gonum/floats"
)

func TestVariableBasics(t *testing.T) {
	if _, err := NewVariable([]float64{1, 2, 3}, []bool{true, false}, "bad"); err == nil {
		t.Fatal("mismatched value and mask lengths must be rejected")
	}
	v, err := NewVariable([]float64{1, 2, 3, 4}, []bool{true, false, true, false}, "v")
	if err != nil {
		t.Fatal(err)
	}
	if v.Size() != 4 || v.NumFree() != 2 {
		t.Fatalf("wrong sizes: %d total, %d free", v.Size(), v.NumFree())
	}
	if !floats.Equal(v.FreeVals(), []float64{2, 4}) {
		t.Fatalf("wrong free values: %v", v.FreeVals())
	}
	// free ordinals of raw positions, fixed positions dropped
	ix := v.UnmaskedIndices([]int{0, 1, 2, 3})
	if len(ix) != 2 || ix[0] != 0 || ix[1] != 1 {
		t.Fatalf("wrong unmasked indices: %v", ix)
	}
	if ix = v.UnmaskedIndices([]int{3}); len(ix) != 1 || ix[0] != 1 {
		t.Fatalf("wrong single-coordinate ordinal: %v", ix)
	}
	if ix = v.UnmaskedIndices([]int{0, 2}); len(ix) != 0 {
		t.Fatalf("fixed positions must be dropped: %v", ix)
	}
}

func TestVariableCopies(t *testing.T) {
	vals := []float64{1, 2}
	v := NewFreeVariable(vals, "v")
	vals[0] = 99
	if v.AllVals()[0] != 1 {
		t.Fatal("constructor must copy its inputs")
	}
	cp := v.AllVals()
	cp[1] = 99
	if v.AllVals()[1] != 2 {
		t.Fatal("AllVals must return a copy")
	}
	mask := v.Mask()
	mask[0] = true
	if v.NumFree() != 2 {
		t.Fatal("Mask must return a copy")
	}
}

func TestVariableSetFreeVals(t *testing.T) {
	v, _ := NewVariable([]float64{1, 2, 3}, []bool{false, true, false}, "v")
	if err := v.SetFreeVals([]float64{9}); err == nil {
		t.Fatal("wrong free value count must be rejected")
	}
	if err := v.SetFreeVals([]float64{10, 30}); err != nil {
		t.Fatal(err)
	}
	if !floats.Equal(v.AllVals(), []float64{10, 2, 30}) {
		t.Fatalf("fixed values must survive the update: %v", v.AllVals())
	}
}
