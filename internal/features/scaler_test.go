package features

import "testing"

func TestScale_MinMax(t *testing.T) {
	in := NewInstances(2, 3)
	in.Set("a", []float64{2, 10})
	in.Set("b", []float64{4, 30})
	in.Set("c", []float64{8, 20})
	rowB, _ := in.Get("b")

	Scale(in)

	want := map[string][]float64{
		"a": {0, 0},
		"b": {1.0 / 3, 1},
		"c": {1, 0.5},
	}
	for key, w := range want {
		got, _ := in.Get(key)
		for j := range w {
			if diff := got[j] - w[j]; diff > 1e-12 || diff < -1e-12 {
				t.Errorf("%s[%d]: expected %v, got %v", key, j, w[j], got[j])
			}
			if got[j] < 0 || got[j] > 1 {
				t.Errorf("%s[%d]: %v outside [0,1]", key, j, got[j])
			}
		}
	}

	if rowB[1] != 1 {
		t.Errorf("expected scaling in place, row view still %v", rowB)
	}
}

func TestScale_ZeroRange(t *testing.T) {
	in := NewInstances(2, 2)
	in.Set("a", []float64{5, 1})
	in.Set("b", []float64{5, 3})

	Scale(in)

	a, _ := in.Get("a")
	b, _ := in.Get("b")
	if a[0] != 0 || b[0] != 0 {
		t.Errorf("expected constant 0 for zero-range dimension, got %v %v", a[0], b[0])
	}
	if a[1] != 0 || b[1] != 1 {
		t.Errorf("expected [0 1] for second dimension, got %v %v", a[1], b[1])
	}
}

func TestScale_Empty(t *testing.T) {
	in := NewInstances(3, 0)
	Scale(in)
	if in.Len() != 0 || in.Matrix() != nil {
		t.Error("expected empty instances to stay empty")
	}
}

func TestInstances_SetOverwrites(t *testing.T) {
	in := NewInstances(2, 1)
	in.Set("a", []float64{1, 2})
	in.Set("a", []float64{3})

	if in.Len() != 1 {
		t.Fatalf("expected 1 instance, got %d", in.Len())
	}
	row, _ := in.Get("a")
	if row[0] != 3 || row[1] != 0 {
		t.Errorf("expected [3 0], got %v", row)
	}
}
