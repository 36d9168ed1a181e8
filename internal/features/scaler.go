package features

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scale rescales every dimension of the instances to [0,1] using the
// minimum and maximum over the document's candidates. A dimension with zero
// range maps to 0. Instances are modified in place.
func Scale(in *Instances) {
	m := in.Matrix()
	if m == nil {
		return
	}
	scaleColumns(m)
}

func scaleColumns(m *mat.Dense) {
	rows, cols := m.Dims()
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		lo := floats.Min(col)
		hi := floats.Max(col)
		span := hi - lo

		for i, v := range col {
			scaled := 0.0
			if span != 0 {
				scaled = (v - lo) / span
			}
			m.Set(i, j, scaled)
		}
	}
}
