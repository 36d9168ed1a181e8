package features

import "gonum.org/v1/gonum/mat"

// Instances holds one fixed-length feature vector per candidate key. Rows
// share a single backing array so matrix views mutate them in place.
type Instances struct {
	dim   int
	keys  []string
	data  []float64
	index map[string]int
}

// NewInstances creates an empty container for vectors of length dim
func NewInstances(dim, capacity int) *Instances {
	return &Instances{
		dim:   dim,
		keys:  make([]string, 0, capacity),
		data:  make([]float64, 0, capacity*dim),
		index: make(map[string]int, capacity),
	}
}

// Set stores the vector for key, overwriting a previous one. Rows of the
// wrong length are padded with zeros or truncated.
func (in *Instances) Set(key string, row []float64) {
	i, ok := in.index[key]
	if !ok {
		i = len(in.keys)
		in.index[key] = i
		in.keys = append(in.keys, key)
		in.data = append(in.data, make([]float64, in.dim)...)
	}
	dst := in.data[i*in.dim : (i+1)*in.dim]
	for j := range dst {
		dst[j] = 0
	}
	copy(dst, row)
}

// Len returns the number of instances
func (in *Instances) Len() int {
	return len(in.keys)
}

// Dim returns the feature vector length
func (in *Instances) Dim() int {
	return in.dim
}

// Keys returns the candidate keys in row order
func (in *Instances) Keys() []string {
	keys := make([]string, len(in.keys))
	copy(keys, in.keys)
	return keys
}

// Row returns a view of the i-th vector
func (in *Instances) Row(i int) []float64 {
	return in.data[i*in.dim : (i+1)*in.dim : (i+1)*in.dim]
}

// Get returns a view of the vector for key
func (in *Instances) Get(key string) ([]float64, bool) {
	i, ok := in.index[key]
	if !ok {
		return nil, false
	}
	return in.Row(i), true
}

// Matrix returns a dense view over the instances, nil when empty
func (in *Instances) Matrix() *mat.Dense {
	if len(in.keys) == 0 || in.dim == 0 {
		return nil
	}
	return mat.NewDense(len(in.keys), in.dim, in.data)
}
