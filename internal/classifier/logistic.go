package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is a binary logistic regression with an L2 penalty on
// the weights. The intercept is not penalized.
type LogisticRegression struct {
	C             float64
	MaxIterations int

	weights   []float64
	intercept float64
}

// NewLogisticRegression creates a classifier with inverse regularization strength 1
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{C: 1.0, MaxIterations: 500}
}

// Algorithm returns the artifact identifier
func (lr *LogisticRegression) Algorithm() string {
	return AlgorithmLogistic
}

// NumFeatures returns the fitted feature count
func (lr *LogisticRegression) NumFeatures() int {
	return len(lr.weights)
}

// Weights returns a copy of the fitted coefficients and the intercept
func (lr *LogisticRegression) Weights() ([]float64, float64) {
	w := make([]float64, len(lr.weights))
	copy(w, lr.weights)
	return w, lr.intercept
}

// Fit minimizes 0.5*|w|^2 + C * sum(log(1 + exp(-s*(w.x + b)))) with L-BFGS,
// where s is the label mapped to -1/+1.
func (lr *LogisticRegression) Fit(X mat.Matrix, y []int) error {
	r, c, err := checkTraining(X, y)
	if err != nil {
		return err
	}
	if lr.C <= 0 {
		return fmt.Errorf("regularization strength must be positive, got %v", lr.C)
	}

	positives := 0
	for _, label := range y {
		positives += label
	}
	if positives == 0 || positives == r {
		return ErrSingleClass
	}

	data := mat.DenseCopyOf(X)
	signs := make([]float64, r)
	for i, label := range y {
		signs[i] = float64(2*label - 1)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			w, b := x[:c], x[c]
			loss := 0.0
			for i := 0; i < r; i++ {
				z := floats.Dot(data.RawRowView(i), w) + b
				loss += softplus(-signs[i] * z)
			}
			return 0.5*floats.Dot(w, w) + lr.C*loss
		},
		Grad: func(grad, x []float64) {
			w, b := x[:c], x[c]
			copy(grad[:c], w)
			grad[c] = 0
			for i := 0; i < r; i++ {
				row := data.RawRowView(i)
				z := floats.Dot(row, w) + b
				g := -signs[i] * sigmoid(-signs[i]*z) * lr.C
				floats.AddScaled(grad[:c], g, row)
				grad[c] += g
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		MajorIterations:   lr.MaxIterations,
	}

	initial := make([]float64, c+1)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != c+1 {
		if err == nil {
			err = fmt.Errorf("optimizer returned no solution")
		}
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}
	if serr := checkSolution(result.X, result.F, problem.Func(initial), err); serr != nil {
		return fmt.Errorf("failed to fit logistic regression: %w", serr)
	}

	lr.weights = make([]float64, c)
	copy(lr.weights, result.X[:c])
	lr.intercept = result.X[c]
	return nil
}

// checkSolution accepts a location the optimizer stopped at with an error,
// such as a failed line search close to the optimum, only when it is finite
// and improves on the starting loss.
func checkSolution(x []float64, loss, initialLoss float64, optErr error) error {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if optErr != nil {
				return fmt.Errorf("non-finite solution: %w", optErr)
			}
			return fmt.Errorf("non-finite solution")
		}
	}
	if optErr != nil && !(loss < initialLoss) {
		return fmt.Errorf("no improvement over initial loss: %w", optErr)
	}
	return nil
}

// PredictProba returns sigmoid(w.x + b) for each row
func (lr *LogisticRegression) PredictProba(X mat.Matrix) ([]float64, error) {
	r, err := checkPredict(X, len(lr.weights))
	if err != nil || r == 0 {
		return []float64{}, err
	}

	var z mat.VecDense
	z.MulVec(X, mat.NewVecDense(len(lr.weights), lr.weights))

	probs := make([]float64, r)
	for i := 0; i < r; i++ {
		probs[i] = sigmoid(z.AtVec(i) + lr.intercept)
	}
	return probs, nil
}

type logisticParams struct {
	C         float64   `json:"c"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// MarshalParams encodes the fitted coefficients
func (lr *LogisticRegression) MarshalParams() (json.RawMessage, error) {
	if len(lr.weights) == 0 {
		return nil, ErrNotFitted
	}
	return json.Marshal(logisticParams{C: lr.C, Weights: lr.weights, Intercept: lr.intercept})
}

// UnmarshalParams restores fitted coefficients, checking them against numFeatures
func (lr *LogisticRegression) UnmarshalParams(numFeatures int, raw json.RawMessage) error {
	var p logisticParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if len(p.Weights) != numFeatures {
		return fmt.Errorf("%d weights, expected %d", len(p.Weights), numFeatures)
	}
	if floats.HasNaN(p.Weights) || math.IsNaN(p.Intercept) {
		return fmt.Errorf("weights contain NaN")
	}
	if p.C > 0 {
		lr.C = p.C
	}
	lr.weights = p.Weights
	lr.intercept = p.Intercept
	return nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus computes log(1 + exp(t)) without overflow
func softplus(t float64) float64 {
	if t > 0 {
		return t + math.Log1p(math.Exp(-t))
	}
	return math.Log1p(math.Exp(t))
}
