package classifier

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const numClasses = 2

// NaiveBayes is a multinomial naive Bayes classifier with additive
// smoothing and priors estimated from class frequencies.
type NaiveBayes struct {
	Alpha float64

	classCount   []float64
	featureCount [][]float64
	classPrior   []float64
	featureLog   *mat.Dense
	numFeatures  int
}

// NewNaiveBayes creates a classifier with Laplace smoothing
func NewNaiveBayes() *NaiveBayes {
	return &NaiveBayes{Alpha: 1.0}
}

// Algorithm returns the artifact identifier
func (nb *NaiveBayes) Algorithm() string {
	return AlgorithmNaiveBayes
}

// NumFeatures returns the fitted feature count
func (nb *NaiveBayes) NumFeatures() int {
	return nb.numFeatures
}

// Fit accumulates per-class feature counts. Features must be non-negative.
func (nb *NaiveBayes) Fit(X mat.Matrix, y []int) error {
	r, c, err := checkTraining(X, y)
	if err != nil {
		return err
	}

	classCount := make([]float64, numClasses)
	featureCount := make([][]float64, numClasses)
	for k := range featureCount {
		featureCount[k] = make([]float64, c)
	}

	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		if floats.Min(row) < 0 {
			return fmt.Errorf("%w: row %d", ErrNegativeFeature, i)
		}
		floats.Add(featureCount[y[i]], row)
		classCount[y[i]]++
	}

	nb.setCounts(classCount, featureCount)
	return nil
}

// setCounts derives the log probabilities from the raw counts
func (nb *NaiveBayes) setCounts(classCount []float64, featureCount [][]float64) {
	c := len(featureCount[0])
	total := floats.Sum(classCount)

	nb.classCount = classCount
	nb.featureCount = featureCount
	nb.numFeatures = c
	nb.classPrior = make([]float64, numClasses)
	nb.featureLog = mat.NewDense(numClasses, c, nil)

	for k := 0; k < numClasses; k++ {
		nb.classPrior[k] = math.Log(classCount[k] / total)

		smoothedTotal := floats.Sum(featureCount[k]) + nb.Alpha*float64(c)
		for j, v := range featureCount[k] {
			nb.featureLog.Set(k, j, math.Log((v+nb.Alpha)/smoothedTotal))
		}
	}
}

// PredictProba returns the posterior of the positive class for each row
func (nb *NaiveBayes) PredictProba(X mat.Matrix) ([]float64, error) {
	r, err := checkPredict(X, nb.numFeatures)
	if err != nil || r == 0 {
		return []float64{}, err
	}

	var jll mat.Dense
	jll.Mul(X, nb.featureLog.T())

	probs := make([]float64, r)
	for i := 0; i < r; i++ {
		neg := jll.At(i, 0) + nb.classPrior[0]
		pos := jll.At(i, 1) + nb.classPrior[1]
		probs[i] = 1 / (1 + math.Exp(neg-pos))
	}
	return probs, nil
}

type naiveBayesParams struct {
	Alpha        float64     `json:"alpha"`
	ClassCount   []float64   `json:"class_count"`
	FeatureCount [][]float64 `json:"feature_count"`
}

// MarshalParams encodes the fitted counts
func (nb *NaiveBayes) MarshalParams() (json.RawMessage, error) {
	if nb.numFeatures == 0 {
		return nil, ErrNotFitted
	}
	return json.Marshal(naiveBayesParams{
		Alpha:        nb.Alpha,
		ClassCount:   nb.classCount,
		FeatureCount: nb.featureCount,
	})
}

// UnmarshalParams restores fitted counts, checking them against numFeatures
func (nb *NaiveBayes) UnmarshalParams(numFeatures int, raw json.RawMessage) error {
	var p naiveBayesParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	if p.Alpha <= 0 {
		return fmt.Errorf("alpha must be positive, got %v", p.Alpha)
	}
	if len(p.ClassCount) != numClasses || len(p.FeatureCount) != numClasses {
		return fmt.Errorf("expected %d classes", numClasses)
	}
	if floats.Sum(p.ClassCount) <= 0 || floats.Min(p.ClassCount) < 0 {
		return fmt.Errorf("invalid class counts %v", p.ClassCount)
	}
	for k, counts := range p.FeatureCount {
		if len(counts) != numFeatures {
			return fmt.Errorf("class %d has %d feature counts, expected %d", k, len(counts), numFeatures)
		}
		if floats.Min(counts) < 0 {
			return fmt.Errorf("class %d has negative feature counts", k)
		}
	}

	nb.Alpha = p.Alpha
	nb.setCounts(p.ClassCount, p.FeatureCount)
	return nil
}
