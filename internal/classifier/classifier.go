package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	AlgorithmNaiveBayes = "multinomial-nb"
	AlgorithmLogistic   = "logistic-regression"
)

var (
	ErrNotFitted         = errors.New("classifier is not fitted")
	ErrEmptyInput        = errors.New("empty feature matrix")
	ErrDimensionMismatch = errors.New("feature dimension mismatch")
	ErrInvalidLabel      = errors.New("labels must be 0 or 1")
	ErrNegativeFeature   = errors.New("features must be non-negative")
	ErrSingleClass       = errors.New("training data holds a single class")
	ErrUnknownAlgorithm  = errors.New("unknown classifier algorithm")
)

// Classifier predicts the probability that an instance is a keyphrase.
// Fitted classifiers are read-only and safe for concurrent PredictProba.
type Classifier interface {
	// Algorithm returns the identifier stored in model artifacts
	Algorithm() string
	// NumFeatures returns the feature vector length the model was fitted on
	NumFeatures() int
	// Fit trains the model on the rows of X with binary labels y
	Fit(X mat.Matrix, y []int) error
	// PredictProba returns the positive-class probability of each row of X
	PredictProba(X mat.Matrix) ([]float64, error)
}

// Persistent is a classifier whose fitted state round-trips through an artifact
type Persistent interface {
	Classifier
	MarshalParams() (json.RawMessage, error)
	UnmarshalParams(numFeatures int, raw json.RawMessage) error
}

var registry = map[string]func() Persistent{
	AlgorithmNaiveBayes: func() Persistent { return NewNaiveBayes() },
	AlgorithmLogistic:   func() Persistent { return NewLogisticRegression() },
}

// New creates an unfitted classifier for the given algorithm
func New(algorithm string) (Persistent, error) {
	factory, ok := registry[algorithm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	return factory(), nil
}

// Algorithms lists the registered algorithm identifiers
func Algorithms() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkTraining validates a training set and returns its dimensions
func checkTraining(X mat.Matrix, y []int) (int, int, error) {
	if X == nil {
		return 0, 0, ErrEmptyInput
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, ErrEmptyInput
	}
	if len(y) != r {
		return 0, 0, fmt.Errorf("%w: %d rows, %d labels", ErrDimensionMismatch, r, len(y))
	}
	for _, label := range y {
		if label != 0 && label != 1 {
			return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidLabel, label)
		}
	}
	return r, c, nil
}

// checkPredict validates a prediction matrix against the fitted width
func checkPredict(X mat.Matrix, numFeatures int) (int, error) {
	if numFeatures == 0 {
		return 0, ErrNotFitted
	}
	if X == nil {
		return 0, nil
	}
	r, c := X.Dims()
	if c != numFeatures {
		return 0, fmt.Errorf("%w: model has %d features, input has %d", ErrDimensionMismatch, numFeatures, c)
	}
	return r, nil
}
